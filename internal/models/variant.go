package models

// VariantKind вид документа главы.
type VariantKind string

const (
	// VariantFree бесплатные конспекты, цена всегда 0.
	VariantFree VariantKind = "FREE"
	// VariantExclusive эксклюзивный PDF (в интерфейсе раньше назывался PREMIUM).
	VariantExclusive VariantKind = "EXCLUSIVE"
	// VariantUltra снят с продажи, оставлен для совместимости.
	VariantUltra VariantKind = "ULTRA"
)

// Valid сообщает, известен ли вид документа.
func (k VariantKind) Valid() bool {
	switch k {
	case VariantFree, VariantExclusive, VariantUltra:
		return true
	}
	return false
}

// DocumentVariant запрошенный вариант документа главы.
// Пустой Link означает, что документ ещё не опубликован.
// Price == nil означает, что явная цена не задана и берётся из настроек.
type DocumentVariant struct {
	Kind  VariantKind `json:"kind"`
	Link  string      `json:"link,omitempty"`
	Price *int        `json:"price,omitempty"`
}

// Published сообщает, загружен ли документ.
func (v DocumentVariant) Published() bool {
	return v.Link != ""
}

// PendingCharge ожидающее подтверждения списание.
// Живёт от решения о списании до подтверждения или отмены.
type PendingCharge struct {
	VariantKind VariantKind `json:"variant_kind"`
	Price       int         `json:"price"`
	Link        string      `json:"link"`
	AutoPay     bool        `json:"auto_pay"` // начальное состояние переключателя автосписания
}

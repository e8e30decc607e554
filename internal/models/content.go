package models

import "time"

// ChapterContent метаданные документов главы из удалённого хранилища.
type ChapterContent struct {
	FreeLink    string `json:"freeLink,omitempty"`
	PremiumLink string `json:"premiumLink,omitempty"`
	Price       *int   `json:"price,omitempty"`
}

// SystemSettings глобальные настройки, только для чтения.
type SystemSettings struct {
	DefaultPdfCost *int
}

// UnlockReceipt событие об успешном списании кредитов за документ.
type UnlockReceipt struct {
	UserUID     string      `json:"user_uid"`
	Email       string      `json:"email"`
	Username    string      `json:"username"`
	VariantKind VariantKind `json:"variant_kind"`
	Price       int         `json:"price"`
	Balance     int         `json:"balance"`
	ChargedAt   time.Time   `json:"charged_at"`
}

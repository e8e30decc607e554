// Package entitlement решает, открыть ли пользователю вариант документа главы,
// заблокировать его или потребовать списания кредитов.
//
// Resolve чистая функция: текущее время передаётся параметром.
package entitlement

import (
	"time"

	"github.com/magabrotheeeer/chapter-library/internal/models"
)

// FallbackPdfCost цена эксклюзивного документа, если не задана ни явно, ни в настройках.
const FallbackPdfCost = 5

// ReasonNotPublished причина блокировки неопубликованного документа.
const ReasonNotPublished = "not_published"

// Kind вид решения.
type Kind int

const (
	// Grant: доступ открыт сразу.
	Grant Kind = iota
	// RequireConfirmation: нужно списание после подтверждения пользователем.
	RequireConfirmation
	// RequireImmediateCharge: нужно списание без подтверждения (включено автосписание).
	RequireImmediateCharge
	// Block: доступ закрыт, причина в Decision.Reason.
	Block
)

func (k Kind) String() string {
	switch k {
	case Grant:
		return "grant"
	case RequireConfirmation:
		return "require_confirmation"
	case RequireImmediateCharge:
		return "require_immediate_charge"
	case Block:
		return "block"
	default:
		return "unknown"
	}
}

// Decision результат проверки доступа. Price и Link заполнены для Grant
// и обоих видов списания, Reason только для Block.
type Decision struct {
	Kind        Kind
	VariantKind models.VariantKind
	Price       int
	Link        string
	Reason      string
}

// EffectivePrice возвращает цену варианта: бесплатный всегда 0, для остальных
// явная цена, затем цена из настроек, затем FallbackPdfCost.
func EffectivePrice(kind models.VariantKind, explicit *int, settings models.SystemSettings) int {
	if kind == models.VariantFree {
		return 0
	}
	if explicit != nil {
		return *explicit
	}
	if settings.DefaultPdfCost != nil {
		return *settings.DefaultPdfCost
	}
	return FallbackPdfCost
}

// Resolve принимает решение о доступе пользователя к варианту документа.
func Resolve(user models.User, variant models.DocumentVariant, settings models.SystemSettings, now time.Time) Decision {
	if !variant.Published() {
		return Decision{Kind: Block, VariantKind: variant.Kind, Reason: ReasonNotPublished}
	}

	price := EffectivePrice(variant.Kind, variant.Price, settings)
	grant := Decision{Kind: Grant, VariantKind: variant.Kind, Price: price, Link: variant.Link}

	if user.Role == models.RoleAdmin {
		return grant
	}
	if price == 0 {
		return grant
	}

	if user.HasActiveSubscription(now) {
		switch user.SubscriptionLevel {
		case models.SubscriptionUltra:
			return grant
		case models.SubscriptionBasic:
			// BASIC не даёт скидки на платные материалы: бесплатные уже открыты
			// выше по цене 0, эксклюзивные (и снятые ULTRA) оплачиваются кредитами.
		}
	}

	if user.IsAutoDeductEnabled {
		return Decision{Kind: RequireImmediateCharge, VariantKind: variant.Kind, Price: price, Link: variant.Link}
	}
	return Decision{Kind: RequireConfirmation, VariantKind: variant.Kind, Price: price, Link: variant.Link}
}

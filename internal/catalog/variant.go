package catalog

import (
	"github.com/magabrotheeeer/chapter-library/internal/entitlement"
	"github.com/magabrotheeeer/chapter-library/internal/models"
)

// Variant строит запрошенный вариант документа из метаданных главы.
// ULTRA-документы сняты с продажи и никогда не публикуются.
func Variant(content models.ChapterContent, kind models.VariantKind) models.DocumentVariant {
	switch kind {
	case models.VariantFree:
		return models.DocumentVariant{Kind: kind, Link: content.FreeLink}
	case models.VariantExclusive:
		return models.DocumentVariant{Kind: kind, Link: content.PremiumLink, Price: content.Price}
	default:
		return models.DocumentVariant{Kind: kind}
	}
}

// Listing вариант в списке документов главы.
type Listing struct {
	Kind      models.VariantKind `json:"kind"`
	Published bool               `json:"published"`
	Price     int                `json:"price"`
}

// Listings возвращает продаваемые варианты главы с действующей ценой.
func Listings(content models.ChapterContent, settings models.SystemSettings) []Listing {
	kinds := []models.VariantKind{models.VariantFree, models.VariantExclusive}
	out := make([]Listing, 0, len(kinds))
	for _, kind := range kinds {
		v := Variant(content, kind)
		out = append(out, Listing{
			Kind:      kind,
			Published: v.Published(),
			Price:     entitlement.EffectivePrice(kind, v.Price, settings),
		})
	}
	return out
}

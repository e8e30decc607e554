// Package settings отдаёт глобальные настройки цен.
package settings

import (
	"context"
	"log/slog"

	"github.com/magabrotheeeer/chapter-library/internal/lib/sl"
	"github.com/magabrotheeeer/chapter-library/internal/models"
)

type Repository interface {
	GetSystemSettings(ctx context.Context) (models.SystemSettings, error)
}

// Provider читает system_settings и подставляет цену из конфига,
// если в базе она не задана или база недоступна.
type Provider struct {
	repo           Repository
	defaultPdfCost *int
	log            *slog.Logger
}

func New(repo Repository, defaultPdfCost *int, log *slog.Logger) *Provider {
	return &Provider{
		repo:           repo,
		defaultPdfCost: defaultPdfCost,
		log:            log,
	}
}

// Get никогда не возвращает ошибку: недоступные настройки равны пустым.
func (p *Provider) Get(ctx context.Context) models.SystemSettings {
	const op = "settings.Get"

	stored, err := p.repo.GetSystemSettings(ctx)
	if err != nil {
		p.log.Warn("failed to read system settings, using defaults", slog.String("op", op), sl.Err(err))
		stored = models.SystemSettings{}
	}
	if stored.DefaultPdfCost == nil && p.defaultPdfCost != nil {
		cost := *p.defaultPdfCost
		stored.DefaultPdfCost = &cost
	}
	return stored
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/chapter-library/internal/models"
)

// GetChapterContent возвращает метаданные документов главы по ключу.
func (s *Storage) GetChapterContent(ctx context.Context, key string) (*models.ChapterContent, error) {
	const op = "storage.GetChapterContent"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var freeLink, premiumLink sql.NullString
	var price sql.NullInt64
	err := s.DB.QueryRowContext(ctx,
		`SELECT free_link, premium_link, price FROM chapter_content WHERE content_key = $1`, key).
		Scan(&freeLink, &premiumLink, &price)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrContentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	content := &models.ChapterContent{
		FreeLink:    freeLink.String,
		PremiumLink: premiumLink.String,
	}
	if price.Valid {
		p := int(price.Int64)
		content.Price = &p
	}
	return content, nil
}

// SaveChapterContent создаёт или заменяет метаданные главы.
func (s *Storage) SaveChapterContent(ctx context.Context, key string, content models.ChapterContent) error {
	const op = "storage.SaveChapterContent"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO chapter_content (content_key, free_link, premium_link, price, updated_at)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, NOW())
		ON CONFLICT (content_key) DO UPDATE
		SET free_link = EXCLUDED.free_link,
		    premium_link = EXCLUDED.premium_link,
		    price = EXCLUDED.price,
		    updated_at = NOW()`,
		key, content.FreeLink, content.PremiumLink, content.Price)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetSystemSettings читает глобальные настройки. Если строки нет, возвращает пустые настройки.
func (s *Storage) GetSystemSettings(ctx context.Context) (models.SystemSettings, error) {
	const op = "storage.GetSystemSettings"
	if err := checkCtx(ctx, op); err != nil {
		return models.SystemSettings{}, err
	}

	var cost sql.NullInt64
	err := s.DB.QueryRowContext(ctx, `SELECT default_pdf_cost FROM system_settings WHERE id = 1`).Scan(&cost)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SystemSettings{}, nil
	}
	if err != nil {
		return models.SystemSettings{}, fmt.Errorf("%s: %w", op, err)
	}

	var settings models.SystemSettings
	if cost.Valid {
		c := int(cost.Int64)
		settings.DefaultPdfCost = &c
	}
	return settings, nil
}

// SaveSystemSettings обновляет глобальные настройки.
func (s *Storage) SaveSystemSettings(ctx context.Context, settings models.SystemSettings) error {
	const op = "storage.SaveSystemSettings"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO system_settings (id, default_pdf_cost) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET default_pdf_cost = EXCLUDED.default_pdf_cost`,
		settings.DefaultPdfCost)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

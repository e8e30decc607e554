// Package pending хранит ожидающие подтверждения списания в redis.
// Срок жизни у записи нет: она живёт до подтверждения или отмены.
package pending

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/chapter-library/internal/models"
)

type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

type Store struct {
	cache Cache
}

func New(cache Cache) *Store {
	return &Store{cache: cache}
}

// Key ключ ожидающего списания пользователя.
func Key(userUID string) string {
	return "pending:" + userUID
}

func (s *Store) SavePending(ctx context.Context, userUID string, charge models.PendingCharge) error {
	const op = "pending.SavePending"
	if err := s.cache.Set(ctx, Key(userUID), charge, 0); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetPending возвращает nil без ошибки, если ничего не ожидает подтверждения.
func (s *Store) GetPending(ctx context.Context, userUID string) (*models.PendingCharge, error) {
	const op = "pending.GetPending"
	var charge models.PendingCharge
	found, err := s.cache.Get(ctx, Key(userUID), &charge)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return nil, nil
	}
	return &charge, nil
}

func (s *Store) DeletePending(ctx context.Context, userUID string) error {
	const op = "pending.DeletePending"
	if err := s.cache.Invalidate(ctx, Key(userUID)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

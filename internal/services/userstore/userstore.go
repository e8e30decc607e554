// Package userstore хранит запись пользователя: локальная копия в redis
// и основная запись в PostgreSQL.
package userstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/chapter-library/internal/lib/sl"
	"github.com/magabrotheeeer/chapter-library/internal/models"
	"github.com/magabrotheeeer/chapter-library/internal/storage"
)

// Repository основное хранилище пользователей.
type Repository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	SaveUserBalance(ctx context.Context, user models.User) error
}

// Cache локальная копия записей.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Store читает и сохраняет пользователя.
//
// PostgreSQL основной источник роли, подписки и профиля. Локальная копия
// хранит только баланс, ещё не записанный в PostgreSQL: Persist пишет её первой
// и удаляет после успешной синхронизации. Пока копия есть, её кредиты и флаг
// автосписания главнее удалённых.
type Store struct {
	repo  Repository
	cache Cache
	ttl   time.Duration
	log   *slog.Logger
}

// New создает Store. ttl задаёт время жизни несинхронизированной копии, 0 означает без срока.
func New(repo Repository, cache Cache, ttl time.Duration, log *slog.Logger) *Store {
	return &Store{
		repo:  repo,
		cache: cache,
		ttl:   ttl,
		log:   log,
	}
}

// UserKey ключ локальной копии пользователя.
func UserKey(userUID string) string {
	return "user:" + userUID
}

// Load возвращает пользователя из PostgreSQL с балансом из локальной копии,
// если она ещё не синхронизирована. При недоступном PostgreSQL отдаёт копию целиком.
// Сам Load в PostgreSQL не пишет, копию синхронизирует следующий Persist.
func (s *Store) Load(ctx context.Context, userUID string) (models.User, error) {
	const op = "userstore.Load"
	log := s.log.With(slog.String("op", op), slog.String("user_uid", userUID))

	var local models.User
	found, err := s.cache.Get(ctx, UserKey(userUID), &local)
	if err != nil {
		log.Warn("failed to read local copy", sl.Err(err))
	}

	stored, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		if found && !errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("storage unavailable, serving local copy", sl.Err(err))
			return local, nil
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	user := *stored
	if found {
		user.Credits = local.Credits
		user.IsAutoDeductEnabled = local.IsAutoDeductEnabled
	}
	return user, nil
}

// Persist сохраняет запись после списания: сначала локальную копию, затем PostgreSQL.
// После успешной записи в PostgreSQL копия удаляется.
func (s *Store) Persist(ctx context.Context, user models.User) error {
	const op = "userstore.Persist"
	log := s.log.With(slog.String("op", op), slog.String("user_uid", user.UUID))

	cacheErr := s.cache.Set(ctx, UserKey(user.UUID), user, s.ttl)
	if cacheErr != nil {
		cacheErr = fmt.Errorf("local copy: %w", cacheErr)
	}
	repoErr := s.repo.SaveUserBalance(ctx, user)
	if repoErr != nil {
		repoErr = fmt.Errorf("storage: %w", repoErr)
	} else if cacheErr == nil {
		s.dropLocal(ctx, log, user.UUID)
	}
	if err := errors.Join(cacheErr, repoErr); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Store) dropLocal(ctx context.Context, log *slog.Logger, userUID string) {
	if err := s.cache.Invalidate(ctx, UserKey(userUID)); err != nil {
		log.Warn("failed to drop synced local copy", sl.Err(err))
	}
}

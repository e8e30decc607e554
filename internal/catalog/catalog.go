// Package catalog ищет метаданные документов главы и строит из них
// варианты документа с ценой.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/magabrotheeeer/chapter-library/internal/lib/sl"
	"github.com/magabrotheeeer/chapter-library/internal/models"
	"github.com/magabrotheeeer/chapter-library/internal/storage"
)

var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "chapter_library",
		Subsystem: "catalog",
		Name:      "cache_hits_total",
		Help:      "Попадания в in-memory кеш метаданных глав.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "chapter_library",
		Subsystem: "catalog",
		Name:      "cache_misses_total",
		Help:      "Промахи in-memory кеша метаданных глав.",
	})
	lookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chapter_library",
		Subsystem: "catalog",
		Name:      "lookups_total",
		Help:      "Откуда взяты метаданные главы: storage, local_copy, missing.",
	}, []string{"source"})
)

// Repository основное хранилище метаданных.
type Repository interface {
	GetChapterContent(ctx context.Context, key string) (*models.ChapterContent, error)
}

// LocalCache локальная копия метаданных на случай недоступности хранилища.
type LocalCache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// Service источник метаданных глав.
type Service struct {
	lru   *expirable.LRU[string, models.ChapterContent]
	repo  Repository
	local LocalCache
	log   *slog.Logger
}

// New создает Service с LRU-кешем на size записей и временем жизни ttl.
func New(repo Repository, local LocalCache, size int, ttl time.Duration, log *slog.Logger) *Service {
	if size <= 0 {
		size = 1024
	}
	return &Service{
		lru:   expirable.NewLRU[string, models.ChapterContent](size, nil, ttl),
		repo:  repo,
		local: local,
		log:   log,
	}
}

// Get возвращает метаданные главы. Порядок: in-memory кеш, PostgreSQL,
// локальная копия в redis. Если главы нет нигде, возвращаются пустые
// метаданные: ни один вариант не опубликован.
func (s *Service) Get(ctx context.Context, key ChapterKey) models.ChapterContent {
	const op = "catalog.Get"
	k := key.String()
	log := s.log.With(slog.String("op", op), slog.String("key", k))

	if content, ok := s.lru.Get(k); ok {
		cacheHitsTotal.Inc()
		return content
	}
	cacheMissesTotal.Inc()

	stored, err := s.repo.GetChapterContent(ctx, k)
	switch {
	case err == nil:
		lookupsTotal.WithLabelValues("storage").Inc()
		s.lru.Add(k, *stored)
		if err := s.local.Set(ctx, k, stored, 0); err != nil {
			log.Warn("failed to refresh local copy", sl.Err(err))
		}
		return *stored
	case errors.Is(err, storage.ErrContentNotFound):
		log.Debug("chapter content not found in storage")
	default:
		log.Warn("failed to read chapter content, trying local copy", sl.Err(err))
	}

	var local models.ChapterContent
	found, err := s.local.Get(ctx, k, &local)
	if err != nil {
		log.Warn("failed to read local copy", sl.Err(err))
	}
	if found {
		lookupsTotal.WithLabelValues("local_copy").Inc()
		return local
	}

	lookupsTotal.WithLabelValues("missing").Inc()
	return models.ChapterContent{}
}

// Invalidate сбрасывает in-memory запись главы.
func (s *Service) Invalidate(key ChapterKey) {
	s.lru.Remove(key.String())
}

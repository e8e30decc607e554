// Package ledger списывает кредиты пользователя без ухода баланса в минус.
//
// Charge работает по принципу copy-on-write: исходная запись пользователя
// не меняется, при успехе возвращается новая. Ledger дополнительно передаёт
// новую запись на сохранение ровно один раз на каждое успешное списание.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/magabrotheeeer/chapter-library/internal/lib/sl"
	"github.com/magabrotheeeer/chapter-library/internal/models"
)

var (
	// ErrInsufficientCredits баланс меньше цены. Запись пользователя не изменена.
	ErrInsufficientCredits = errors.New("insufficient credits")
	// ErrInvalidPrice отрицательная цена.
	ErrInvalidPrice = errors.New("invalid price")
	// ErrPersistence сохранение после списания не удалось. Списание при этом
	// считается совершённым, вызывающий получает обновлённую запись.
	ErrPersistence = errors.New("persist charged user")
)

var (
	chargesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chapter_library",
		Subsystem: "ledger",
		Name:      "charges_total",
		Help:      "Количество попыток списания кредитов по результату.",
	}, []string{"result"})
	creditsDebitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "chapter_library",
		Subsystem: "ledger",
		Name:      "credits_debited_total",
		Help:      "Сумма списанных кредитов.",
	})
)

// InsufficientCreditsError подробности отказа: сколько нужно и сколько есть.
type InsufficientCreditsError struct {
	Required  int
	Available int
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: need %d, have %d", e.Required, e.Available)
}

// Is позволяет сравнивать через errors.Is(err, ErrInsufficientCredits).
func (e *InsufficientCreditsError) Is(target error) bool {
	return target == ErrInsufficientCredits
}

// Charge списывает price кредитов и, если enableAutoPay, включает автосписание.
// Автосписание здесь никогда не выключается.
func Charge(user models.User, price int, enableAutoPay bool) (models.User, error) {
	if price < 0 {
		return user, fmt.Errorf("%w: %d", ErrInvalidPrice, price)
	}
	if user.Credits < price {
		return user, &InsufficientCreditsError{Required: price, Available: user.Credits}
	}

	updated := user
	updated.Credits -= price
	if enableAutoPay {
		updated.IsAutoDeductEnabled = true
	}
	return updated, nil
}

// Persister сохраняет запись пользователя (локальный кеш и удалённое хранилище).
type Persister interface {
	Persist(ctx context.Context, user models.User) error
}

// Ledger списание с последующим сохранением.
type Ledger struct {
	persister Persister
	log       *slog.Logger
}

// New создает Ledger.
func New(persister Persister, log *slog.Logger) *Ledger {
	return &Ledger{
		persister: persister,
		log:       log,
	}
}

// Charge списывает кредиты и сохраняет результат.
//
// При ошибке сохранения списание не откатывается: возвращается обновлённая
// запись и ошибка, обёрнутая в ErrPersistence.
func (l *Ledger) Charge(ctx context.Context, user models.User, price int, enableAutoPay bool) (models.User, error) {
	const op = "ledger.Charge"
	log := l.log.With(
		slog.String("op", op),
		slog.String("user_uid", user.UUID),
		slog.Int("price", price),
	)

	updated, err := Charge(user, price, enableAutoPay)
	if err != nil {
		chargesTotal.WithLabelValues("rejected").Inc()
		log.Info("charge rejected", sl.Err(err))
		return user, err
	}
	chargesTotal.WithLabelValues("charged").Inc()
	creditsDebitedTotal.Add(float64(price))

	if err := l.persister.Persist(ctx, updated); err != nil {
		log.Error("failed to persist charged user", sl.Err(err))
		return updated, fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
	}

	log.Info("credits charged", slog.Int("balance", updated.Credits), slog.Bool("auto_pay", updated.IsAutoDeductEnabled))
	return updated, nil
}

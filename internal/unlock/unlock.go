// Package unlock связывает проверку доступа, подтверждение пользователем
// и списание кредитов в один процесс открытия документа главы.
package unlock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/chapter-library/internal/entitlement"
	"github.com/magabrotheeeer/chapter-library/internal/ledger"
	"github.com/magabrotheeeer/chapter-library/internal/lib/sl"
	"github.com/magabrotheeeer/chapter-library/internal/models"
)

// ErrNoPendingCharge нечего подтверждать: списание не запрошено или уже отменено.
var ErrNoPendingCharge = errors.New("no pending charge")

// UserLoader загружает актуальную запись пользователя.
type UserLoader interface {
	Load(ctx context.Context, userUID string) (models.User, error)
}

// Charger списывает кредиты и сохраняет результат.
type Charger interface {
	Charge(ctx context.Context, user models.User, price int, enableAutoPay bool) (models.User, error)
}

// PendingStore хранит ожидающее подтверждения списание, по одному на пользователя.
type PendingStore interface {
	SavePending(ctx context.Context, userUID string, pending models.PendingCharge) error
	// GetPending возвращает nil без ошибки, если ничего не ожидает подтверждения.
	GetPending(ctx context.Context, userUID string) (*models.PendingCharge, error)
	DeletePending(ctx context.Context, userUID string) error
}

// ReceiptPublisher отправляет уведомление об успешном списании.
type ReceiptPublisher interface {
	PublishReceipt(ctx context.Context, receipt models.UnlockReceipt) error
}

// Service процесс открытия документа.
type Service struct {
	users    UserLoader
	charger  Charger
	pending  PendingStore
	receipts ReceiptPublisher
	now      func() time.Time
	locks    *userLocks
	log      *slog.Logger
}

// Option настраивает Service.
type Option func(*Service)

// WithReceipts включает уведомления о списаниях.
func WithReceipts(p ReceiptPublisher) Option {
	return func(s *Service) { s.receipts = p }
}

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New создает Service.
func New(users UserLoader, charger Charger, pending PendingStore, log *slog.Logger, opts ...Option) *Service {
	s := &Service{
		users:   users,
		charger: charger,
		pending: pending,
		now:     time.Now,
		locks:   newUserLocks(),
		log:     log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open запрашивает доступ к варианту документа.
//
// Grant возвращает StateGranted со ссылкой, Block возвращает StateIdle с причиной,
// списание с подтверждением переводит в StateAwaitingConfirmation. При включённом
// автосписании кредиты списываются сразу; если их не хватает, возвращается
// StateIdle и ошибка ledger.ErrInsufficientCredits.
func (s *Service) Open(ctx context.Context, userUID string, variant models.DocumentVariant, settings models.SystemSettings) (Outcome, error) {
	const op = "unlock.Open"
	log := s.log.With(slog.String("op", op), slog.String("user_uid", userUID), slog.String("variant", string(variant.Kind)))

	release := s.locks.lock(userUID)
	defer release()

	user, err := s.users.Load(ctx, userUID)
	if err != nil {
		return Outcome{}, fmt.Errorf("%s: %w", op, err)
	}

	decision := entitlement.Resolve(user, variant, settings, s.now())
	log.Debug("access resolved", slog.String("decision", decision.Kind.String()), slog.Int("price", decision.Price))

	if decision.Kind != entitlement.RequireConfirmation {
		// Новый запрос заменяет незавершённое подтверждение.
		if err := s.pending.DeletePending(ctx, userUID); err != nil {
			log.Warn("failed to discard stale pending charge", sl.Err(err))
		}
	}

	pending := models.PendingCharge{
		VariantKind: decision.VariantKind,
		Price:       decision.Price,
		Link:        decision.Link,
		AutoPay:     user.IsAutoDeductEnabled,
	}

	switch decision.Kind {
	case entitlement.Grant:
		return Outcome{State: StateGranted, Link: decision.Link, User: user}, nil

	case entitlement.Block:
		return Outcome{State: StateIdle, Reason: decision.Reason, User: user}, nil

	case entitlement.RequireConfirmation:
		if err := s.pending.SavePending(ctx, userUID, pending); err != nil {
			return Outcome{}, fmt.Errorf("%s: %w", op, err)
		}
		return Outcome{
			State:   StateAwaitingConfirmation,
			Pending: &pending,
			Prompt:  newPrompt(user, pending),
			User:    user,
		}, nil

	case entitlement.RequireImmediateCharge:
		out, err := s.charge(ctx, log, user, pending, user.IsAutoDeductEnabled)
		if errors.Is(err, ledger.ErrInsufficientCredits) {
			return Outcome{State: StateIdle, User: user}, err
		}
		return out, err
	}

	return Outcome{}, fmt.Errorf("%s: unexpected decision %s", op, decision.Kind)
}

// Pending возвращает ожидающее подтверждения списание с данными для окна подтверждения.
func (s *Service) Pending(ctx context.Context, userUID string) (Outcome, error) {
	const op = "unlock.Pending"

	release := s.locks.lock(userUID)
	defer release()

	user, err := s.users.Load(ctx, userUID)
	if err != nil {
		return Outcome{}, fmt.Errorf("%s: %w", op, err)
	}
	pending, err := s.pending.GetPending(ctx, userUID)
	if err != nil {
		return Outcome{}, fmt.Errorf("%s: %w", op, err)
	}
	if pending == nil {
		return Outcome{State: StateIdle, User: user}, nil
	}
	return Outcome{
		State:   StateAwaitingConfirmation,
		Pending: pending,
		Prompt:  newPrompt(user, *pending),
		User:    user,
	}, nil
}

// Confirm подтверждает списание. autoEnabled отражает выбор пользователя в окне
// подтверждения: true включает автосписание для следующих документов.
//
// Если кредитов не хватает, процесс остаётся в StateAwaitingConfirmation,
// а Prompt.CanConfirm == false.
func (s *Service) Confirm(ctx context.Context, userUID string, autoEnabled bool) (Outcome, error) {
	const op = "unlock.Confirm"
	log := s.log.With(slog.String("op", op), slog.String("user_uid", userUID))

	release := s.locks.lock(userUID)
	defer release()

	pending, err := s.pending.GetPending(ctx, userUID)
	if err != nil {
		return Outcome{}, fmt.Errorf("%s: %w", op, err)
	}
	if pending == nil {
		return Outcome{State: StateIdle}, ErrNoPendingCharge
	}

	user, err := s.users.Load(ctx, userUID)
	if err != nil {
		return Outcome{}, fmt.Errorf("%s: %w", op, err)
	}

	out, err := s.charge(ctx, log, user, *pending, autoEnabled)
	if err != nil && !errors.Is(err, ledger.ErrPersistence) {
		return Outcome{
			State:   StateAwaitingConfirmation,
			Pending: pending,
			Prompt:  newPrompt(user, *pending),
			User:    user,
		}, err
	}

	if delErr := s.pending.DeletePending(ctx, userUID); delErr != nil {
		log.Warn("failed to delete pending charge", sl.Err(delErr))
	}
	return out, err
}

// Cancel отменяет ожидающее списание. Кредиты не меняются.
func (s *Service) Cancel(ctx context.Context, userUID string) (Outcome, error) {
	const op = "unlock.Cancel"

	release := s.locks.lock(userUID)
	defer release()

	if err := s.pending.DeletePending(ctx, userUID); err != nil {
		return Outcome{}, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("pending charge cancelled", slog.String("op", op), slog.String("user_uid", userUID))
	return Outcome{State: StateCancelled}, nil
}

// charge выполняет переход Charging → Granted. Ошибка сохранения не отменяет
// доступ: возвращается StateGranted вместе с ошибкой ledger.ErrPersistence.
func (s *Service) charge(ctx context.Context, log *slog.Logger, user models.User, pending models.PendingCharge, autoEnabled bool) (Outcome, error) {
	log.Debug("charging", slog.String("state", StateCharging.String()), slog.Int("price", pending.Price))

	updated, err := s.charger.Charge(ctx, user, pending.Price, autoEnabled)
	if err != nil && !errors.Is(err, ledger.ErrPersistence) {
		return Outcome{}, err
	}

	s.publishReceipt(ctx, log, updated, pending)
	return Outcome{State: StateGranted, Link: pending.Link, User: updated}, err
}

func (s *Service) publishReceipt(ctx context.Context, log *slog.Logger, user models.User, pending models.PendingCharge) {
	if s.receipts == nil || pending.Price == 0 {
		return
	}
	receipt := models.UnlockReceipt{
		UserUID:     user.UUID,
		Email:       user.Email,
		Username:    user.Username,
		VariantKind: pending.VariantKind,
		Price:       pending.Price,
		Balance:     user.Credits,
		ChargedAt:   s.now(),
	}
	if err := s.receipts.PublishReceipt(ctx, receipt); err != nil {
		log.Warn("failed to publish receipt", sl.Err(err))
	}
}

// Package unlock реализует HTTP-обработчики процесса открытия документа главы:
// запрос доступа, подтверждение списания, отмену и просмотр ожидающего списания.
//
// Исходы процесса отдаются с кодом 200, кроме нехватки кредитов (402)
// и подтверждения без ожидающего списания (404).
package unlock

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/chapter-library/internal/catalog"
	"github.com/magabrotheeeer/chapter-library/internal/http/middlewarectx"
	"github.com/magabrotheeeer/chapter-library/internal/http/response"
	"github.com/magabrotheeeer/chapter-library/internal/ledger"
	"github.com/magabrotheeeer/chapter-library/internal/lib/sl"
	"github.com/magabrotheeeer/chapter-library/internal/models"
	"github.com/magabrotheeeer/chapter-library/internal/storage"
	flow "github.com/magabrotheeeer/chapter-library/internal/unlock"
)

// Результаты, которые видит клиент.
const (
	ResultGranted              = "granted"
	ResultBlocked              = "blocked"
	ResultAwaitingConfirmation = "awaiting_confirmation"
	ResultIdle                 = "idle"
	ResultCancelled            = "cancelled"
)

// Service процесс открытия документа.
type Service interface {
	Open(ctx context.Context, userUID string, variant models.DocumentVariant, settings models.SystemSettings) (flow.Outcome, error)
	Pending(ctx context.Context, userUID string) (flow.Outcome, error)
	Confirm(ctx context.Context, userUID string, autoEnabled bool) (flow.Outcome, error)
	Cancel(ctx context.Context, userUID string) (flow.Outcome, error)
}

// Catalog метаданные документов глав.
type Catalog interface {
	Get(ctx context.Context, key catalog.ChapterKey) models.ChapterContent
}

// Settings глобальные настройки цен.
type Settings interface {
	Get(ctx context.Context) models.SystemSettings
}

// Handler обработчики /unlock.
type Handler struct {
	log      *slog.Logger
	service  Service
	catalog  Catalog
	settings Settings
	validate *validator.Validate
}

// New создает Handler.
func New(log *slog.Logger, service Service, catalog Catalog, settings Settings) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		catalog:  catalog,
		settings: settings,
		validate: validator.New(),
	}
}

// Result тело успешного ответа.
type Result struct {
	Result  string                `json:"result"`
	Link    string                `json:"link,omitempty"`
	Reason  string                `json:"reason,omitempty"`
	Pending *models.PendingCharge `json:"pending,omitempty"`
	Prompt  *flow.Prompt          `json:"prompt,omitempty"`
	Credits *int                  `json:"credits,omitempty"`
}

// InsufficientCredits тело ответа 402.
type InsufficientCredits struct {
	Required  int          `json:"required"`
	Available int          `json:"available"`
	Prompt    *flow.Prompt `json:"prompt,omitempty"`
}

func newResult(out flow.Outcome) Result {
	res := Result{
		Link:    out.Link,
		Reason:  out.Reason,
		Pending: out.Pending,
		Prompt:  out.Prompt,
	}
	if out.User.UUID != "" {
		credits := out.User.Credits
		res.Credits = &credits
	}

	switch out.State {
	case flow.StateGranted:
		res.Result = ResultGranted
	case flow.StateAwaitingConfirmation:
		res.Result = ResultAwaitingConfirmation
	case flow.StateCancelled:
		res.Result = ResultCancelled
	default:
		if out.Reason != "" {
			res.Result = ResultBlocked
		} else {
			res.Result = ResultIdle
		}
	}
	return res
}

// withUser достаёт uid из контекста и логгер запроса. При отсутствии uid
// сам отвечает 401.
func (h *Handler) withUser(w http.ResponseWriter, r *http.Request, op string) (string, *slog.Logger, bool) {
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := middlewarectx.UserUIDFromContext(r.Context())
	if !ok {
		log.Error("user identification missing")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("user identification missing"))
		return "", nil, false
	}
	return userUID, log.With(slog.String("user_uid", userUID)), true
}

// renderOutcome переводит исход процесса и ошибку в HTTP-ответ.
func renderOutcome(w http.ResponseWriter, r *http.Request, log *slog.Logger, out flow.Outcome, err error) {
	var insufficient *ledger.InsufficientCreditsError

	switch {
	case err == nil:
	case errors.Is(err, ledger.ErrPersistence):
		// доступ уже выдан, расхождение с хранилищем только логируем
		log.Error("charged user was not persisted", sl.Err(err))
	case errors.As(err, &insufficient):
		log.Info("insufficient credits", slog.Int("required", insufficient.Required), slog.Int("available", insufficient.Available))
		render.Status(r, http.StatusPaymentRequired)
		render.JSON(w, r, response.ErrorWithData("insufficient credits", InsufficientCredits{
			Required:  insufficient.Required,
			Available: insufficient.Available,
			Prompt:    out.Prompt,
		}))
		return
	case errors.Is(err, flow.ErrNoPendingCharge):
		log.Warn("nothing to confirm")
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("no pending charge"))
		return
	case errors.Is(err, storage.ErrUserNotFound):
		log.Warn("user not found")
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("user not found"))
		return
	default:
		log.Error("unlock failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	res := newResult(out)
	log.Info("unlock step finished", slog.String("result", res.Result))
	render.JSON(w, r, response.StatusOKWithData(res))
}

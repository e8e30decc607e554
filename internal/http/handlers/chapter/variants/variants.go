// Package variants отдаёт список документов главы с действующими ценами
// и признаком публикации. Доступ здесь не проверяется.
package variants

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/chapter-library/internal/catalog"
	"github.com/magabrotheeeer/chapter-library/internal/http/response"
	"github.com/magabrotheeeer/chapter-library/internal/lib/sl"
	"github.com/magabrotheeeer/chapter-library/internal/models"
)

// Catalog метаданные документов глав.
type Catalog interface {
	Get(ctx context.Context, key catalog.ChapterKey) models.ChapterContent
}

// Settings глобальные настройки цен.
type Settings interface {
	Get(ctx context.Context) models.SystemSettings
}

// Handler обрабатывает GET /chapters/variants.
type Handler struct {
	log      *slog.Logger
	catalog  Catalog
	settings Settings
	validate *validator.Validate
}

// New создает Handler.
func New(log *slog.Logger, catalog Catalog, settings Settings) *Handler {
	return &Handler{
		log:      log,
		catalog:  catalog,
		settings: settings,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Документы главы
// @Tags Chapters
// @Produce  json
// @Security BearerAuth
// @Param board query string true "Board"
// @Param class_level query string true "Класс"
// @Param stream query string false "Профиль (только 11 и 12 класс)"
// @Param subject query string true "Предмет"
// @Param chapter_id query string true "Глава"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.ErrorResponse
// @Router /chapters/variants [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.chapter.variants"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	q := r.URL.Query()
	key := catalog.ChapterKey{
		Board:      q.Get("board"),
		ClassLevel: q.Get("class_level"),
		Stream:     q.Get("stream"),
		Subject:    q.Get("subject"),
		ChapterID:  q.Get("chapter_id"),
	}
	if err := h.validate.Struct(key); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	content := h.catalog.Get(r.Context(), key)
	settings := h.settings.Get(r.Context())

	log.Info("chapter variants listed", slog.String("key", key.String()))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"key":      key.String(),
		"variants": catalog.Listings(content, settings),
	}))
}

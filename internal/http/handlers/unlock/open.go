package unlock

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/chapter-library/internal/catalog"
	"github.com/magabrotheeeer/chapter-library/internal/http/response"
	"github.com/magabrotheeeer/chapter-library/internal/lib/sl"
	"github.com/magabrotheeeer/chapter-library/internal/models"
)

// OpenRequest запрос доступа к документу главы.
type OpenRequest struct {
	catalog.ChapterKey
	Variant models.VariantKind `json:"variant" validate:"required,oneof=FREE EXCLUSIVE ULTRA"`
}

// Open godoc
// @Summary Открыть документ главы
// @Description Проверяет доступ. Если нужна оплата, либо списывает кредиты сразу (автосписание), либо создаёт ожидающее подтверждения списание.
// @Tags Unlock
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body OpenRequest true "Глава и вариант документа"
// @Success 200 {object} response.Response "granted, blocked или awaiting_confirmation"
// @Failure 400 {object} response.ErrorResponse
// @Failure 402 {object} response.Response "Недостаточно кредитов"
// @Failure 422 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /unlock [post]
func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	userUID, log, ok := h.withUser(w, r, "handlers.unlock.open")
	if !ok {
		return
	}

	var req OpenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	content := h.catalog.Get(r.Context(), req.ChapterKey)
	variant := catalog.Variant(content, req.Variant)
	log = log.With(slog.String("key", req.ChapterKey.String()), slog.String("variant", string(req.Variant)))

	out, err := h.service.Open(r.Context(), userUID, variant, h.settings.Get(r.Context()))
	renderOutcome(w, r, log, out, err)
}

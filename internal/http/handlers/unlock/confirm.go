package unlock

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/chapter-library/internal/http/response"
	"github.com/magabrotheeeer/chapter-library/internal/lib/sl"
)

// ConfirmRequest выбор пользователя в окне подтверждения.
// Пустое тело равносильно auto_pay=false.
type ConfirmRequest struct {
	AutoPay bool `json:"auto_pay"`
}

// Confirm godoc
// @Summary Подтвердить списание
// @Tags Unlock
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body ConfirmRequest false "Включить автосписание"
// @Success 200 {object} response.Response "granted"
// @Failure 402 {object} response.Response "Недостаточно кредитов"
// @Failure 404 {object} response.ErrorResponse "Нет ожидающего списания"
// @Failure 500 {object} response.ErrorResponse
// @Router /unlock/confirm [post]
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	userUID, log, ok := h.withUser(w, r, "handlers.unlock.confirm")
	if !ok {
		return
	}

	var req ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	out, err := h.service.Confirm(r.Context(), userUID, req.AutoPay)
	renderOutcome(w, r, log, out, err)
}

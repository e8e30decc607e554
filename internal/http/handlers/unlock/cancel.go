package unlock

import "net/http"

// Cancel godoc
// @Summary Отменить ожидающее списание
// @Tags Unlock
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response "cancelled"
// @Failure 500 {object} response.ErrorResponse
// @Router /unlock/cancel [post]
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	userUID, log, ok := h.withUser(w, r, "handlers.unlock.cancel")
	if !ok {
		return
	}

	out, err := h.service.Cancel(r.Context(), userUID)
	renderOutcome(w, r, log, out, err)
}

package unlock

import "net/http"

// Pending godoc
// @Summary Ожидающее подтверждения списание
// @Tags Unlock
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response "awaiting_confirmation или idle"
// @Failure 500 {object} response.ErrorResponse
// @Router /unlock/pending [get]
func (h *Handler) Pending(w http.ResponseWriter, r *http.Request) {
	userUID, log, ok := h.withUser(w, r, "handlers.unlock.pending")
	if !ok {
		return
	}

	out, err := h.service.Pending(r.Context(), userUID)
	renderOutcome(w, r, log, out, err)
}

// Package health отдаёт состояние сервиса для проверок оркестратора.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/chapter-library/internal/http/response"
	"github.com/magabrotheeeer/chapter-library/internal/lib/sl"
)

const checkTimeout = 2 * time.Second

// Check проверка одной зависимости.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

// Handler обрабатывает /health/live и /health/ready.
type Handler struct {
	log    *slog.Logger
	checks []Check
}

// New создает Handler.
func New(log *slog.Logger, checks ...Check) *Handler {
	return &Handler{
		log:    log,
		checks: checks,
	}
}

// Live сервис запущен.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"status": "ok",
	}))
}

// Ready все зависимости доступны.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health.ready"

	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	statuses := make(map[string]string, len(h.checks))
	ready := true
	for _, c := range h.checks {
		if err := c.Probe(ctx); err != nil {
			h.log.Warn("dependency not ready", slog.String("op", op), slog.String("dependency", c.Name), sl.Err(err))
			statuses[c.Name] = "unavailable"
			ready = false
			continue
		}
		statuses[c.Name] = "ok"
	}

	if !ready {
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, response.ErrorWithData("not ready", statuses))
		return
	}
	render.JSON(w, r, response.StatusOKWithData(statuses))
}

package unlock

import (
	"fmt"

	"github.com/magabrotheeeer/chapter-library/internal/models"
)

// State состояние процесса открытия документа.
//
//	Idle → AwaitingConfirmation → Charging → Granted | Cancelled
//
// Granted и Cancelled завершают процесс, после них пользователь снова в Idle.
type State int

const (
	StateIdle State = iota
	StateAwaitingConfirmation
	StateCharging
	StateGranted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingConfirmation:
		return "awaiting_confirmation"
	case StateCharging:
		return "charging"
	case StateGranted:
		return "granted"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// MarshalText нужен, чтобы состояние отдавалось в JSON строкой.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Prompt данные окна подтверждения списания.
type Prompt struct {
	Title          string `json:"title"`
	Cost           int    `json:"cost"`
	Balance        int    `json:"balance"`
	CanConfirm     bool   `json:"can_confirm"`
	AutoPayInitial bool   `json:"auto_pay_initial"`
}

func newPrompt(user models.User, pending models.PendingCharge) *Prompt {
	return &Prompt{
		Title:          fmt.Sprintf("Unlock %s PDF", pending.VariantKind),
		Cost:           pending.Price,
		Balance:        user.Credits,
		CanConfirm:     user.Credits >= pending.Price,
		AutoPayInitial: pending.AutoPay,
	}
}

// Outcome результат шага процесса.
type Outcome struct {
	State   State                 `json:"state"`
	Link    string                `json:"link,omitempty"`
	Reason  string                `json:"reason,omitempty"`
	Pending *models.PendingCharge `json:"pending,omitempty"`
	Prompt  *Prompt               `json:"prompt,omitempty"`
	User    models.User           `json:"user"`
}

package ledger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/chapter-library/internal/models"
)

type MockPersister struct {
	mock.Mock
}

func (m *MockPersister) Persist(ctx context.Context, user models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestCharge(t *testing.T) {
	tests := []struct {
		name          string
		user          models.User
		price         int
		enableAutoPay bool
		wantCredits   int
		wantAutoPay   bool
		wantErr       error
	}{
		{
			name:        "debit within balance",
			user:        models.User{Credits: 10},
			price:       5,
			wantCredits: 5,
		},
		{
			name:        "debit whole balance",
			user:        models.User{Credits: 5},
			price:       5,
			wantCredits: 0,
		},
		{
			name:          "enable auto-pay",
			user:          models.User{Credits: 10},
			price:         4,
			enableAutoPay: true,
			wantCredits:   6,
			wantAutoPay:   true,
		},
		{
			name:        "auto-pay stays enabled",
			user:        models.User{Credits: 10, IsAutoDeductEnabled: true},
			price:       4,
			wantCredits: 6,
			wantAutoPay: true,
		},
		{
			name:        "zero price",
			user:        models.User{Credits: 0},
			price:       0,
			wantCredits: 0,
		},
		{
			name:          "scenario C: insufficient credits",
			user:          models.User{Credits: 3, IsAutoDeductEnabled: true},
			price:         5,
			enableAutoPay: true,
			wantCredits:   3,
			wantAutoPay:   true,
			wantErr:       ErrInsufficientCredits,
		},
		{
			name:          "insufficient credits does not enable auto-pay",
			user:          models.User{Credits: 1},
			price:         2,
			enableAutoPay: true,
			wantCredits:   1,
			wantErr:       ErrInsufficientCredits,
		},
		{
			name:        "negative price",
			user:        models.User{Credits: 1},
			price:       -1,
			wantCredits: 1,
			wantErr:     ErrInvalidPrice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := tt.user

			got, err := Charge(tt.user, tt.price, tt.enableAutoPay)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantCredits, got.Credits)
			assert.Equal(t, tt.wantAutoPay, got.IsAutoDeductEnabled)
			assert.Equal(t, original, tt.user, "input record must not change")
		})
	}
}

func TestCharge_InsufficientCreditsDetails(t *testing.T) {
	_, err := Charge(models.User{Credits: 3}, 5, false)

	var insufficient *InsufficientCreditsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 5, insufficient.Required)
	assert.Equal(t, 3, insufficient.Available)
	assert.Equal(t, "insufficient credits: need 5, have 3", err.Error())
}

func TestLedger_Charge(t *testing.T) {
	user := models.User{UUID: "user123", Credits: 10}

	tests := []struct {
		name          string
		user          models.User
		price         int
		enableAutoPay bool
		setupMocks    func(*MockPersister)
		wantCredits   int
		wantAutoPay   bool
		wantErr       error
	}{
		{
			name:  "scenario B: charge and persist once",
			user:  models.User{UUID: "user123", Credits: 10, IsAutoDeductEnabled: true},
			price: 5,
			setupMocks: func(p *MockPersister) {
				p.On("Persist", mock.Anything, models.User{UUID: "user123", Credits: 5, IsAutoDeductEnabled: true}).
					Return(nil).Once()
			},
			wantCredits: 5,
			wantAutoPay: true,
		},
		{
			name:          "enable auto-pay is persisted",
			user:          user,
			price:         3,
			enableAutoPay: true,
			setupMocks: func(p *MockPersister) {
				p.On("Persist", mock.Anything, models.User{UUID: "user123", Credits: 7, IsAutoDeductEnabled: true}).
					Return(nil).Once()
			},
			wantCredits: 7,
			wantAutoPay: true,
		},
		{
			name:        "insufficient credits skips persistence",
			user:        models.User{UUID: "user123", Credits: 3},
			price:       5,
			setupMocks:  func(_ *MockPersister) {},
			wantCredits: 3,
			wantErr:     ErrInsufficientCredits,
		},
		{
			name:  "persistence failure keeps the debit",
			user:  user,
			price: 4,
			setupMocks: func(p *MockPersister) {
				p.On("Persist", mock.Anything, mock.AnythingOfType("models.User")).
					Return(errors.New("redis down")).Once()
			},
			wantCredits: 6,
			wantErr:     ErrPersistence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			persister := new(MockPersister)
			tt.setupMocks(persister)
			l := New(persister, newNoopLogger())

			got, err := l.Charge(context.Background(), tt.user, tt.price, tt.enableAutoPay)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantCredits, got.Credits)
			assert.Equal(t, tt.wantAutoPay, got.IsAutoDeductEnabled)

			persister.AssertExpectations(t)
		})
	}
}

func TestMetricsNamespace(t *testing.T) {
	assert.Contains(t, chargesTotal.WithLabelValues("charged").Desc().String(), `fqName: "chapter_library_ledger_charges_total"`)
	assert.Contains(t, creditsDebitedTotal.Desc().String(), `fqName: "chapter_library_ledger_credits_debited_total"`)
}

package me

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/chapter-library/internal/http/middlewarectx"
	"github.com/magabrotheeeer/chapter-library/internal/models"
	"github.com/magabrotheeeer/chapter-library/internal/storage"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Load(ctx context.Context, userUID string) (models.User, error) {
	args := m.Called(ctx, userUID)
	return args.Get(0).(models.User), args.Error(1)
}

func TestMeHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	end := now.Add(48 * time.Hour)

	tests := []struct {
		name           string
		userUID        string
		setupMock      func(*MockService)
		expectedStatus int
		check          func(t *testing.T, body map[string]any)
	}{
		{
			name:    "subscribed user",
			userUID: "uid-1",
			setupMock: func(m *MockService) {
				m.On("Load", mock.Anything, "uid-1").Return(models.User{
					UUID: "uid-1", Username: "reader", Role: models.RoleRegular, Credits: 7,
					IsPremium: true, SubscriptionEndDate: &end, SubscriptionLevel: models.SubscriptionUltra,
				}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				data := body["data"].(map[string]any)
				assert.Equal(t, true, data["subscription_active"])
				user := data["user"].(map[string]any)
				assert.Equal(t, float64(7), user["credits"])
				assert.Equal(t, "ULTRA", user["subscriptionLevel"])
				assert.NotContains(t, user, "password_hash")
			},
		},
		{
			name:           "no user in context",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:    "user not found",
			userUID: "uid-2",
			setupMock: func(m *MockService) {
				m.On("Load", mock.Anything, "uid-2").Return(models.User{}, storage.ErrUserNotFound).Once()
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:    "storage error",
			userUID: "uid-3",
			setupMock: func(m *MockService) {
				m.On("Load", mock.Anything, "uid-3").Return(models.User{}, errors.New("redis down")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)
			h := New(logger, svc)
			h.now = func() time.Time { return now }

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.userUID != "" {
				req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserUID, tt.userUID))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			if tt.check != nil {
				tt.check(t, body)
			}
			svc.AssertExpectations(t)
		})
	}
}

package entitlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/chapter-library/internal/models"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func exclusive(price *int, link string) models.DocumentVariant {
	return models.DocumentVariant{Kind: models.VariantExclusive, Price: price, Link: link}
}

func TestEffectivePrice(t *testing.T) {
	tests := []struct {
		name     string
		kind     models.VariantKind
		explicit *int
		settings models.SystemSettings
		want     int
	}{
		{
			name:     "free ignores explicit price",
			kind:     models.VariantFree,
			explicit: intPtr(40),
			settings: models.SystemSettings{DefaultPdfCost: intPtr(9)},
			want:     0,
		},
		{
			name:     "explicit price wins",
			kind:     models.VariantExclusive,
			explicit: intPtr(12),
			settings: models.SystemSettings{DefaultPdfCost: intPtr(9)},
			want:     12,
		},
		{
			name:     "explicit zero is kept",
			kind:     models.VariantExclusive,
			explicit: intPtr(0),
			settings: models.SystemSettings{DefaultPdfCost: intPtr(9)},
			want:     0,
		},
		{
			name:     "settings default",
			kind:     models.VariantExclusive,
			settings: models.SystemSettings{DefaultPdfCost: intPtr(9)},
			want:     9,
		},
		{
			name: "hard-coded fallback",
			kind: models.VariantExclusive,
			want: FallbackPdfCost,
		},
		{
			name: "retired ultra variant priced like exclusive",
			kind: models.VariantUltra,
			want: FallbackPdfCost,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EffectivePrice(tt.kind, tt.explicit, tt.settings))
		})
	}
}

func TestResolve(t *testing.T) {
	regular := models.User{Role: models.RoleRegular, Credits: 10}
	autoPay := regular
	autoPay.IsAutoDeductEnabled = true

	ultra := regular
	ultra.IsPremium = true
	ultra.SubscriptionLevel = models.SubscriptionUltra
	ultra.SubscriptionEndDate = timePtr(now.Add(24 * time.Hour))

	basic := ultra
	basic.SubscriptionLevel = models.SubscriptionBasic

	expiredUltra := ultra
	expiredUltra.SubscriptionEndDate = timePtr(now.Add(-time.Minute))

	endsNow := ultra
	endsNow.SubscriptionEndDate = timePtr(now)

	ultraWithoutFlag := ultra
	ultraWithoutFlag.IsPremium = false

	ultraWithoutDate := ultra
	ultraWithoutDate.SubscriptionEndDate = nil

	admin := models.User{Role: models.RoleAdmin}

	tests := []struct {
		name     string
		user     models.User
		variant  models.DocumentVariant
		settings models.SystemSettings
		want     Decision
	}{
		{
			name:    "scenario A: regular user needs confirmation",
			user:    regular,
			variant: exclusive(intPtr(5), "x"),
			want:    Decision{Kind: RequireConfirmation, VariantKind: models.VariantExclusive, Price: 5, Link: "x"},
		},
		{
			name:    "scenario B: auto-pay charges immediately",
			user:    autoPay,
			variant: exclusive(intPtr(5), "x"),
			want:    Decision{Kind: RequireImmediateCharge, VariantKind: models.VariantExclusive, Price: 5, Link: "x"},
		},
		{
			name:    "scenario D: unpublished variant is blocked",
			user:    regular,
			variant: exclusive(intPtr(5), ""),
			want:    Decision{Kind: Block, VariantKind: models.VariantExclusive, Reason: ReasonNotPublished},
		},
		{
			name:    "unpublished variant is blocked even for admin",
			user:    admin,
			variant: models.DocumentVariant{Kind: models.VariantFree},
			want:    Decision{Kind: Block, VariantKind: models.VariantFree, Reason: ReasonNotPublished},
		},
		{
			name:    "scenario E: ultra subscriber gets priced content",
			user:    ultra,
			variant: exclusive(intPtr(100), "x"),
			want:    Decision{Kind: Grant, VariantKind: models.VariantExclusive, Price: 100, Link: "x"},
		},
		{
			name:    "admin bypasses price",
			user:    admin,
			variant: exclusive(intPtr(100), "x"),
			want:    Decision{Kind: Grant, VariantKind: models.VariantExclusive, Price: 100, Link: "x"},
		},
		{
			name:    "free variant granted",
			user:    regular,
			variant: models.DocumentVariant{Kind: models.VariantFree, Link: "f", Price: intPtr(7)},
			want:    Decision{Kind: Grant, VariantKind: models.VariantFree, Price: 0, Link: "f"},
		},
		{
			name:    "exclusive priced zero is granted",
			user:    autoPay,
			variant: exclusive(intPtr(0), "x"),
			want:    Decision{Kind: Grant, VariantKind: models.VariantExclusive, Price: 0, Link: "x"},
		},
		{
			name:     "zero default price from settings is granted",
			user:     regular,
			variant:  exclusive(nil, "x"),
			settings: models.SystemSettings{DefaultPdfCost: intPtr(0)},
			want:     Decision{Kind: Grant, VariantKind: models.VariantExclusive, Price: 0, Link: "x"},
		},
		{
			name:     "default price from settings is charged",
			user:     regular,
			variant:  exclusive(nil, "x"),
			settings: models.SystemSettings{DefaultPdfCost: intPtr(8)},
			want:     Decision{Kind: RequireConfirmation, VariantKind: models.VariantExclusive, Price: 8, Link: "x"},
		},
		{
			name:    "basic subscriber pays for exclusive",
			user:    basic,
			variant: exclusive(intPtr(5), "x"),
			want:    Decision{Kind: RequireConfirmation, VariantKind: models.VariantExclusive, Price: 5, Link: "x"},
		},
		{
			name:    "basic subscriber pays for retired ultra variant",
			user:    basic,
			variant: models.DocumentVariant{Kind: models.VariantUltra, Link: "u"},
			want:    Decision{Kind: RequireConfirmation, VariantKind: models.VariantUltra, Price: FallbackPdfCost, Link: "u"},
		},
		{
			name:    "expired ultra subscription is ignored",
			user:    expiredUltra,
			variant: exclusive(intPtr(5), "x"),
			want:    Decision{Kind: RequireConfirmation, VariantKind: models.VariantExclusive, Price: 5, Link: "x"},
		},
		{
			name:    "subscription ending exactly now is inactive",
			user:    endsNow,
			variant: exclusive(intPtr(5), "x"),
			want:    Decision{Kind: RequireConfirmation, VariantKind: models.VariantExclusive, Price: 5, Link: "x"},
		},
		{
			name:    "ultra level without premium flag is ignored",
			user:    ultraWithoutFlag,
			variant: exclusive(intPtr(5), "x"),
			want:    Decision{Kind: RequireConfirmation, VariantKind: models.VariantExclusive, Price: 5, Link: "x"},
		},
		{
			name:    "ultra level without end date is ignored",
			user:    ultraWithoutDate,
			variant: exclusive(intPtr(5), "x"),
			want:    Decision{Kind: RequireConfirmation, VariantKind: models.VariantExclusive, Price: 5, Link: "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.user, tt.variant, tt.settings, now)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_AdminAlwaysGranted(t *testing.T) {
	admin := models.User{Role: models.RoleAdmin}
	states := []models.User{
		admin,
		{Role: models.RoleAdmin, Credits: 0, IsAutoDeductEnabled: true},
		{Role: models.RoleAdmin, IsPremium: true, SubscriptionLevel: models.SubscriptionBasic, SubscriptionEndDate: timePtr(now.Add(time.Hour))},
		{Role: models.RoleAdmin, IsPremium: true, SubscriptionLevel: models.SubscriptionUltra, SubscriptionEndDate: timePtr(now.Add(-time.Hour))},
	}
	for _, user := range states {
		for _, price := range []int{0, 1, 5, 1000} {
			got := Resolve(user, exclusive(intPtr(price), "x"), models.SystemSettings{}, now)
			require.Equal(t, Grant, got.Kind, "user %+v price %d", user, price)
		}
	}
}

func TestResolve_UltraGrantsAnyPrice(t *testing.T) {
	user := models.User{
		Role:                models.RoleRegular,
		IsPremium:           true,
		SubscriptionLevel:   models.SubscriptionUltra,
		SubscriptionEndDate: timePtr(now.Add(time.Second)),
	}
	for _, price := range []int{1, 5, 100, 99999} {
		got := Resolve(user, exclusive(intPtr(price), "x"), models.SystemSettings{}, now)
		require.Equal(t, Grant, got.Kind, "price %d", price)
	}
}

func TestResolve_BasicNeverGrantsPriced(t *testing.T) {
	for _, auto := range []bool{false, true} {
		user := models.User{
			Role:                models.RoleRegular,
			IsPremium:           true,
			SubscriptionLevel:   models.SubscriptionBasic,
			SubscriptionEndDate: timePtr(now.Add(30 * 24 * time.Hour)),
			IsAutoDeductEnabled: auto,
		}
		for _, price := range []int{1, 5, 100} {
			got := Resolve(user, exclusive(intPtr(price), "x"), models.SystemSettings{}, now)
			require.NotEqual(t, Grant, got.Kind)
			require.Contains(t, []Kind{RequireConfirmation, RequireImmediateCharge}, got.Kind)
		}
	}
}

func TestResolve_Idempotent(t *testing.T) {
	user := models.User{Role: models.RoleRegular, Credits: 3, IsAutoDeductEnabled: true}
	variant := exclusive(nil, "x")
	settings := models.SystemSettings{DefaultPdfCost: intPtr(4)}

	first := Resolve(user, variant, settings, now)
	second := Resolve(user, variant, settings, now)

	assert.Equal(t, first, second)
	assert.Equal(t, 3, user.Credits)
	assert.True(t, user.IsAutoDeductEnabled)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "grant", Grant.String())
	assert.Equal(t, "require_confirmation", RequireConfirmation.String())
	assert.Equal(t, "require_immediate_charge", RequireImmediateCharge.String())
	assert.Equal(t, "block", Block.String())
	assert.Equal(t, "unknown", Kind(42).String())
}

package pending

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/chapter-library/internal/cache"
	"github.com/magabrotheeeer/chapter-library/internal/config"
	"github.com/magabrotheeeer/chapter-library/internal/models"
)

func setupStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c, err := cache.InitServer(context.Background(), config.RedisConnection{AddressRedis: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return New(c), mr
}

func TestStore_Lifecycle(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()

	got, err := store.GetPending(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)

	charge := models.PendingCharge{
		VariantKind: models.VariantExclusive,
		Price:       5,
		Link:        "https://cdn.example.com/premium.pdf",
		AutoPay:     true,
	}
	require.NoError(t, store.SavePending(ctx, "u1", charge))

	// ожидание подтверждения не истекает
	mr.FastForward(30 * 24 * time.Hour)
	got, err = store.GetPending(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, charge, *got)

	other, err := store.GetPending(ctx, "u2")
	require.NoError(t, err)
	assert.Nil(t, other)

	require.NoError(t, store.DeletePending(ctx, "u1"))
	got, err = store.GetPending(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)

	// удаление отсутствующей записи не ошибка
	require.NoError(t, store.DeletePending(ctx, "u1"))
}

func TestStore_ReplacesPrevious(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.SavePending(ctx, "u1", models.PendingCharge{VariantKind: models.VariantExclusive, Price: 5}))
	require.NoError(t, store.SavePending(ctx, "u1", models.PendingCharge{VariantKind: models.VariantUltra, Price: 9}))

	got, err := store.GetPending(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.VariantUltra, got.VariantKind)
	assert.Equal(t, 9, got.Price)
}

func TestStore_CorruptedRecord(t *testing.T) {
	store, mr := setupStore(t)
	require.NoError(t, mr.Set(Key("u1"), "{"))

	_, err := store.GetPending(context.Background(), "u1")
	assert.Error(t, err)
}

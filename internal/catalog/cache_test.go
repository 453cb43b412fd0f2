package catalog

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedRepository_ReadThrough(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	inner := &fakeRepo{specialties: []Specialty{
		{ID: uuid.New(), Name: "Cardiologia"},
		{ID: uuid.New(), Name: "Pediatria"},
	}}
	cached := NewCachedRepository(inner, rdb, time.Minute, zerolog.Nop())

	first, err := cached.ListSpecialties(context.Background())
	require.NoError(t, err)
	assert.Len(t, first, 2)
	assert.Equal(t, 1, inner.listCalls)

	second, err := cached.ListSpecialties(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.listCalls, "second read must come from cache")

	mr.FastForward(2 * time.Minute)

	_, err = cached.ListSpecialties(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, inner.listCalls, "expired entry must hit the repository again")
}

func TestCachedRepository_CorruptEntryRebuilds(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	require.NoError(t, mr.Set(specialtiesCacheKey, "not-json"))

	inner := &fakeRepo{specialties: []Specialty{{ID: uuid.New(), Name: "Ortopedia"}}}
	cached := NewCachedRepository(inner, rdb, time.Minute, zerolog.Nop())

	out, err := cached.ListSpecialties(context.Background())
	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Equal(t, 1, inner.listCalls)
}

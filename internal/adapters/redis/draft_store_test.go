package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rithish08/fyke-connect-india-sub001/internal/domain/onboarding"
	"github.com/rithish08/fyke-connect-india-sub001/internal/domain/profile"
)

func sampleDraft() onboarding.Draft {
	d := onboarding.NewDraft()
	d.Step = onboarding.StepWage
	d.Category = "construction"
	d.Subcategories = []string{"Mason", "Carpenter"}
	d.Wages = profile.NewWageBook(
		profile.WagePair{Subcategory: "Carpenter", Entry: profile.WageEntry{Amount: 700, Period: profile.PeriodDaily}},
		profile.WagePair{Subcategory: "Mason", Entry: profile.WageEntry{Amount: 500, Period: profile.PeriodDaily}},
	)
	d.Name = "Ravi"
	return d
}

func TestDraftStore_RoundTrip(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewDraftStore(client, DraftStoreOptions{})
	ctx := context.Background()

	d := sampleDraft()
	require.NoError(t, store.Save(ctx, "sess-1", d))

	got, found, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, d.Equal(got), "draft should survive a round trip")
	assert.Equal(t, []string{"Carpenter", "Mason"}, got.Wages.Keys())
}

func TestDraftStore_KeyedBySession(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewDraftStore(client, DraftStoreOptions{})
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sess-a", sampleDraft()))

	_, found, err := store.Load(ctx, "sess-b")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDraftStore_Clear(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewDraftStore(client, DraftStoreOptions{Prefix: "test-draft:"})
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sess-1", sampleDraft()))
	assert.Equal(t, int64(1), client.Exists(ctx, "test-draft:sess-1").Val())

	require.NoError(t, store.Clear(ctx, "sess-1"))
	require.NoError(t, store.Clear(ctx, "sess-1"))

	_, found, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDraftStore_TTL(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewDraftStore(client, DraftStoreOptions{Prefix: "test-draft-ttl:", TTL: time.Hour})
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sess-1", sampleDraft()))
	ttl := client.TTL(ctx, "test-draft-ttl:sess-1").Val()
	assert.Greater(t, ttl, 59*time.Minute)
	assert.LessOrEqual(t, ttl, time.Hour)
}

func TestDraftStore_EmptySessionID(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewDraftStore(client, DraftStoreOptions{})
	ctx := context.Background()

	require.Error(t, store.Save(ctx, "", sampleDraft()))
	_, found, err := store.Load(ctx, "")
	require.NoError(t, err)
	assert.False(t, found)
}

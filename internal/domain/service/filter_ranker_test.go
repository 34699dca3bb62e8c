package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LostFound-App/internal/domain/model"
)

var sanFrancisco = model.GeoPoint{Latitude: 37.7749, Longitude: -122.4194}

func newPost(id, name, category string, lat, lng float64, createdAt time.Time) model.FoundPost {
	return model.FoundPost{
		ID:        id,
		Name:      name,
		Category:  category,
		Status:    model.StatusAvailable,
		Location:  &model.GeoPoint{Latitude: lat, Longitude: lng},
		CreatedAt: createdAt,
	}
}

func TestFilterAndRank_DistanceFilter(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	candidates := []model.FoundPost{
		newPost("far", "Umbrella", "Accessories", 37.7849, -122.4194, now),  // 約1112m
		newPost("near", "Umbrella", "Accessories", 37.7755, -122.4194, now), // 約67m
	}

	ranked := FilterAndRank(candidates, model.SearchQuery{Center: sanFrancisco, RadiusMeters: 1000})

	require.Len(t, ranked.Posts, 1)
	assert.Equal(t, "near", ranked.Posts[0].ID)
	assert.InDelta(t, 66.7, ranked.Posts[0].DistanceFromQuery, 0.5)
	assert.Empty(t, ranked.MalformedIDs)
}

func TestFilterAndRank_SortOrder(t *testing.T) {
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(24 * time.Hour)

	candidates := []model.FoundPost{
		newPost("b-old", "Keys", "Keys", 37.7755, -122.4194, older),
		newPost("c-far", "Keys", "Keys", 37.7780, -122.4194, newer),
		newPost("a-new", "Keys", "Keys", 37.7755, -122.4194, newer),
		newPost("a-old", "Keys", "Keys", 37.7755, -122.4194, older),
	}

	ranked := FilterAndRank(candidates, model.SearchQuery{Center: sanFrancisco, RadiusMeters: 1000})

	ids := make([]string, len(ranked.Posts))
	for i, p := range ranked.Posts {
		ids[i] = p.ID
	}
	// 同じ距離なら新しい投稿が先、作成日時も同じならID順
	assert.Equal(t, []string{"a-new", "a-old", "b-old", "c-far"}, ids)
}

func TestFilterAndRank_NameAndCategory(t *testing.T) {
	now := time.Now()
	candidates := []model.FoundPost{
		newPost("1", "Black Wallet", "Electronics", 37.7750, -122.4194, now),
		newPost("2", "Phone charger", "electronics", 37.7751, -122.4194, now),
		newPost("3", "Wallet chain", "Electronics Accessories", 37.7752, -122.4194, now),
		newPost("4", "Blue scarf", "Clothing", 37.7753, -122.4194, now),
	}

	t.Run("名前は大文字小文字を区別しない部分一致", func(t *testing.T) {
		ranked := FilterAndRank(candidates, model.SearchQuery{Center: sanFrancisco, RadiusMeters: 500, NameSubstring: "wallet"})
		require.Len(t, ranked.Posts, 2)
		assert.Equal(t, "1", ranked.Posts[0].ID)
		assert.Equal(t, "3", ranked.Posts[1].ID)
	})

	t.Run("カテゴリは大文字小文字を区別しない完全一致", func(t *testing.T) {
		ranked := FilterAndRank(candidates, model.SearchQuery{Center: sanFrancisco, RadiusMeters: 500, Category: "Electronics"})
		require.Len(t, ranked.Posts, 2)
		assert.Equal(t, "1", ranked.Posts[0].ID)
		assert.Equal(t, "2", ranked.Posts[1].ID)
	})

	t.Run("小文字フィールドがあればそれを使う", func(t *testing.T) {
		p := newPost("5", "Wallet", "Misc", 37.7750, -122.4194, now)
		p.NameLower = "wallet"
		p.CategoryLower = "misc"
		ranked := FilterAndRank([]model.FoundPost{p}, model.SearchQuery{Center: sanFrancisco, RadiusMeters: 500, NameSubstring: "WALL", Category: "MISC"})
		assert.Len(t, ranked.Posts, 1)
	})

	t.Run("両方の条件", func(t *testing.T) {
		ranked := FilterAndRank(candidates, model.SearchQuery{Center: sanFrancisco, RadiusMeters: 500, NameSubstring: "wallet", Category: "electronics"})
		require.Len(t, ranked.Posts, 1)
		assert.Equal(t, "1", ranked.Posts[0].ID)
	})
}

func TestFilterAndRank_MinCreatedAt(t *testing.T) {
	since := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	candidates := []model.FoundPost{
		newPost("before", "Bag", "Bags", 37.7750, -122.4194, since.Add(-time.Second)),
		newPost("exact", "Bag", "Bags", 37.7750, -122.4194, since),
		newPost("after", "Bag", "Bags", 37.7750, -122.4194, since.Add(time.Hour)),
	}

	ranked := FilterAndRank(candidates, model.SearchQuery{Center: sanFrancisco, RadiusMeters: 500, MinCreatedAt: &since})

	require.Len(t, ranked.Posts, 2)
	assert.Equal(t, "after", ranked.Posts[0].ID)
	assert.Equal(t, "exact", ranked.Posts[1].ID)
}

func TestFilterAndRank_Malformed(t *testing.T) {
	now := time.Now()
	noLocation := newPost("no-location", "Hat", "Clothing", 0, 0, now)
	noLocation.Location = nil
	noID := newPost("", "Hat", "Clothing", 37.7750, -122.4194, now)

	candidates := []model.FoundPost{
		noLocation,
		newPost("ok", "Hat", "Clothing", 37.7750, -122.4194, now),
		noID,
	}

	ranked := FilterAndRank(candidates, model.SearchQuery{Center: sanFrancisco, RadiusMeters: 500})

	require.Len(t, ranked.Posts, 1)
	assert.Equal(t, "ok", ranked.Posts[0].ID)
	assert.Equal(t, []string{"no-location", "(idなし)"}, ranked.MalformedIDs)
}

func TestFilterAndRank_MalformedReportedOnce(t *testing.T) {
	now := time.Now()
	noLocation := newPost("no-location", "Hat", "Clothing", 0, 0, now)
	noLocation.Location = nil
	noID := newPost("", "Hat", "Clothing", 37.7750, -122.4194, now)
	noID.GeoKey = "9q8yykabcd"

	candidates := []model.FoundPost{noLocation, noID, noLocation, noID}

	ranked := FilterAndRank(candidates, model.SearchQuery{Center: sanFrancisco, RadiusMeters: 500})

	assert.Empty(t, ranked.Posts)
	assert.Equal(t, []string{"no-location", "(idなし geohash=9q8yykabcd)"}, ranked.MalformedIDs)
}

func TestFilterAndRank_DoesNotMutateInput(t *testing.T) {
	candidates := []model.FoundPost{
		newPost("x", "Card", "Cards", 37.7760, -122.4194, time.Now()),
	}
	_ = FilterAndRank(candidates, model.SearchQuery{Center: sanFrancisco, RadiusMeters: 500})
	assert.Zero(t, candidates[0].DistanceFromQuery)
}

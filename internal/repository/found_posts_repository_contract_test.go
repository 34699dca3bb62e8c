package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LostFound-App/internal/domain/model"
	"LostFound-App/internal/domain/repository"
)

func samplePost(id, geoKey string, lat, lng float64) *model.FoundPost {
	return &model.FoundPost{
		ID:            id,
		Name:          "Black Wallet",
		NameLower:     "black wallet",
		Category:      "Wallets",
		CategoryLower: "wallets",
		Description:   "駅前のベンチで拾いました",
		Photos:        []string{"https://example.com/a.jpg"},
		CreatorID:     "user-1",
		Status:        model.StatusAvailable,
		Location:      &model.GeoPoint{Latitude: lat, Longitude: lng},
		GeoKey:        geoKey,
		CreatedAt:     time.Date(2024, 5, 1, 12, 30, 15, 123_000_000, time.UTC),
	}
}

// testFoundPostsRepository すべてのストア実装で共通の振る舞いを確認する
func testFoundPostsRepository(t *testing.T, repo repository.FoundPostsRepository) {
	ctx := context.Background()

	posts := []*model.FoundPost{
		samplePost("p3", "9q8yykzzzz", 37.7749, -122.4194),
		samplePost("p1", "9q8yy00000", 37.7700, -122.4300),
		samplePost("p2", "9q8yyk8ytp", 37.7749, -122.4194),
		samplePost("p4", "9q8yz00000", 37.7800, -122.4000),
		samplePost("p5", "dr5reg0000", 40.7128, -74.0060),
	}
	base := posts[0].CreatedAt
	posts[1].CreatedAt = base.Add(2 * time.Hour)
	posts[2].CreatedAt = base.Add(2 * time.Hour)
	posts[3].CreatedAt = base.Add(time.Hour)
	posts[4].CreatedAt = base.Add(3 * time.Hour)
	posts[4].CreatorID = "user-2"
	for _, p := range posts {
		require.NoError(t, repo.Create(ctx, p))
	}

	t.Run("レンジは両端を含みGeoKey順", func(t *testing.T) {
		got, err := repo.RangeQuery(ctx, model.BoundingBoxRange{StartKey: "9q8yy00000", EndKey: "9q8yyk~"})
		require.NoError(t, err)
		ids := make([]string, len(got))
		for i, p := range got {
			ids[i] = p.ID
		}
		assert.Equal(t, []string{"p1", "p2", "p3"}, ids)
	})

	t.Run("終端の~は接頭辞のすべての子孫を含む", func(t *testing.T) {
		got, err := repo.RangeQuery(ctx, model.BoundingBoxRange{StartKey: "9q8", EndKey: "9q8~"})
		require.NoError(t, err)
		assert.Len(t, got, 4)
	})

	t.Run("該当なし", func(t *testing.T) {
		got, err := repo.RangeQuery(ctx, model.BoundingBoxRange{StartKey: "gcp", EndKey: "gcp~"})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("投稿者の投稿を新しい順に取得", func(t *testing.T) {
		ids := func(got []model.FoundPost) []string {
			out := make([]string, len(got))
			for i, p := range got {
				out[i] = p.ID
			}
			return out
		}

		got, err := repo.ListByCreator(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, []string{"p1", "p2", "p4", "p3"}, ids(got))

		got, err = repo.ListByCreator(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"p5", "p1", "p2", "p4", "p3"}, ids(got))

		got, err = repo.ListByCreator(ctx, "nobody")
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("IDで取得", func(t *testing.T) {
		got, err := repo.GetByID(ctx, "p2")
		require.NoError(t, err)
		assert.Equal(t, "Black Wallet", got.Name)
		assert.Equal(t, "wallets", got.CategoryLower)
		assert.Equal(t, "9q8yyk8ytp", got.GeoKey)
		assert.Equal(t, []string{"https://example.com/a.jpg"}, got.Photos)
		require.NotNil(t, got.Location)
		assert.InDelta(t, 37.7749, got.Location.Latitude, 1e-9)
		assert.InDelta(t, -122.4194, got.Location.Longitude, 1e-9)
		assert.True(t, posts[2].CreatedAt.Equal(got.CreatedAt), "created_at %v", got.CreatedAt)
	})

	t.Run("存在しないID", func(t *testing.T) {
		_, err := repo.GetByID(ctx, "missing")
		assert.ErrorIs(t, err, model.ErrPostNotFound)
	})

	t.Run("ID重複", func(t *testing.T) {
		assert.Error(t, repo.Create(ctx, samplePost("p1", "9q8yy00000", 37.77, -122.43)))
	})
}

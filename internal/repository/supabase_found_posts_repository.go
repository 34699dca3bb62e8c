package repository

import (
	"context"
	"fmt"

	"github.com/supabase-community/postgrest-go"

	"LostFound-App/internal/domain/model"
	"LostFound-App/internal/domain/repository"
	"LostFound-App/internal/infrastructure/database"
)

const foundPostsTable = "found_posts"

// SupabaseFoundPostsRepository PostgREST 経由で found_posts テーブルを読み書きする
//
// テーブル定義（location は GeoJSON を入れる jsonb）:
//
//	create table found_posts (
//	  id text primary key, name text, name_lower text, category text, category_lower text,
//	  description text, additional_info text, photos text[], creator_id text, status text,
//	  location jsonb, geohash text collate "C" not null, created_at timestamptz not null
//	);
//	create index on found_posts (geohash);
type SupabaseFoundPostsRepository struct {
	client *database.SupabaseClient
}

// NewSupabaseFoundPostsRepository 新しいSupabaseFoundPostsRepositoryインスタンスを作成
func NewSupabaseFoundPostsRepository(client *database.SupabaseClient) repository.FoundPostsRepository {
	return &SupabaseFoundPostsRepository{
		client: client,
	}
}

func (r *SupabaseFoundPostsRepository) RangeQuery(ctx context.Context, br model.BoundingBoxRange) ([]model.FoundPost, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 同じ列に Gte と Lte を続けて指定すると後者で上書きされるため and で渡す
	bounds := fmt.Sprintf("geohash.gte.%s,geohash.lte.%s", br.StartKey, br.EndKey)

	var rows []FoundPostDB
	_, err := r.client.GetClient().From(foundPostsTable).
		Select("*", "", false).
		And(bounds, "").
		Order("geohash", &postgrest.OrderOpts{Ascending: true}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("レンジクエリの実行に失敗 [%s, %s]: %w", br.StartKey, br.EndKey, err)
	}

	posts := make([]model.FoundPost, len(rows))
	for i := range rows {
		posts[i] = rows[i].ToFoundPost()
	}
	return posts, nil
}

func (r *SupabaseFoundPostsRepository) Create(ctx context.Context, post *model.FoundPost) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	row := FoundPostToDB(post)
	_, _, err := r.client.GetClient().From(foundPostsTable).Insert(row, false, "", "minimal", "").Execute()
	if err != nil {
		return fmt.Errorf("投稿の保存に失敗: %w", err)
	}
	return nil
}

func (r *SupabaseFoundPostsRepository) GetByID(ctx context.Context, id string) (*model.FoundPost, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []FoundPostDB
	_, err := r.client.GetClient().From(foundPostsTable).
		Select("*", "", false).
		Eq("id", id).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("投稿の取得に失敗: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", model.ErrPostNotFound, id)
	}

	post := rows[0].ToFoundPost()
	return &post, nil
}

func (r *SupabaseFoundPostsRepository) ListByCreator(ctx context.Context, creatorID string) ([]model.FoundPost, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query := r.client.GetClient().From(foundPostsTable).Select("*", "", false)
	if creatorID != "" {
		query = query.Eq("creator_id", creatorID)
	}

	var rows []FoundPostDB
	_, err := query.
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Order("id", &postgrest.OrderOpts{Ascending: true}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("投稿一覧の取得に失敗: %w", err)
	}

	posts := make([]model.FoundPost, len(rows))
	for i := range rows {
		posts[i] = rows[i].ToFoundPost()
	}
	return posts, nil
}

// HealthCheck found_posts テーブルに1行だけ問い合わせて疎通を確認する
func (r *SupabaseFoundPostsRepository) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, _, err := r.client.GetClient().From(foundPostsTable).
		Select("id", "", false).
		Limit(1, "").
		Execute()
	if err != nil {
		return fmt.Errorf("Supabaseヘルスチェック失敗: %w", err)
	}
	return nil
}

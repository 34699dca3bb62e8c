package repository

import (
	"context"

	"LostFound-App/internal/domain/model"
)

// FoundPostsRepository 拾得物投稿のストア
type FoundPostsRepository interface {
	// RangeQuery GeoKeyが区間 [StartKey, EndKey] に入る投稿をGeoKeyの昇順で返す
	RangeQuery(ctx context.Context, r model.BoundingBoxRange) ([]model.FoundPost, error)
	Create(ctx context.Context, post *model.FoundPost) error
	// GetByID 存在しない場合は model.ErrPostNotFound を返す
	GetByID(ctx context.Context, id string) (*model.FoundPost, error)
	// ListByCreator 投稿者の投稿を新しい順（同時刻はID順）で返す。creatorIDが空ならすべての投稿
	ListByCreator(ctx context.Context, creatorID string) ([]model.FoundPost, error)
}

// HealthChecker ストアへの接続確認
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"LostFound-App/internal/domain/geo"
	"LostFound-App/internal/domain/model"
	"LostFound-App/internal/domain/repository"
	"LostFound-App/internal/domain/service"
)

type FoundPostUseCase interface {
	// CreatePost 投稿を検証し、GeoKeyを計算して保存する
	CreatePost(ctx context.Context, req *model.CreateFoundPostRequest) (*model.FoundPost, error)

	// GetPost IDで投稿を取得する
	GetPost(ctx context.Context, id string) (*model.FoundPost, error)

	// ListPosts 投稿者の投稿を新しい順に返す。creatorIDが空ならすべての投稿
	ListPosts(ctx context.Context, creatorID string) ([]model.FoundPost, error)

	// SearchPosts 周辺検索。一部のレンジが失敗した場合は結果と *model.PartialSearchFailure を返す
	SearchPosts(ctx context.Context, query model.SearchQuery) (*model.SearchResult, error)
}

// foundPostUseCaseImpl はFoundPostUseCaseの実装
type foundPostUseCaseImpl struct {
	repo     repository.FoundPostsRepository
	geocoder *geo.Geocoder
	searcher service.SearchOrchestrator

	now   func() time.Time
	newID func() string
}

// NewFoundPostUseCase は新しいFoundPostUseCaseインスタンスを作成
func NewFoundPostUseCase(
	repo repository.FoundPostsRepository,
	geocoder *geo.Geocoder,
	searcher service.SearchOrchestrator,
) FoundPostUseCase {
	return &foundPostUseCaseImpl{
		repo:     repo,
		geocoder: geocoder,
		searcher: searcher,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

func (u *foundPostUseCaseImpl) CreatePost(ctx context.Context, req *model.CreateFoundPostRequest) (*model.FoundPost, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// GeoKeyは作成時に一度だけ計算し、以後は位置と一緒に保存されたものを使う
	geoKey, err := u.geocoder.Encode(*req.Location)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	category := strings.TrimSpace(req.Category)
	location := *req.Location
	creatorID := strings.TrimSpace(req.CreatorID)
	if creatorID == "" {
		creatorID = model.UnknownCreatorID
	}
	post := &model.FoundPost{
		ID:             u.newID(),
		Name:           name,
		NameLower:      strings.ToLower(name),
		Category:       category,
		CategoryLower:  strings.ToLower(category),
		Description:    strings.TrimSpace(req.Description),
		AdditionalInfo: strings.TrimSpace(req.AdditionalInfo),
		Photos:         req.Photos,
		CreatorID:      creatorID,
		Status:         model.StatusAvailable,
		Location:       &location,
		GeoKey:         geoKey,
		CreatedAt:      u.now().UTC(),
	}
	if post.Photos == nil {
		post.Photos = []string{}
	}

	if err := u.repo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("投稿の作成に失敗: %w", err)
	}

	log.Printf("📝 投稿を作成: %s (%s, geohash=%s)", post.ID, post.Name, post.GeoKey)
	return post, nil
}

func (u *foundPostUseCaseImpl) GetPost(ctx context.Context, id string) (*model.FoundPost, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: IDが空です", model.ErrPostNotFound)
	}
	return u.repo.GetByID(ctx, id)
}

func (u *foundPostUseCaseImpl) ListPosts(ctx context.Context, creatorID string) ([]model.FoundPost, error) {
	posts, err := u.repo.ListByCreator(ctx, strings.TrimSpace(creatorID))
	if err != nil {
		return nil, fmt.Errorf("投稿一覧の取得に失敗: %w", err)
	}
	return posts, nil
}

func (u *foundPostUseCaseImpl) SearchPosts(ctx context.Context, query model.SearchQuery) (*model.SearchResult, error) {
	query.NameSubstring = strings.TrimSpace(query.NameSubstring)
	query.Category = strings.TrimSpace(query.Category)
	return u.searcher.Search(ctx, query)
}

package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"LostFound-App/internal/domain/model"
	"LostFound-App/internal/domain/repository"
)

// MemoryFoundPostsRepository GeoKey順のスライスで投稿を保持するインメモリストア
// 開発環境とテストで使用する
type MemoryFoundPostsRepository struct {
	mu    sync.RWMutex
	posts []model.FoundPost // GeoKey, ID の昇順
	byID  map[string]int
}

// NewMemoryFoundPostsRepository 新しいMemoryFoundPostsRepositoryインスタンスを作成
func NewMemoryFoundPostsRepository(seed ...model.FoundPost) repository.FoundPostsRepository {
	r := &MemoryFoundPostsRepository{byID: make(map[string]int)}
	for i := range seed {
		_ = r.insert(seed[i])
	}
	return r
}

func (r *MemoryFoundPostsRepository) RangeQuery(ctx context.Context, br model.BoundingBoxRange) ([]model.FoundPost, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	start := sort.Search(len(r.posts), func(i int) bool {
		return r.posts[i].GeoKey >= br.StartKey
	})
	var result []model.FoundPost
	for i := start; i < len(r.posts) && r.posts[i].GeoKey <= br.EndKey; i++ {
		result = append(result, clonePost(r.posts[i]))
	}
	return result, nil
}

func (r *MemoryFoundPostsRepository) Create(ctx context.Context, post *model.FoundPost) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if post == nil || post.ID == "" {
		return fmt.Errorf("%w: IDが空です", model.ErrInvalidPost)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insert(clonePost(*post))
}

func (r *MemoryFoundPostsRepository) GetByID(ctx context.Context, id string) (*model.FoundPost, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrPostNotFound, id)
	}
	post := clonePost(r.posts[i])
	return &post, nil
}

func (r *MemoryFoundPostsRepository) ListByCreator(ctx context.Context, creatorID string) ([]model.FoundPost, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	result := make([]model.FoundPost, 0)
	for i := range r.posts {
		if creatorID == "" || r.posts[i].CreatorID == creatorID {
			result = append(result, clonePost(r.posts[i]))
		}
	}
	r.mu.RUnlock()

	sortNewestFirst(result)
	return result, nil
}

// sortNewestFirst 作成日時の降順、同時刻はIDの昇順
func sortNewestFirst(posts []model.FoundPost) {
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID < posts[j].ID
	})
}

// insert 呼び出し側でロックを取ること
func (r *MemoryFoundPostsRepository) insert(post model.FoundPost) error {
	if _, exists := r.byID[post.ID]; exists {
		return fmt.Errorf("投稿IDが重複しています: %s", post.ID)
	}

	i := sort.Search(len(r.posts), func(i int) bool {
		p := r.posts[i]
		if p.GeoKey != post.GeoKey {
			return p.GeoKey > post.GeoKey
		}
		return p.ID > post.ID
	})
	r.posts = append(r.posts, model.FoundPost{})
	copy(r.posts[i+1:], r.posts[i:])
	r.posts[i] = post

	for j := i; j < len(r.posts); j++ {
		r.byID[r.posts[j].ID] = j
	}
	return nil
}

func clonePost(p model.FoundPost) model.FoundPost {
	if p.Location != nil {
		loc := *p.Location
		p.Location = &loc
	}
	if p.Photos != nil {
		p.Photos = append([]string(nil), p.Photos...)
	}
	return p
}

package repository

import (
	"context"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"LostFound-App/internal/domain/model"
	"LostFound-App/internal/domain/repository"
)

// モバイルアプリと同じコレクション
const foundPostsCollection = "foundPosts"

// FirestoreFoundPostsRepository Firestoreの foundPosts コレクションを使用したリポジトリ
// geohash フィールドの単一フィールドインデックス（昇順）を前提とする
type FirestoreFoundPostsRepository struct {
	client *firestore.Client
}

// NewFirestoreFoundPostsRepository 新しいFirestoreFoundPostsRepositoryインスタンスを作成
func NewFirestoreFoundPostsRepository(client *firestore.Client) repository.FoundPostsRepository {
	return &FirestoreFoundPostsRepository{
		client: client,
	}
}

// RangeQuery geohash の昇順で [StartKey, EndKey] の投稿を取得する
func (r *FirestoreFoundPostsRepository) RangeQuery(ctx context.Context, br model.BoundingBoxRange) ([]model.FoundPost, error) {
	docs, err := r.client.Collection(foundPostsCollection).
		OrderBy("geohash", firestore.Asc).
		StartAt(br.StartKey).
		EndAt(br.EndKey).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, fmt.Errorf("レンジクエリの実行に失敗 [%s, %s]: %w", br.StartKey, br.EndKey, err)
	}

	posts := make([]model.FoundPost, 0, len(docs))
	for _, doc := range docs {
		var data model.FirestoreFoundPost
		if err := doc.DataTo(&data); err != nil {
			// 変換できないドキュメントは位置なしで返し、検索側で不正レコードとして報告する
			log.Printf("⚠️  投稿 %s のデータ変換に失敗: %v", doc.Ref.ID, err)
			posts = append(posts, model.FoundPost{ID: doc.Ref.ID})
			continue
		}
		posts = append(posts, *data.ToFoundPost(doc.Ref.ID))
	}
	return posts, nil
}

func (r *FirestoreFoundPostsRepository) Create(ctx context.Context, post *model.FoundPost) error {
	_, err := r.client.Collection(foundPostsCollection).Doc(post.ID).Create(ctx, post.ToFirestoreFoundPost())
	if err != nil {
		log.Printf("❌ Failed to save found post %s: %v", post.ID, err)
		return fmt.Errorf("投稿の保存に失敗しました: %w", err)
	}

	log.Printf("✅ Found post saved: %s (%s)", post.ID, post.GeoKey)
	return nil
}

// ListByCreator creatorId で絞り込み、createdAt の降順で返す
// creatorId + createdAt の複合インデックスが必要
func (r *FirestoreFoundPostsRepository) ListByCreator(ctx context.Context, creatorID string) ([]model.FoundPost, error) {
	query := r.client.Collection(foundPostsCollection).Query
	if creatorID != "" {
		query = query.Where("creatorId", "==", creatorID)
	}

	docs, err := query.
		OrderBy("createdAt", firestore.Desc).
		OrderBy(firestore.DocumentID, firestore.Asc).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, fmt.Errorf("投稿一覧の取得に失敗しました: %w", err)
	}

	posts := make([]model.FoundPost, 0, len(docs))
	for _, doc := range docs {
		var data model.FirestoreFoundPost
		if err := doc.DataTo(&data); err != nil {
			log.Printf("⚠️  投稿 %s のデータ変換に失敗: %v", doc.Ref.ID, err)
			continue
		}
		posts = append(posts, *data.ToFoundPost(doc.Ref.ID))
	}
	return posts, nil
}

func (r *FirestoreFoundPostsRepository) GetByID(ctx context.Context, id string) (*model.FoundPost, error) {
	doc, err := r.client.Collection(foundPostsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("%w: %s", model.ErrPostNotFound, id)
		}
		return nil, fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}

	var data model.FirestoreFoundPost
	if err := doc.DataTo(&data); err != nil {
		return nil, fmt.Errorf("データの変換に失敗しました: %w", err)
	}
	return data.ToFoundPost(id), nil
}

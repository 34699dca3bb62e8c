package model

import (
	"time"

	"google.golang.org/genproto/googleapis/type/latlng"
)

// 投稿ステータス
const (
	StatusAvailable = "available"
	StatusClaimed   = "claimed"
)

// UnknownCreatorID 投稿者が指定されなかった場合の creatorId（モバイルアプリと同じ値）
const UnknownCreatorID = "unknown"

// GeoPoint 緯度経度を表す値型
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// FoundPost 拾得物の投稿（検索対象レコード）
type FoundPost struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	NameLower      string    `json:"name_lower"`
	Category       string    `json:"category"`
	CategoryLower  string    `json:"category_lower"`
	Description    string    `json:"description"`
	AdditionalInfo string    `json:"additional_info,omitempty"`
	Photos         []string  `json:"photos"`
	CreatorID      string    `json:"creator_id"`
	Status         string    `json:"status"`
	Location       *GeoPoint `json:"location"` // nilの場合は不正レコード
	GeoKey         string    `json:"geohash"`
	CreatedAt      time.Time `json:"created_at"`

	// 検索時にのみ計算される（保存しない）
	DistanceFromQuery float64 `json:"-"`
}

// IsMalformed 検索に必要なフィールドが欠けているかを判定する
func (p *FoundPost) IsMalformed() bool {
	return p.ID == "" || p.Location == nil
}

// FirestoreFoundPost Firestoreの foundPosts ドキュメント
// フィールド名はモバイルアプリが書き込んでいる形式に合わせている
type FirestoreFoundPost struct {
	Name           string         `firestore:"name"`
	NameLower      string         `firestore:"nameLower"`
	Category       string         `firestore:"category"`
	CategoryLower  string         `firestore:"categoryLower"`
	Description    string         `firestore:"description"`
	AdditionalInfo string         `firestore:"additionalInfo"`
	Photos         []string       `firestore:"photos"`
	CreatorID      string         `firestore:"creatorId"`
	Status         string         `firestore:"status"`
	Location       *latlng.LatLng `firestore:"location"`
	Geohash        string         `firestore:"geohash"`
	CreatedAt      time.Time      `firestore:"createdAt"`
}

// ToFirestoreFoundPost FoundPost を Firestore 保存用に変換
func (p *FoundPost) ToFirestoreFoundPost() *FirestoreFoundPost {
	doc := &FirestoreFoundPost{
		Name:           p.Name,
		NameLower:      p.NameLower,
		Category:       p.Category,
		CategoryLower:  p.CategoryLower,
		Description:    p.Description,
		AdditionalInfo: p.AdditionalInfo,
		Photos:         p.Photos,
		CreatorID:      p.CreatorID,
		Status:         p.Status,
		Geohash:        p.GeoKey,
		CreatedAt:      p.CreatedAt,
	}
	if p.Location != nil {
		doc.Location = &latlng.LatLng{
			Latitude:  p.Location.Latitude,
			Longitude: p.Location.Longitude,
		}
	}
	return doc
}

// ToFoundPost Firestore ドキュメントを FoundPost に変換
func (d *FirestoreFoundPost) ToFoundPost(id string) *FoundPost {
	post := &FoundPost{
		ID:             id,
		Name:           d.Name,
		NameLower:      d.NameLower,
		Category:       d.Category,
		CategoryLower:  d.CategoryLower,
		Description:    d.Description,
		AdditionalInfo: d.AdditionalInfo,
		Photos:         d.Photos,
		CreatorID:      d.CreatorID,
		Status:         d.Status,
		GeoKey:         d.Geohash,
		CreatedAt:      d.CreatedAt,
	}
	if d.Location != nil {
		post.Location = &GeoPoint{
			Latitude:  d.Location.GetLatitude(),
			Longitude: d.Location.GetLongitude(),
		}
	}
	return post
}

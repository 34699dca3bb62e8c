package model

import "time"

// FoundPostResponse APIで返す投稿
// Location は表示用にずらした位置。正確な位置を推測できるGeoKeyは返さない
type FoundPostResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Category       string    `json:"category"`
	Description    string    `json:"description"`
	AdditionalInfo string    `json:"additional_info,omitempty"`
	Photos         []string  `json:"photos"`
	CreatorID      string    `json:"creator_id"`
	Status         string    `json:"status"`
	Location       GeoPoint  `json:"location"`
	CreatedAt      time.Time `json:"created_at"`
	DistanceMeters *float64  `json:"distance_meters,omitempty"`
}

// NewFoundPostResponse 投稿と表示用の位置からレスポンスを作成
func NewFoundPostResponse(post *FoundPost, displayLocation GeoPoint) FoundPostResponse {
	photos := post.Photos
	if photos == nil {
		photos = []string{}
	}
	return FoundPostResponse{
		ID:             post.ID,
		Name:           post.Name,
		Category:       post.Category,
		Description:    post.Description,
		AdditionalInfo: post.AdditionalInfo,
		Photos:         photos,
		CreatorID:      post.CreatorID,
		Status:         post.Status,
		Location:       displayLocation,
		CreatedAt:      post.CreatedAt,
	}
}

// SearchFoundPostsResponse 周辺検索APIのレスポンス
type SearchFoundPostsResponse struct {
	Posts        []FoundPostResponse `json:"posts"`
	Count        int                 `json:"count"`
	Complete     bool                `json:"complete"`
	FailedRanges []BoundingBoxRange  `json:"failed_ranges,omitempty"`
	MalformedIDs []string            `json:"malformed_ids,omitempty"`
}

// ListFoundPostsResponse 投稿一覧APIのレスポンス
type ListFoundPostsResponse struct {
	Posts []FoundPostResponse `json:"posts"`
	Count int                 `json:"count"`
}

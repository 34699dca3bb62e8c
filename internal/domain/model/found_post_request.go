package model

import (
	"fmt"
	"strings"
)

// CreateFoundPostRequest 拾得物投稿の作成リクエスト
type CreateFoundPostRequest struct {
	Name           string    `json:"name" binding:"required"`
	Category       string    `json:"category" binding:"required"`
	Description    string    `json:"description" binding:"required"`
	AdditionalInfo string    `json:"additional_info"`
	Photos         []string  `json:"photos"`
	CreatorID      string    `json:"creator_id"`
	Location       *GeoPoint `json:"location" binding:"required"`
}

// Validate 必須項目のチェック（座標の範囲はGeocoderで検証する）
func (r *CreateFoundPostRequest) Validate() error {
	var missing []string
	if strings.TrimSpace(r.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(r.Category) == "" {
		missing = append(missing, "category")
	}
	if strings.TrimSpace(r.Description) == "" {
		missing = append(missing, "description")
	}
	if r.Location == nil {
		missing = append(missing, "location")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: 必須項目が不足しています (%s)", ErrInvalidPost, strings.Join(missing, ", "))
	}
	return nil
}

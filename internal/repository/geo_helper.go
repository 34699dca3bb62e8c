package repository

import (
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"

	"LostFound-App/internal/domain/model"
)

// GeoJSONPoint jsonb カラムに保存する GeoJSON Point（座標は [経度, 緯度]）
type GeoJSONPoint struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// LocationToGeoJSON model.GeoPoint を GeoJSON Point に変換
func LocationToGeoJSON(location *model.GeoPoint) *GeoJSONPoint {
	if location == nil {
		return nil
	}

	point := orb.Point{location.Longitude, location.Latitude}

	return &GeoJSONPoint{
		Type:        "Point",
		Coordinates: []float64{point.Lon(), point.Lat()},
	}
}

// GeoJSONToLocation GeoJSON Point を model.GeoPoint に変換。形式が不正ならnil
func GeoJSONToLocation(geoPoint *GeoJSONPoint) *model.GeoPoint {
	if geoPoint == nil || geoPoint.Type != "Point" || len(geoPoint.Coordinates) < 2 {
		return nil
	}

	point := orb.Point{geoPoint.Coordinates[0], geoPoint.Coordinates[1]}

	return &model.GeoPoint{
		Latitude:  point.Lat(),
		Longitude: point.Lon(),
	}
}

// LocationToWKT model.GeoPoint を WKT（POINT(経度 緯度)）に変換。PostGISの入力形式と互換
func LocationToWKT(location *model.GeoPoint) string {
	if location == nil {
		return ""
	}
	return wkt.MarshalString(orb.Point{location.Longitude, location.Latitude})
}

// WKTToLocation WKT の POINT を model.GeoPoint に変換
func WKTToLocation(s string) (*model.GeoPoint, error) {
	if s == "" {
		return nil, nil
	}
	point, err := wkt.UnmarshalPoint(s)
	if err != nil {
		return nil, fmt.Errorf("位置情報の解析に失敗: %w", err)
	}
	return &model.GeoPoint{Latitude: point.Lat(), Longitude: point.Lon()}, nil
}

// FoundPostDB Supabase の found_posts テーブルの行
type FoundPostDB struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	NameLower      string        `json:"name_lower"`
	Category       string        `json:"category"`
	CategoryLower  string        `json:"category_lower"`
	Description    string        `json:"description"`
	AdditionalInfo string        `json:"additional_info"`
	Photos         []string      `json:"photos"`
	CreatorID      string        `json:"creator_id"`
	Status         string        `json:"status"`
	Location       *GeoJSONPoint `json:"location"`
	Geohash        string        `json:"geohash"`
	CreatedAt      time.Time     `json:"created_at"`
}

// FoundPostToDB model.FoundPost を DB 保存用に変換
func FoundPostToDB(post *model.FoundPost) *FoundPostDB {
	return &FoundPostDB{
		ID:             post.ID,
		Name:           post.Name,
		NameLower:      post.NameLower,
		Category:       post.Category,
		CategoryLower:  post.CategoryLower,
		Description:    post.Description,
		AdditionalInfo: post.AdditionalInfo,
		Photos:         post.Photos,
		CreatorID:      post.CreatorID,
		Status:         post.Status,
		Location:       LocationToGeoJSON(post.Location),
		Geohash:        post.GeoKey,
		CreatedAt:      post.CreatedAt,
	}
}

// ToFoundPost DB の行を model.FoundPost に変換
func (row *FoundPostDB) ToFoundPost() model.FoundPost {
	return model.FoundPost{
		ID:             row.ID,
		Name:           row.Name,
		NameLower:      row.NameLower,
		Category:       row.Category,
		CategoryLower:  row.CategoryLower,
		Description:    row.Description,
		AdditionalInfo: row.AdditionalInfo,
		Photos:         row.Photos,
		CreatorID:      row.CreatorID,
		Status:         row.Status,
		Location:       GeoJSONToLocation(row.Location),
		GeoKey:         row.Geohash,
		CreatedAt:      row.CreatedAt,
	}
}

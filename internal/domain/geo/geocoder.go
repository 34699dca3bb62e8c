// Package geo は拾得物の位置をインデックス可能なGeoKey（geohash）へ変換し、
// 円形の検索範囲をGeoKeyのレンジクエリに分解する。
//
// GeoKeyはモバイルアプリ（geofire-common）が書き込む標準geohashと同じ符号化で、
// 既存の投稿を再計算なしで検索できる。精度10文字がデフォルト。
package geo

import (
	"fmt"
	"math"

	"github.com/mmcloughlin/geohash"

	"LostFound-App/internal/domain/model"
)

const (
	// DefaultPrecision geofire-common の geohashForLocation と同じ文字数
	DefaultPrecision = 10
	// MaxPrecision 64bit整数に収まる最大文字数
	MaxPrecision = 12

	alphabet = "0123456789bcdefghjkmnpqrstuvwxyz"

	// 緯度90度・経度180度は最後のセルに入れる
	edgeClampDegrees = 1e-9
)

// Geocoder GeoPoint を GeoKey に変換する。状態を持たないので並行に呼び出してよい
type Geocoder struct {
	precision uint
}

// NewGeocoder 指定した文字数でGeoKeyを生成するGeocoderを作成
// 範囲外の値はデフォルトまたは上限に丸める
func NewGeocoder(precision int) *Geocoder {
	if precision <= 0 {
		precision = DefaultPrecision
	}
	if precision > MaxPrecision {
		precision = MaxPrecision
	}
	return &Geocoder{precision: uint(precision)}
}

// Precision GeoKeyの文字数
func (g *Geocoder) Precision() int {
	return int(g.precision)
}

// Encode 座標をGeoKeyに変換する
func (g *Geocoder) Encode(p model.GeoPoint) (string, error) {
	if err := ValidatePoint(p); err != nil {
		return "", err
	}
	lat, lng := clampForEncoding(p)
	return geohash.EncodeWithPrecision(lat, lng, g.precision), nil
}

// Decode GeoKeyが表すセルの中心座標を返す
func (g *Geocoder) Decode(key string) (model.GeoPoint, error) {
	if err := ValidateKey(key); err != nil {
		return model.GeoPoint{}, err
	}
	lat, lng := geohash.BoundingBox(key).Center()
	return model.GeoPoint{Latitude: lat, Longitude: lng}, nil
}

// ValidatePoint 緯度経度の範囲チェック
func ValidatePoint(p model.GeoPoint) error {
	if math.IsNaN(p.Latitude) || math.IsNaN(p.Longitude) ||
		math.IsInf(p.Latitude, 0) || math.IsInf(p.Longitude, 0) {
		return fmt.Errorf("%w: NaNまたは無限大 (%v, %v)", model.ErrInvalidCoordinate, p.Latitude, p.Longitude)
	}
	if p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("%w: 緯度は-90から90の範囲で指定してください (%v)", model.ErrInvalidCoordinate, p.Latitude)
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("%w: 経度は-180から180の範囲で指定してください (%v)", model.ErrInvalidCoordinate, p.Longitude)
	}
	return nil
}

// ValidateKey GeoKeyの文字種と長さをチェック
func ValidateKey(key string) error {
	if len(key) == 0 || len(key) > MaxPrecision {
		return fmt.Errorf("不正なGeoKeyの長さです: %q", key)
	}
	for i := 0; i < len(key); i++ {
		if alphabetIndex(key[i]) < 0 {
			return fmt.Errorf("不正なGeoKeyの文字です: %q", key)
		}
	}
	return nil
}

func alphabetIndex(c byte) int {
	for i := 0; i < len(alphabet); i++ {
		if alphabet[i] == c {
			return i
		}
	}
	return -1
}

// encodeKey セル番号（先頭から chars*5 ビット）を base32 文字列にする
func encodeKey(v uint64, chars uint) string {
	buf := make([]byte, chars)
	for i := int(chars) - 1; i >= 0; i-- {
		buf[i] = alphabet[v&31]
		v >>= 5
	}
	return string(buf)
}

func clampForEncoding(p model.GeoPoint) (lat, lng float64) {
	lat, lng = p.Latitude, p.Longitude
	if lat > 90-edgeClampDegrees {
		lat = 90 - edgeClampDegrees
	}
	if lng > 180-edgeClampDegrees {
		lng = 180 - edgeClampDegrees
	}
	return lat, lng
}

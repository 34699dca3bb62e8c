package geo

import (
	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"

	"LostFound-App/internal/domain/model"
)

// EarthRadiusMeters 距離計算とレンジ計画で共通の地球半径
const EarthRadiusMeters = orb.EarthRadius

// ToPoint GeoPoint を orb.Point（[経度, 緯度]）に変換
func ToPoint(p model.GeoPoint) orb.Point {
	return orb.Point{p.Longitude, p.Latitude}
}

// DistanceMeters 2点間の大圏距離（ハバーサイン）をメートルで返す
func DistanceMeters(a, b model.GeoPoint) float64 {
	return orbgeo.DistanceHaversine(ToPoint(a), ToPoint(b))
}

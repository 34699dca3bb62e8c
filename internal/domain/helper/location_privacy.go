package helper

import (
	"math"
	"math/rand/v2"
	"sync"

	"LostFound-App/internal/domain/model"
)

// DefaultFuzzDegrees 表示位置をずらす最大量（約110m）
const DefaultFuzzDegrees = 0.001

// DistanceStepMeters 表示する距離の丸め単位
// 正確な距離を返すと複数地点からの検索で位置を逆算できてしまう
const DistanceStepMeters = 50.0

// LocationObfuscator 地図やAPIレスポンスに出す位置をランダムにずらす
// 保存されている位置とGeoKeyには触れない（検索は常に正確な位置で行う）
type LocationObfuscator struct {
	maxOffset float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewLocationObfuscator 最大オフセット（度）を指定して作成。0以下ならずらさない
func NewLocationObfuscator(maxOffsetDegrees float64) *LocationObfuscator {
	return NewLocationObfuscatorWithSource(maxOffsetDegrees, rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// NewLocationObfuscatorWithSource 乱数源を指定して作成（テスト用）
func NewLocationObfuscatorWithSource(maxOffsetDegrees float64, src rand.Source) *LocationObfuscator {
	if maxOffsetDegrees < 0 || math.IsNaN(maxOffsetDegrees) {
		maxOffsetDegrees = 0
	}
	return &LocationObfuscator{
		maxOffset: maxOffsetDegrees,
		rng:       rand.New(src),
	}
}

// Obfuscate 緯度・経度それぞれに ±maxOffset の一様乱数を加えた位置を返す
func (o *LocationObfuscator) Obfuscate(p model.GeoPoint) model.GeoPoint {
	if o == nil || o.maxOffset == 0 {
		return p
	}

	o.mu.Lock()
	dLat := (o.rng.Float64()*2 - 1) * o.maxOffset
	dLng := (o.rng.Float64()*2 - 1) * o.maxOffset
	o.mu.Unlock()

	return model.GeoPoint{
		Latitude:  math.Max(-90, math.Min(90, p.Latitude+dLat)),
		Longitude: wrapLongitude(p.Longitude + dLng),
	}
}

// DisplayDistance 表示用の距離。位置をずらしている場合は DistanceStepMeters 単位に丸める
func (o *LocationObfuscator) DisplayDistance(meters float64) float64 {
	if o == nil || o.maxOffset == 0 {
		return meters
	}
	return math.Round(meters/DistanceStepMeters) * DistanceStepMeters
}

func wrapLongitude(lng float64) float64 {
	if lng >= -180 && lng <= 180 {
		return lng
	}
	return math.Mod(math.Mod(lng+180, 360)+360, 360) - 180
}

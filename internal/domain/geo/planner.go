package geo

import (
	"fmt"
	"math"
	"sort"

	"github.com/mmcloughlin/geohash"

	"LostFound-App/internal/domain/model"
)

const (
	// MaxRadiusMeters 地球の半周。これを超える検索半径は受け付けない
	MaxRadiusMeters = math.Pi * EarthRadiusMeters
	// DefaultMaxCells 1回の検索で列挙するセル数の上限（3x3近傍）
	DefaultMaxCells = 9

	// '~' は base32 のどの文字よりも大きい
	rangeTerminator = "~"

	extentPadDegrees     = 1e-9
	reachToleranceMeters = 0.01
)

// Planner 検索円をGeoKeyのレンジ集合に分解する
//
// 返すレンジ集合は円内の全ての点を必ず含む（円外の点を含むことはある）。
// 呼び出し側は必ず実距離で再フィルタすること。
type Planner struct {
	keyPrecision uint
	maxCells     int
}

// NewPlanner 保存されているGeoKeyの文字数とセル数上限を指定してPlannerを作成
func NewPlanner(keyPrecision, maxCells int) *Planner {
	if keyPrecision <= 0 {
		keyPrecision = DefaultPrecision
	}
	if keyPrecision > MaxPrecision {
		keyPrecision = MaxPrecision
	}
	if maxCells <= 0 {
		maxCells = DefaultMaxCells
	}
	return &Planner{
		keyPrecision: uint(keyPrecision),
		maxCells:     maxCells,
	}
}

// Plan 中心と半径（メートル）からレンジクエリの集合を計算する
func (p *Planner) Plan(center model.GeoPoint, radiusMeters float64) ([]model.BoundingBoxRange, error) {
	if err := ValidatePoint(center); err != nil {
		return nil, err
	}
	if math.IsNaN(radiusMeters) || math.IsInf(radiusMeters, 0) || radiusMeters <= 0 {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidRadius, radiusMeters)
	}
	if radiusMeters > MaxRadiusMeters {
		return nil, fmt.Errorf("%w: %.0fm (上限 %.0fm)", model.ErrRadiusTooLarge, radiusMeters, MaxRadiusMeters)
	}

	ext := newDiscExtent(center, radiusMeters)
	bits := p.precisionBits(ext)
	cells := coveringCells(center, radiusMeters, ext, bits)
	return mergeCellRanges(cells, bits), nil
}

// PrecisionBits 検索に使うセルのビット数（テスト・CLI用）
func (p *Planner) PrecisionBits(center model.GeoPoint, radiusMeters float64) uint {
	return p.precisionBits(newDiscExtent(center, radiusMeters))
}

// discExtent 球面上の検索円を囲む緯度帯と経度幅（度）
type discExtent struct {
	minLat, maxLat float64
	latHalf        float64
	west, east     float64 // ±180をまたぐ場合は範囲外の値のまま持つ
	lngHalf        float64
	wholeLng       bool // 極を含む場合は経度全周
}

func newDiscExtent(center model.GeoPoint, radiusMeters float64) discExtent {
	angular := radiusMeters / EarthRadiusMeters
	latHalf := angular*180/math.Pi + extentPadDegrees

	ext := discExtent{
		minLat:  math.Max(-90, center.Latitude-latHalf),
		maxLat:  math.Min(90, center.Latitude+latHalf),
		latHalf: latHalf,
	}
	if center.Latitude+latHalf >= 90 || center.Latitude-latHalf <= -90 {
		ext.wholeLng = true
		return ext
	}

	s := math.Sin(angular) / math.Cos(center.Latitude*math.Pi/180)
	if s >= 1 {
		ext.wholeLng = true
		return ext
	}
	ext.lngHalf = math.Asin(s)*180/math.Pi + extentPadDegrees
	if ext.lngHalf >= 180 {
		ext.wholeLng = true
		return ext
	}
	ext.west = center.Longitude - ext.lngHalf
	ext.east = center.Longitude + ext.lngHalf
	return ext
}

// precisionBits セルが緯度・経度方向ともに半径以上の大きさになる最大のビット数を選ぶ
// （geofire-common の boundingBoxBits と同じ式）。列挙セル数が上限を超える場合はさらに粗くする
func (p *Planner) precisionBits(ext discExtent) uint {
	bits := float64(p.keyPrecision * 5)
	bits = math.Min(bits, 2*math.Floor(math.Log2(180/ext.latHalf)))
	if !ext.wholeLng {
		bits = math.Min(bits, 2*math.Floor(math.Log2(360/ext.lngHalf))-1)
	}
	if bits < 1 {
		bits = 1
	}

	b := uint(bits)
	for b > 1 && cellCount(ext, b) > uint64(p.maxCells) {
		b--
	}
	return b
}

// geohashは経度ビットから交互に並ぶ
func splitBits(bits uint) (lngBits, latBits uint) {
	return (bits + 1) / 2, bits / 2
}

func cellCount(ext discExtent, bits uint) uint64 {
	lngBits, latBits := splitBits(bits)
	_, nx := lngSpan(ext, lngBits)
	yLo, yHi := latSpan(ext, latBits)
	return nx * (yHi - yLo + 1)
}

// lngSpan 経度方向のセル番号（開始, 個数）。±180をまたぐ場合は剰余で折り返す
func lngSpan(ext discExtent, bits uint) (start, count uint64) {
	n := uint64(1) << bits
	if ext.wholeLng {
		return 0, n
	}
	lo := math.Floor((ext.west + 180) / 360 * float64(n))
	hi := math.Floor((ext.east + 180) / 360 * float64(n))
	if hi-lo+1 >= float64(n) {
		return 0, n
	}
	start = uint64(math.Mod(lo, float64(n))+float64(n)) % n
	return start, uint64(hi - lo + 1)
}

func latSpan(ext discExtent, bits uint) (lo, hi uint64) {
	return cellIndex(ext.minLat, 90, 180, bits), cellIndex(ext.maxLat, 90, 180, bits)
}

// cellIndex geohashライブラリと同じ量子化でセル番号を求める
func cellIndex(v, offset, span float64, bits uint) uint64 {
	n := uint64(1) << bits
	f := math.Floor((v + offset) / span * float64(n))
	if f < 0 {
		return 0
	}
	if f >= float64(n) {
		return n - 1
	}
	return uint64(f)
}

// coveringCells 近傍セルを列挙し、検索円に届きうるセルだけを残す
func coveringCells(center model.GeoPoint, radiusMeters float64, ext discExtent, bits uint) []uint64 {
	lngBits, latBits := splitBits(bits)
	nx := uint64(1) << lngBits
	ny := uint64(1) << latBits
	xStart, xCount := lngSpan(ext, lngBits)
	yLo, yHi := latSpan(ext, latBits)

	cells := make([]uint64, 0, xCount*(yHi-yLo+1))
	for y := yLo; y <= yHi; y++ {
		cellLat := -90 + (float64(y)+0.5)*180/float64(ny)
		for i := uint64(0); i < xCount; i++ {
			x := (xStart + i) % nx
			cellLng := -180 + (float64(x)+0.5)*360/float64(nx)

			hash := geohash.EncodeIntWithPrecision(cellLat, cellLng, bits)
			box := geohash.BoundingBoxIntWithPrecision(hash, bits)
			if !cellReachable(center, radiusMeters, box) {
				continue
			}
			cells = append(cells, hash)
		}
	}
	return cells
}

// cellReachable セル中心までの距離が「半径 + セル中心から角までの最大距離」以内かを判定する。
// セル内の点までの距離の最大値は角で取るので、三角不等式により取りこぼしはない
func cellReachable(center model.GeoPoint, radiusMeters float64, box geohash.Box) bool {
	lat, lng := box.Center()
	cellCenter := model.GeoPoint{Latitude: lat, Longitude: lng}

	reach := 0.0
	corners := []model.GeoPoint{
		{Latitude: box.MinLat, Longitude: box.MinLng},
		{Latitude: box.MinLat, Longitude: box.MaxLng},
		{Latitude: box.MaxLat, Longitude: box.MinLng},
		{Latitude: box.MaxLat, Longitude: box.MaxLng},
	}
	for _, c := range corners {
		reach = math.Max(reach, DistanceMeters(cellCenter, c))
	}
	return DistanceMeters(center, cellCenter) <= radiusMeters+reach+reachToleranceMeters
}

// mergeCellRanges セルを文字単位の整数区間にして、重なり・隣接する区間をまとめる
func mergeCellRanges(cells []uint64, bits uint) []model.BoundingBoxRange {
	chars := (bits + 4) / 5
	shift := chars*5 - bits

	spans := make([][2]uint64, len(cells))
	for i, c := range cells {
		lo := c << shift
		spans[i] = [2]uint64{lo, lo + (uint64(1) << shift) - 1}
	}
	sort.Slice(spans, func(i, j int) bool {
		return spans[i][0] < spans[j][0]
	})

	var merged [][2]uint64
	for _, s := range spans {
		if n := len(merged); n > 0 && s[0] <= merged[n-1][1]+1 {
			if s[1] > merged[n-1][1] {
				merged[n-1][1] = s[1]
			}
			continue
		}
		merged = append(merged, s)
	}

	ranges := make([]model.BoundingBoxRange, len(merged))
	for i, m := range merged {
		ranges[i] = model.BoundingBoxRange{
			StartKey: encodeKey(m[0], chars),
			EndKey:   encodeKey(m[1], chars) + rangeTerminator,
		}
	}
	return ranges
}

package geo

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LostFound-App/internal/domain/model"
)

func TestGeocoder_Encode(t *testing.T) {
	tests := []struct {
		name      string
		point     model.GeoPoint
		precision int
		want      string
	}{
		{name: "San Francisco", point: model.GeoPoint{Latitude: 37.7749, Longitude: -122.4194}, precision: 6, want: "9q8yyk"},
		{name: "New York", point: model.GeoPoint{Latitude: 40.7128, Longitude: -74.0060}, precision: 6, want: "dr5reg"},
		{name: "London", point: model.GeoPoint{Latitude: 51.5074, Longitude: -0.1278}, precision: 6, want: "gcpvj0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewGeocoder(tt.precision).Encode(tt.point)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGeocoder_DefaultPrecision(t *testing.T) {
	g := NewGeocoder(0)
	assert.Equal(t, DefaultPrecision, g.Precision())

	key, err := g.Encode(model.GeoPoint{Latitude: 37.7749, Longitude: -122.4194})
	require.NoError(t, err)
	assert.Len(t, key, DefaultPrecision)
	assert.True(t, strings.HasPrefix(key, "9q8yyk"))

	assert.Equal(t, MaxPrecision, NewGeocoder(40).Precision())
}

func TestGeocoder_Deterministic(t *testing.T) {
	g := NewGeocoder(DefaultPrecision)
	p := model.GeoPoint{Latitude: 35.004573, Longitude: 135.768799}

	first, err := g.Encode(p)
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		got, err := NewGeocoder(DefaultPrecision).Encode(p)
		require.NoError(t, err)
		assert.Equal(t, first, got)
	}
}

func TestGeocoder_InvalidCoordinate(t *testing.T) {
	g := NewGeocoder(DefaultPrecision)
	invalid := []model.GeoPoint{
		{Latitude: 90.0001, Longitude: 0},
		{Latitude: -91, Longitude: 0},
		{Latitude: 0, Longitude: 180.5},
		{Latitude: 0, Longitude: -181},
		{Latitude: math.NaN(), Longitude: 0},
		{Latitude: 0, Longitude: math.Inf(1)},
	}
	for _, p := range invalid {
		_, err := g.Encode(p)
		assert.ErrorIs(t, err, model.ErrInvalidCoordinate, "point %+v", p)
	}
}

func TestGeocoder_EdgeCoordinates(t *testing.T) {
	g := NewGeocoder(DefaultPrecision)

	north, err := g.Encode(model.GeoPoint{Latitude: 90, Longitude: 180})
	require.NoError(t, err)
	assert.Equal(t, "zzzzzzzzzz", north)

	south, err := g.Encode(model.GeoPoint{Latitude: -90, Longitude: -180})
	require.NoError(t, err)
	assert.Equal(t, "0000000000", south)
}

func TestGeocoder_DecodeRoundTrip(t *testing.T) {
	g := NewGeocoder(8)
	points := []model.GeoPoint{
		{Latitude: 37.7749, Longitude: -122.4194},
		{Latitude: -33.8688, Longitude: 151.2093},
		{Latitude: 35.6762, Longitude: 139.6503},
	}
	for _, p := range points {
		key, err := g.Encode(p)
		require.NoError(t, err)
		decoded, err := g.Decode(key)
		require.NoError(t, err)
		assert.InDelta(t, p.Latitude, decoded.Latitude, 0.001)
		assert.InDelta(t, p.Longitude, decoded.Longitude, 0.001)
	}

	_, err := g.Decode("9q8a")
	assert.Error(t, err)
	_, err = g.Decode("")
	assert.Error(t, err)
}

func TestGeocoder_Locality(t *testing.T) {
	g := NewGeocoder(DefaultPrecision)

	t.Run("近い2点は長い共通接頭辞を持つ", func(t *testing.T) {
		a, _ := g.Encode(model.GeoPoint{Latitude: 37.77490, Longitude: -122.41940})
		b, _ := g.Encode(model.GeoPoint{Latitude: 37.77495, Longitude: -122.41945})
		assert.GreaterOrEqual(t, commonPrefixLen(a, b), 6)
	})

	// セル境界をまたぐと数センチの差でも接頭辞が一致しない
	t.Run("赤道をまたぐ2点", func(t *testing.T) {
		a, _ := g.Encode(model.GeoPoint{Latitude: 0.00001, Longitude: 0.001})
		b, _ := g.Encode(model.GeoPoint{Latitude: -0.00001, Longitude: 0.001})
		assert.Equal(t, 0, commonPrefixLen(a, b))
	})

	t.Run("本初子午線をまたぐ2点", func(t *testing.T) {
		a, _ := g.Encode(model.GeoPoint{Latitude: 51.4779, Longitude: 0.00001})
		b, _ := g.Encode(model.GeoPoint{Latitude: 51.4779, Longitude: -0.00001})
		assert.Equal(t, 0, commonPrefixLen(a, b))
	})
}

func TestValidateKey(t *testing.T) {
	assert.NoError(t, ValidateKey("9q8yyk"))
	assert.Error(t, ValidateKey("9q8yyka"))
	assert.Error(t, ValidateKey("9Q8"))
	assert.Error(t, ValidateKey("0123456789bcd"))
}

func commonPrefixLen(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

func BenchmarkEncode(b *testing.B) {
	g := NewGeocoder(DefaultPrecision)
	p := model.GeoPoint{Latitude: 37.7749, Longitude: -122.4194}
	for i := 0; i < b.N; i++ {
		_, _ = g.Encode(p)
	}
}

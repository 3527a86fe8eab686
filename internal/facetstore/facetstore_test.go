package facetstore

import (
	"strconv"
	"testing"

	"github.com/faithsearch/litsearch/schema"
	"github.com/stretchr/testify/require"
)

func TestMortonRoundTrip(t *testing.T) {
	lon, lat := 13.405, 52.52 // Berlin
	code := EncodePoint(lon, lat)
	gotLon, gotLat := DecodePoint(code)
	require.InDelta(t, lon, gotLon, 1e-6)
	require.InDelta(t, lat, gotLat, 1e-6)
}

func TestStringColumnRoundTrip(t *testing.T) {
	f := schema.NewField("town", schema.String16, schema.Faceted())
	b := NewColumnBuilder(f)
	require.NoError(t, b.Set(0, schema.StringValue("Berlin")))
	require.NoError(t, b.Set(1, schema.StringValue("Warsaw")))
	require.NoError(t, b.Set(2, schema.StringValue("Berlin")))

	col := NewColumn(f, b.Bytes(), b.dict.Values(), 0, 0)
	v0, err := col.String(0)
	require.NoError(t, err)
	require.Equal(t, "Berlin", v0)
	v2, err := col.String(2)
	require.NoError(t, err)
	require.Equal(t, "Berlin", v2)
	v1, err := col.String(1)
	require.NoError(t, err)
	require.Equal(t, "Warsaw", v1)
}

func TestNumericColumnMinMax(t *testing.T) {
	f := schema.NewField("price", schema.U32, schema.Faceted())
	b := NewColumnBuilder(f)
	require.NoError(t, b.Set(0, schema.IntValue(schema.U32, 10)))
	require.NoError(t, b.Set(1, schema.IntValue(schema.U32, 500)))
	require.NoError(t, b.Set(2, schema.IntValue(schema.U32, 42)))

	min, max, ok := b.MinMax()
	require.True(t, ok)
	require.Equal(t, float64(10), min)
	require.Equal(t, float64(500), max)

	col := NewColumn(f, b.Bytes(), nil, min, max)
	v, err := col.Int(1)
	require.NoError(t, err)
	require.Equal(t, int64(500), v)
}

func TestPointColumnRoundTrip(t *testing.T) {
	f := schema.NewField("loc", schema.Point, schema.Faceted())
	b := NewColumnBuilder(f)
	require.NoError(t, b.Set(0, schema.PointValue(13.405, 52.52)))

	col := NewColumn(f, b.Bytes(), nil, 0, 0)
	lon, lat, err := col.Point(0)
	require.NoError(t, err)
	require.InDelta(t, 13.405, lon, 1e-6)
	require.InDelta(t, 52.52, lat, 1e-6)
}

func TestStringDictionaryCardinalityExceeded(t *testing.T) {
	f := schema.NewField("tag", schema.String16, schema.Faceted())
	b := NewColumnBuilder(f)
	b.dict = &Dictionary{codeOf: make(map[string]uint32), is32: false}
	for i := 0; i < 65535; i++ {
		_, err := b.dict.codeFor(strconv.Itoa(i))
		require.NoError(t, err)
	}
	_, err := b.dict.codeFor("overflow")
	require.Error(t, err)
}

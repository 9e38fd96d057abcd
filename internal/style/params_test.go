package style

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultParams(t *testing.T) {
	p := DefaultParams(Range{Min: 0, Med: 5, Max: 10}, 0.8)
	require.NoError(t, p.Validate())
	assert.Equal(t, "#f7fcb9", p.ColorLow)
	assert.Equal(t, "#41ab5d", p.ColorMid)
	assert.Equal(t, "#005a32", p.ColorHigh)
	assert.Equal(t, "min:0;med:5;max:10;cmin:#f7fcb9;cmed:#41ab5d;cmax:#005a32", p.EnvString())
}

func TestParams_EnvWithNoData(t *testing.T) {
	nd := -9999.0
	ndOpacity := 0.0
	p := Params{
		Range:         Range{Min: -1.5, Med: 0, Max: 1.5},
		ColorLow:      "0000ff",
		ColorMid:      "ffffff",
		ColorHigh:     "ff0000",
		Opacity:       1,
		NoDataValue:   &nd,
		NoDataOpacity: &ndOpacity,
		NoDataColor:   "000000",
	}
	assert.Equal(t,
		"min:-1.5;med:0;max:1.5;cmin:#0000ff;cmed:#ffffff;cmax:#ff0000;nodata:-9999;nodata_opacity:0;nodata_color:#000000",
		p.EnvString())
}

func TestParams_Validate(t *testing.T) {
	base := DefaultParams(Range{Min: 0, Med: 1, Max: 2}, 0.5)

	unprefixed := base
	unprefixed.ColorMid = "abcdef"
	assert.NoError(t, unprefixed.Validate())

	badColor := base
	badColor.ColorHigh = "#abc"
	assert.Error(t, badColor.Validate())

	badOpacity := base
	badOpacity.Opacity = 1.5
	assert.Error(t, badOpacity.Validate())

	badNoData := base
	badNoData.NoDataColor = "zzzzzz"
	assert.Error(t, badNoData.Validate())
}

func TestParams_Normalized(t *testing.T) {
	p := Params{ColorLow: " 112233", ColorMid: "#445566", ColorHigh: "778899"}.Normalized()
	assert.Equal(t, "#112233", p.ColorLow)
	assert.Equal(t, "#445566", p.ColorMid)
	assert.Equal(t, "#778899", p.ColorHigh)
	assert.Equal(t, "", p.NoDataColor)
}

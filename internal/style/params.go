package style

import (
	"fmt"
	"math"
	"regexp"
)

// Palette is the sequential YlGn ramp used for default layer styles.
var Palette = []string{
	"#f7fcb9",
	"#d9f0a3",
	"#addd8e",
	"#78c679",
	"#41ab5d",
	"#238443",
	"#005a32",
}

// DefaultStyleName is the dynamic style registered on the tile renderer.
const DefaultStyleName = "dynamic_ramp"

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Params is the full visual ramp for one layer.
type Params struct {
	Range
	ColorLow      string   `json:"color_low"`
	ColorMid      string   `json:"color_mid"`
	ColorHigh     string   `json:"color_high"`
	Opacity       float64  `json:"opacity"`
	NoDataValue   *float64 `json:"nodata_value,omitempty"`
	NoDataOpacity *float64 `json:"nodata_opacity,omitempty"`
	NoDataColor   string   `json:"nodata_color,omitempty"`
}

// DefaultParams returns palette colours over r at the given opacity.
func DefaultParams(r Range, opacity float64) Params {
	return Params{
		Range:     r,
		ColorLow:  Palette[0],
		ColorMid:  Palette[4],
		ColorHigh: Palette[len(Palette)-1],
		Opacity:   opacity,
	}
}

// Normalized returns a copy with every colour in canonical "#RRGGBB" form.
func (p Params) Normalized() Params {
	p.ColorLow = NormalizeColor(p.ColorLow)
	p.ColorMid = NormalizeColor(p.ColorMid)
	p.ColorHigh = NormalizeColor(p.ColorHigh)
	p.NoDataColor = NormalizeColor(p.NoDataColor)
	return p
}

// Validate checks colours and opacities after normalization.
func (p Params) Validate() error {
	n := p.Normalized()
	for name, c := range map[string]string{"color_low": n.ColorLow, "color_mid": n.ColorMid, "color_high": n.ColorHigh} {
		if !hexColor.MatchString(c) {
			return fmt.Errorf("%s must be a 6 digit hex colour, got %q", name, c)
		}
	}
	if n.NoDataColor != "" && !hexColor.MatchString(n.NoDataColor) {
		return fmt.Errorf("nodata_color must be a 6 digit hex colour, got %q", n.NoDataColor)
	}
	if p.Opacity < 0 || p.Opacity > 1 || math.IsNaN(p.Opacity) {
		return fmt.Errorf("opacity must be between 0 and 1, got %v", p.Opacity)
	}
	if p.NoDataOpacity != nil && (*p.NoDataOpacity < 0 || *p.NoDataOpacity > 1) {
		return fmt.Errorf("nodata_opacity must be between 0 and 1, got %v", *p.NoDataOpacity)
	}
	for name, v := range map[string]float64{"min": p.Min, "med": p.Med, "max": p.Max} {
		if !finite(v) {
			return fmt.Errorf("%s must be finite", name)
		}
	}
	return nil
}

// Env returns the ordered env entries for p. No-data entries are nil, and
// therefore omitted, unless set.
func (p Params) Env() []KV {
	env := []KV{
		{KeyMin, p.Min},
		{KeyMed, p.Med},
		{KeyMax, p.Max},
		{KeyColorMin, p.ColorLow},
		{KeyColorMed, p.ColorMid},
		{KeyColorMax, p.ColorHigh},
		{KeyNoData, p.NoDataValue},
		{KeyNoDataOpacity, p.NoDataOpacity},
	}
	if p.NoDataColor != "" {
		env = append(env, KV{KeyNoDataColor, p.NoDataColor})
	}
	return env
}

// EnvString is Encode(p.Env()).
func (p Params) EnvString() string {
	return Encode(p.Env())
}

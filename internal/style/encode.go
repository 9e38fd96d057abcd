// Package style turns per-layer colour ramp settings into the env string the
// tile renderer's dynamic style consumes ("key:value;key:value").
package style

import (
	"math"
	"strconv"
	"strings"
)

// KV is one entry of an env mapping. A nil Value omits the entry.
type KV struct {
	Name  string
	Value interface{}
}

// Env keys understood by the dynamic ramp style.
const (
	KeyMin           = "min"
	KeyMed           = "med"
	KeyMax           = "max"
	KeyColorMin      = "cmin"
	KeyColorMed      = "cmed"
	KeyColorMax      = "cmax"
	KeyNoData        = "nodata"
	KeyNoDataOpacity = "nodata_opacity"
	KeyNoDataColor   = "nodata_color"
)

var colorKeys = map[string]bool{
	KeyColorMin:    true,
	KeyColorMed:    true,
	KeyColorMax:    true,
	KeyNoDataColor: true,
}

// IsColorKey reports whether values under name are normalized as colours.
func IsColorKey(name string) bool {
	return colorKeys[name]
}

// NormalizeColor trims v and prefixes '#' when missing. Empty input stays
// empty, which callers treat as "omit this key".
func NormalizeColor(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.HasPrefix(v, "#") {
		return v
	}
	return "#" + v
}

// Encode joins the non-nil entries of params as name:value pairs separated
// by ';', keeping the input order. Colour keys are normalized and dropped
// when empty.
func Encode(params []KV) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		v, ok := formatValue(p.Value)
		if !ok {
			continue
		}
		if IsColorKey(p.Name) {
			v = NormalizeColor(v)
			if v == "" {
				continue
			}
		}
		parts = append(parts, p.Name+":"+v)
	}
	return strings.Join(parts, ";")
}

func formatValue(v interface{}) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case *string:
		if x == nil {
			return "", false
		}
		return *x, true
	case float64:
		if math.IsNaN(x) {
			return "", false
		}
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case *float64:
		if x == nil {
			return "", false
		}
		return formatValue(*x)
	case float32:
		return formatValue(float64(x))
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case bool:
		return strconv.FormatBool(x), true
	default:
		return "", false
	}
}

// Range is the numeric span of a colour ramp.
type Range struct {
	Min float64 `json:"min"`
	Med float64 `json:"med"`
	Max float64 `json:"max"`
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// DeriveDefaultRange builds a usable ramp range from possibly incomplete
// statistics: min falls back to 0, max to min+1, med to the midpoint.
func DeriveDefaultRange(min, median, max float64) Range {
	r := Range{Min: 0}
	if finite(min) {
		r.Min = min
	}
	if finite(max) {
		r.Max = max
	} else {
		r.Max = r.Min + 1
	}
	if finite(median) {
		r.Med = median
	} else {
		r.Med = (r.Min + r.Max) / 2
	}
	return r
}

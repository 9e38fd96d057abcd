package chart

import "errors"

// ErrNoData is returned when asked to draw a chart that has nothing to show.
var ErrNoData = errors.New("chart: no data")

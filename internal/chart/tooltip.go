package chart

import (
	_ "embed"
	"html/template"
	"io"
)

// TooltipID is the element id of the tooltip shared by every chart on a page.
const TooltipID = "chart-tooltip"

//go:embed tooltip.js
var tooltipScript string

var tooltipTmpl = template.Must(template.New("tooltip").Parse(
	`<div id="{{.ID}}" class="chart-tooltip" hidden style="position:absolute;pointer-events:none"></div>
<script>{{.Script}}</script>
`))

// WriteTooltip writes the shared tooltip element and the pointer handlers
// that drive it. Write it once per page, outside any element whose content
// is replaced later: the handlers are delegated from the document, so
// charts swapped in afterwards pick up the same tooltip.
func WriteTooltip(w io.Writer) error {
	return tooltipTmpl.Execute(w, struct {
		ID     string
		Script template.JS
	}{TooltipID, template.JS(tooltipScript)})
}

// Package renderer turns calculation results into markdown reports.
package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"github.com/etnz/tradebook"
)

//go:embed templates/*.md
var embedded embed.FS

// templates holds the report templates, rooted at the templates directory.
var templates, _ = fs.Sub(embedded, "templates")

// RenderOptions holds configuration for rendering a calculation report.
type RenderOptions struct {
	SkipClosed    bool // Do not render the closed trades section.
	SkipPositions bool // Do not render the open positions section.
	SkipTax       bool // Do not render the tax sections.
}

// RenderResult renders the full calculation report.
func RenderResult(res *tradebook.CalculationResult, opts RenderOptions) string {
	partials := map[string]string{
		"result_title":   "result_title.md",
		"result_metrics": "result_metrics.md",
		"result_totals":  "result_totals.md",
	}

	var b strings.Builder
	b.WriteString(renderTemplate("result", "result.md", partials, res))
	if !opts.SkipPositions {
		b.WriteString(PositionsMarkdown(res.Valuations, res.BaseCurrency))
	}
	if !opts.SkipClosed {
		b.WriteString(ClosedTradesMarkdown(res.ClosedTrades))
	}
	if !opts.SkipTax {
		b.WriteString(TaxMarkdown(res))
		b.WriteString(HarvestMarkdown(res.Harvesting))
		b.WriteString(RecommendationsMarkdown(res.Recommendations))
	}
	return b.String()
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		var content []byte
		// An empty file name is a valid case, resulting in an empty template.
		if file != "" {
			var readErr error
			content, readErr = fs.ReadFile(templates, file)
			if readErr != nil {
				return fmt.Sprintf("error reading partial template %q: %v", file, readErr)
			}
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}

// RenderMetrics renders the performance metrics only.
func RenderMetrics(res *tradebook.CalculationResult) string {
	return renderTemplate("result_metrics", "result_metrics.md", nil, res)
}

// RenderTotals renders the per currency totals only.
func RenderTotals(res *tradebook.CalculationResult) string {
	return renderTemplate("result_totals", "result_totals.md", nil, res)
}

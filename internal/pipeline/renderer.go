package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/canonica/internal/model"
)

const banner = "═══════════════════════════════════════════════════════════"

// Renderer writes run reports as JSON, Markdown and a terminal summary.
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a new renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the report as indented JSON.
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// RenderMarkdown writes the report as a Markdown document.
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	return writeFile(path, []byte(r.Markdown(report)))
}

// Markdown renders the report as Markdown.
func (r *Renderer) Markdown(report *model.Report) string {
	var b strings.Builder
	t := report.Totals
	q := report.Quality

	fmt.Fprintf(&b, "# Cleaning report\n\n")
	fmt.Fprintf(&b, "- Run: `%s`\n", report.RunID)
	fmt.Fprintf(&b, "- Started: %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "- Inputs: %d file(s)\n", len(report.Inputs))
	if len(report.Skipped) > 0 {
		fmt.Fprintf(&b, "- Skipped: %s\n", strings.Join(report.Skipped, ", "))
	}

	b.WriteString("\n## Partitions\n\n| Partition | Records | Share |\n|---|---:|---:|\n")
	rows := []struct {
		name  model.Partition
		count int
	}{
		{model.PartitionValidOriginal, t.ValidOriginal},
		{model.PartitionValidRecovered, t.ValidRecovered},
		{model.PartitionRejected, t.Rejected},
		{model.PartitionDiscardedEmpty, t.DiscardedEmpty},
	}
	for _, row := range rows {
		fmt.Fprintf(&b, "| %s | %d | %s |\n", row.name, row.count, percent(row.count, t.Input))
	}
	fmt.Fprintf(&b, "| **input** | **%d** | |\n", t.Input)

	if len(report.Signals) > 0 {
		b.WriteString("\n## Signals\n\n")
		for _, s := range report.Signals {
			fmt.Fprintf(&b, "- %s **%s**: %s\n", severityIcon(s.Severity), s.Type, s.Description)
		}
	}

	if len(q.RejectionReasons) > 0 {
		b.WriteString("\n## Rejection reasons\n\n| Reason | Records |\n|---|---:|\n")
		for _, k := range sortedKeys(q.RejectionReasons) {
			fmt.Fprintf(&b, "| %s | %d |\n", k, q.RejectionReasons[k])
		}
	}

	if len(q.RecoveryByStrategy) > 0 {
		b.WriteString("\n## Recovery\n\n| Strategy | Records |\n|---|---:|\n")
		for _, k := range sortedKeys(q.RecoveryByStrategy) {
			fmt.Fprintf(&b, "| %s | %d |\n", k, q.RecoveryByStrategy[k])
		}
		b.WriteString("\n| Field | Strategy | Fills |\n|---|---|---:|\n")
		for _, field := range sortedKeys(q.RecoveredFields) {
			for _, st := range sortedKeys(q.RecoveredFields[field]) {
				fmt.Fprintf(&b, "| %s | %s | %d |\n", field, st, q.RecoveredFields[field][st])
			}
		}
	}

	for _, kind := range sortedKeys(q.Categorical) {
		st := q.Categorical[kind]
		fmt.Fprintf(&b, "\n## %s\n\n", kind)
		fmt.Fprintf(&b, "- Distinct raw values: %d\n", st.DistinctRaw)
		fmt.Fprintf(&b, "- Distinct canonical values: %d\n", st.DistinctCanonical)
		fmt.Fprintf(&b, "- Unresolved after recovery: %d\n", st.Unresolved)
		if len(st.Methods) > 0 {
			parts := make([]string, 0, len(st.Methods))
			for _, m := range sortedKeys(st.Methods) {
				parts = append(parts, fmt.Sprintf("%s=%d", m, st.Methods[m]))
			}
			fmt.Fprintf(&b, "- Resolution methods: %s\n", strings.Join(parts, ", "))
		}
		if len(st.Top) > 0 {
			b.WriteString("\n| Value | Records |\n|---|---:|\n")
			for _, vc := range st.Top {
				fmt.Fprintf(&b, "| %s | %d |\n", vc.Value, vc.Count)
			}
		}
	}

	if len(q.Dates) > 0 {
		b.WriteString("\n## Dates\n\n| Field | Status | Records |\n|---|---|---:|\n")
		for _, field := range sortedKeys(q.Dates) {
			for _, status := range sortedKeys(q.Dates[field]) {
				fmt.Fprintf(&b, "| %s | %s | %d |\n", field, status, q.Dates[field][status])
			}
		}
	}

	if len(q.Mismatches) > 0 {
		b.WriteString("\n## Field type mismatches\n\n| Field | Class | Values |\n|---|---|---:|\n")
		for _, field := range sortedKeys(q.Mismatches) {
			for _, class := range sortedKeys(q.Mismatches[field]) {
				fmt.Fprintf(&b, "| %s | %s | %d |\n", field, class, q.Mismatches[field][class])
			}
		}
	}

	idx := q.LocationIndex
	fmt.Fprintf(&b, "\n## Location index\n\n%d tokens observed, %d above the %.2f confidence floor.\n",
		idx.Tokens, idx.Confident, idx.Floor)
	if len(idx.Entries) > 0 {
		b.WriteString("\n| Token | Municipality | Support | Confidence |\n|---|---|---:|---:|\n")
		for _, e := range idx.Entries {
			fmt.Fprintf(&b, "| %s | %s | %d/%d | %.2f |\n", e.Token, e.Municipality, e.Support, e.Total, e.Confidence)
		}
	}

	if r.includeFooter {
		b.WriteString("\n---\n\n")
		b.WriteString("_Generated by canonica. Canonical values are filled only from master tables or from valid records of the same person; nothing is guessed._\n")
	}

	return b.String()
}

// RenderSummary prints the run summary box.
func (r *Renderer) RenderSummary(w io.Writer, report *model.Report, outDir string) {
	t := report.Totals

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "%s\n", banner)
	fmt.Fprintf(w, "  Run Complete\n")
	fmt.Fprintf(w, "%s\n", banner)
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Run ID:           %s\n", report.RunID)
	fmt.Fprintf(w, "  Input records:    %d\n", t.Input)
	fmt.Fprintf(w, "  Valid original:   %d\n", t.ValidOriginal)
	fmt.Fprintf(w, "  Valid recovered:  %d\n", t.ValidRecovered)
	fmt.Fprintf(w, "  Rejected:         %d\n", t.Rejected)
	fmt.Fprintf(w, "  Discarded empty:  %d\n", t.DiscardedEmpty)
	if len(report.Skipped) > 0 {
		fmt.Fprintf(w, "  Skipped files:    %d\n", len(report.Skipped))
	}
	if outDir != "" {
		fmt.Fprintf(w, "  Output:           %s\n", outDir)
	}
	fmt.Fprintf(w, "\n")

	for _, s := range report.Signals {
		if s.Severity == model.SeverityInfo {
			continue
		}
		fmt.Fprintf(w, "  %s %s\n", severityIcon(s.Severity), s.Description)
	}
}

// RenderInspect prints the field classifier audit.
func (r *Renderer) RenderInspect(w io.Writer, report *InspectReport) {
	fmt.Fprintf(w, "%s\n", banner)
	fmt.Fprintf(w, "  Field Audit: %d records from %d file(s)\n", report.Records, report.Files)
	fmt.Fprintf(w, "%s\n\n", banner)

	for _, a := range report.Fields {
		fmt.Fprintf(w, "  %-16s expected %-10s %5d values, %d mismatched\n", a.Field, a.Expected, a.Total, a.Mismatches())
		for _, class := range sortedKeys(a.Examples) {
			fmt.Fprintf(w, "      %-18s %d  e.g. %s\n", class, a.Classes[class], strings.Join(quoteAll(a.Examples[class]), ", "))
		}
	}

	for _, path := range report.Skipped {
		fmt.Fprintf(w, "\n  ✗ skipped %s\n", path)
	}
}

func severityIcon(s model.SignalSeverity) string {
	switch s {
	case model.SeverityCritical:
		return "✗"
	case model.SeverityWarning:
		return "⚠"
	default:
		return "✓"
	}
}

func percent(n, total int) string {
	if total == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", 100*float64(n)/float64(total))
}

func quoteAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = fmt.Sprintf("%q", v)
	}
	return out
}

func sortedKeys[K ~string, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

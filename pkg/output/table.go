package output

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// MatrixRow contains data for the build matrix table.
type MatrixRow struct {
	Basename string
	Path     string
}

// UnitRow contains data for the buildable units table.
type UnitRow struct {
	Name       string
	Path       string
	Dockerfile string // recipe file name, or "-" when missing
	Version    string // VERSION file content, or "-"
}

// BuildRow contains data for the build summary table.
type BuildRow struct {
	Unit     string
	Tags     string
	Duration string
	Status   string // built, failed
	Message  string // error message on failure
}

// Matrix prints the build matrix table.
func (p *Printer) Matrix(rows []MatrixRow) {
	if len(rows) == 0 {
		p.Info("No changed build units")
		return
	}

	p.Section("BUILD MATRIX")

	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.SetStyle(p.tableStyle())

	t.AppendHeader(table.Row{"Basename", "Path"})
	for _, r := range rows {
		t.AppendRow(table.Row{r.Basename, r.Path})
	}

	t.Render()
	p.Println()
}

// Units prints the buildable units table.
func (p *Printer) Units(rows []UnitRow) {
	if len(rows) == 0 {
		p.Info("No buildable units found")
		return
	}

	p.Section("UNITS")

	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.SetStyle(p.tableStyle())

	t.AppendHeader(table.Row{"Name", "Path", "Dockerfile", "Version"})
	for _, r := range rows {
		t.AppendRow(table.Row{r.Name, r.Path, r.Dockerfile, r.Version})
	}

	t.Render()
	p.Println()
}

// BuildSummary prints the per-entry build results.
func (p *Printer) BuildSummary(rows []BuildRow) {
	if len(rows) == 0 {
		return
	}

	p.Section("BUILDS")

	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.SetStyle(p.tableStyle())

	t.AppendHeader(table.Row{"Unit", "Tags", "Duration", "Status", "Message"})
	for _, r := range rows {
		status := r.Status
		if p.isTTY {
			status = colorStatus(r.Status)
		}
		t.AppendRow(table.Row{r.Unit, r.Tags, r.Duration, status, r.Message})
	}

	t.Render()
	p.Println()
}

// colorStatus applies color to a build status.
func colorStatus(status string) string {
	var style lipgloss.Style
	switch status {
	case "built":
		style = lipgloss.NewStyle().Foreground(ColorGreen)
	case "failed":
		style = lipgloss.NewStyle().Foreground(ColorRed)
	case "skipped":
		style = lipgloss.NewStyle().Foreground(ColorMuted)
	default:
		style = lipgloss.NewStyle().Foreground(ColorGray)
	}
	return style.Render(status)
}

// tableStyle returns the standard teal-themed table style.
func (p *Printer) tableStyle() table.Style {
	style := table.StyleRounded
	if p.isTTY {
		style.Color.Header = text.Colors{text.FgHiCyan, text.Bold}
		style.Color.Border = text.Colors{text.FgHiBlack}
	}
	style.Options.SeparateRows = false
	return style
}

// Section prints a section header.
func (p *Printer) Section(title string) {
	if p.isTTY {
		style := lipgloss.NewStyle().Foreground(ColorTeal).Bold(true)
		p.Println(style.Render(title))
	} else {
		p.Println(title)
	}
}

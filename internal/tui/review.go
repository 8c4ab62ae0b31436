// Package tui renders the interactive approval gate shown between
// assignment and export. The operator browses the proposed workload per
// employee, checks what was held back, and either confirms the run or
// aborts it before anything is written.
package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/saulrichardson/allstate-weekly-lists/internal/runner"
	"github.com/saulrichardson/allstate-weekly-lists/internal/task"
)

const maxUnassignedRows = 8

var (
	headerStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")).MarginBottom(1)
	paneStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444")).Padding(0, 1)
	detailTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4CAF50"))
	heldBackStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F7B801"))
	mutedStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	hintStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA")).MarginTop(1)
)

// Review blocks on the approval screen and reports the operator's
// decision. It satisfies runner.ReviewFunc, so it can be handed to the
// pipeline directly. A false return means abort: nothing has been
// exported yet and nothing will be.
func Review(ctx context.Context, tallies []runner.EmployeeTally, unassigned []*task.Record) (bool, error) {
	model := newReviewModel(tallies, unassigned)
	program := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen())
	final, err := program.Run()
	if err != nil {
		return false, fmt.Errorf("tui: review: %w", err)
	}
	resolved, ok := final.(*reviewModel)
	if !ok {
		return false, fmt.Errorf("tui: unexpected model %T", final)
	}
	return resolved.accepted, nil
}

// rosterItem is one row in the roster list. The held-back bucket rides
// along as a final pseudo-employee so it gets the same browsing keys.
type rosterItem struct {
	name     string
	total    int
	premium  string
	heldBack bool
}

func (i rosterItem) Title() string { return i.name }

func (i rosterItem) Description() string {
	if i.heldBack {
		return fmt.Sprintf("%d task(s) held back", i.total)
	}
	if i.total == 0 {
		return "no tasks this week"
	}
	return fmt.Sprintf("%d task(s) · $%s", i.total, i.premium)
}

func (i rosterItem) FilterValue() string { return i.name }

type reviewModel struct {
	roster     list.Model
	tallies    []runner.EmployeeTally
	unassigned []*task.Record
	accepted   bool

	width  int
	height int
}

func newReviewModel(tallies []runner.EmployeeTally, unassigned []*task.Record) *reviewModel {
	items := make([]list.Item, 0, len(tallies)+1)
	for _, tally := range tallies {
		items = append(items, rosterItem{
			name:    tally.Name,
			total:   tally.Total,
			premium: tally.Premium.StringFixed(2),
		})
	}
	if len(unassigned) > 0 {
		items = append(items, rosterItem{
			name:     runner.UnassignedBucket,
			total:    len(unassigned),
			heldBack: true,
		})
	}
	roster := list.New(items, list.NewDefaultDelegate(), 0, 0)
	roster.Title = "Assignments"
	roster.SetShowStatusBar(false)
	roster.SetFilteringEnabled(false)
	return &reviewModel{
		roster:     roster,
		tallies:    tallies,
		unassigned: unassigned,
	}
}

func (m *reviewModel) Init() tea.Cmd {
	return nil
}

func (m *reviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.accepted = false
			return m, tea.Quit
		case "enter", "e":
			m.accepted = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.roster, cmd = m.roster.Update(msg)
	return m, cmd
}

func (m *reviewModel) View() string {
	width := m.width
	if width <= 0 {
		width = 100
	}
	height := m.height
	if height <= 0 {
		height = 24
	}
	detailWidth := max(36, width/2)
	listWidth := width - detailWidth - 4
	if listWidth < 28 {
		listWidth = width - 4
		detailWidth = 0
	}
	m.roster.SetSize(max(20, listWidth-4), max(8, height-10))

	header := headerStyle.Render("WEEKLY LISTS · REVIEW")
	summary := mutedStyle.Render(m.summaryLine())
	leftBox := paneStyle.Width(max(20, listWidth)).Render(m.roster.View())
	var body string
	if detailWidth > 0 {
		rightBox := paneStyle.Width(max(20, detailWidth)).Render(m.renderDetail())
		body = lipgloss.JoinHorizontal(lipgloss.Top, leftBox, rightBox)
	} else {
		body = leftBox
	}
	hint := hintStyle.Render("enter=approve and export  q=abort")
	return strings.Join([]string{header, summary, body, hint}, "\n")
}

func (m *reviewModel) summaryLine() string {
	assigned := 0
	for _, tally := range m.tallies {
		assigned += tally.Total
	}
	total := assigned + len(m.unassigned)
	return fmt.Sprintf("%d record(s) · %d assigned · %d held back", total, assigned, len(m.unassigned))
}

func (m *reviewModel) renderDetail() string {
	item, ok := m.roster.SelectedItem().(rosterItem)
	if !ok {
		return mutedStyle.Render("Nothing to review.")
	}
	if item.heldBack {
		return m.renderUnassigned()
	}
	idx := m.roster.Index()
	if idx < 0 || idx >= len(m.tallies) {
		return mutedStyle.Render("Nothing to review.")
	}
	tally := m.tallies[idx]
	lines := []string{detailTitleStyle.Render(tally.Name)}
	if tally.Total == 0 {
		lines = append(lines, mutedStyle.Render("No tasks this week."))
		return strings.Join(lines, "\n")
	}
	for _, source := range sortedSources(tally.BySource) {
		bucket := tally.BySource[source]
		lines = append(lines, fmt.Sprintf("%s · %d task(s) · $%s", source, bucket.Count, bucket.Premium.StringFixed(2)))
	}
	lines = append(lines, "", fmt.Sprintf("Total · %d task(s) · $%s", tally.Total, tally.Premium.StringFixed(2)))
	return strings.Join(lines, "\n")
}

func (m *reviewModel) renderUnassigned() string {
	lines := []string{heldBackStyle.Render("Held back from assignment")}
	shown := m.unassigned
	if len(shown) > maxUnassignedRows {
		shown = shown[:maxUnassignedRows]
	}
	for _, rec := range shown {
		lines = append(lines, describeRecord(rec))
	}
	if rest := len(m.unassigned) - len(shown); rest > 0 {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("and %d more", rest)))
	}
	return strings.Join(lines, "\n")
}

func describeRecord(rec *task.Record) string {
	label := strings.TrimSpace(rec.Text(task.FieldPolicyNumber))
	if label == "" {
		label = fmt.Sprintf("row %d", rec.RowID)
	}
	parts := []string{label}
	if rec.Source != "" {
		parts = append(parts, rec.Source)
	}
	if rec.Premium.Valid {
		parts = append(parts, "$"+rec.Premium.Decimal.StringFixed(2))
	}
	return strings.Join(parts, " · ")
}

func sortedSources(buckets map[string]runner.SourceTally) []string {
	names := make([]string, 0, len(buckets))
	for name := range buckets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

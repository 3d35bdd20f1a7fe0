package main

import (
	"fmt"
	"os"
	"strings"

	"covabdab/internal/fasta"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Colors
var (
	primaryColor = lipgloss.Color("#7C3AED") // Purple
	accentColor  = lipgloss.Color("#F59E0B") // Amber
	surfaceColor = lipgloss.Color("#1F2937") // Dark gray
	textColor    = lipgloss.Color("#F3F4F6") // Light gray
	mutedColor   = lipgloss.Color("#9CA3AF") // Muted gray
	borderColor  = lipgloss.Color("#374151") // Border gray
)

// Styles
var (
	containerStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor)

	titleStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true).
			Align(lipgloss.Center)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(textColor).
			Background(surfaceColor).
			Padding(0, 1)

	sequenceStyle = lipgloss.NewStyle().
			Foreground(textColor).
			Background(lipgloss.Color("#111827")).
			Padding(1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor)
)

type listItem struct {
	record fasta.Record
}

func (i listItem) FilterValue() string {
	return i.record.Header
}

func (i listItem) Title() string {
	// The first '|' separated token is the antibody name
	if idx := strings.Index(i.record.Header, "|"); idx > 0 {
		return i.record.Header[:idx]
	}
	return i.record.Header
}

func (i listItem) Description() string {
	return fmt.Sprintf("%s    %d aa", i.record.Header, len(i.record.Sequence))
}

type mode int

const (
	modeSequence mode = iota
	modeHeader
)

func (m mode) String() string {
	switch m {
	case modeSequence:
		return "Sequence"
	case modeHeader:
		return "Header fields"
	default:
		return "Unknown"
	}
}

type model struct {
	list          list.Model
	records       []fasta.Record
	currentMode   mode
	showHelp      bool
	width         int
	height        int
	totalRecords  int
	selectedIndex int
}

func initialModel(path string) model {
	var records []fasta.Record
	if data, err := os.ReadFile(path); err == nil {
		records = fasta.ParseFasta(strings.NewReader(string(data)))
	}

	items := make([]list.Item, len(records))
	for i, record := range records {
		items[i] = listItem{record: record}
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "CoV-AbDab records"
	l.SetShowStatusBar(false)
	l.SetShowPagination(true)
	l.SetFilteringEnabled(true)

	return model{
		list:         l,
		records:      records,
		currentMode:  modeSequence,
		totalRecords: len(records),
	}
}

// cycleMode advances to the next view mode, wrapping around.
func (m model) cycleMode() model {
	switch m.currentMode {
	case modeSequence:
		m.currentMode = modeHeader
	default:
		m.currentMode = modeSequence
	}
	return m
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// left panel takes 1/3 of the width
		m.list.SetWidth(msg.Width / 3)
		m.list.SetHeight(msg.Height - 4)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "h":
			m.showHelp = !m.showHelp
			return m, nil
		case "tab":
			return m.cycleMode(), nil
		case "1":
			m.currentMode = modeSequence
			return m, nil
		case "2":
			m.currentMode = modeHeader
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	m.selectedIndex = m.list.Index()
	return m, cmd
}

func (m model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelpModal()
	}

	main := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderLeftPanel(),
		m.renderRightPanel(),
	)
	return lipgloss.JoinVertical(
		lipgloss.Left,
		main,
		m.renderStatusBar(),
	)
}

func (m model) renderLeftPanel() string {
	return containerStyle.
		Width(m.width/3 - 2).
		Height(m.height - 4).
		Render(m.list.View())
}

func (m model) renderRightPanel() string {
	rightWidth := (m.width * 2) / 3

	if len(m.records) == 0 {
		return containerStyle.
			Width(rightWidth - 2).
			Height(m.height - 4).
			Render("No records available")
	}

	selectedItem := m.list.SelectedItem()
	if selectedItem == nil {
		return containerStyle.
			Width(rightWidth - 2).
			Height(m.height - 4).
			Render("No item selected")
	}

	record := selectedItem.(listItem).record
	lines := m.buildRightLines(record)

	return containerStyle.
		Width(rightWidth - 2).
		Height(m.height - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// buildRightLines renders the detail panel content for one record in the
// current mode.
func (m model) buildRightLines(record fasta.Record) []string {
	header := titleStyle.Render(record.Header)

	var content string
	switch m.currentMode {
	case modeHeader:
		fields := strings.Split(record.Header, "|")
		label := lipgloss.NewStyle().Foreground(mutedColor)
		rendered := make([]string, 0, len(fields))
		for i, f := range fields {
			rendered = append(rendered, label.Render(fmt.Sprintf("field %d: ", i+1))+f)
		}
		content = strings.Join(rendered, "\n")
	default:
		content = m.formatSequence(record.Sequence, "Sequence")
	}

	return []string{header, "", content}
}

func (m model) formatSequence(sequence, title string) string {
	if sequence == "" {
		return lipgloss.NewStyle().
			Foreground(mutedColor).
			Render(fmt.Sprintf("No %s available", strings.ToLower(title)))
	}

	cleanSequence := strings.ReplaceAll(sequence, "\n", "")
	cleanSequence = strings.ReplaceAll(cleanSequence, "\r", "")

	titleStr := lipgloss.NewStyle().
		Foreground(accentColor).
		Bold(true).
		Render(title + ":")

	sequenceContent := sequenceStyle.
		Width(m.width*2/3 - 6).
		Render(cleanSequence)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		titleStr,
		"",
		sequenceContent,
	)
}

func (m model) renderStatusBar() string {
	leftInfo := fmt.Sprintf("%d/%d records", m.selectedIndex+1, m.totalRecords)
	centerInfo := fmt.Sprintf("Mode: %s", m.currentMode.String())
	rightInfo := "Press 'h' for help, 'q' to quit"

	totalUsed := len(leftInfo) + len(centerInfo) + len(rightInfo)
	spacing := m.width - totalUsed - 6

	var statusContent string
	if spacing > 0 {
		leftSpacing := spacing / 2
		rightSpacing := spacing - leftSpacing
		statusContent = leftInfo +
			strings.Repeat(" ", leftSpacing) +
			centerInfo +
			strings.Repeat(" ", rightSpacing) +
			rightInfo
	} else {
		statusContent = fmt.Sprintf("%s | %s", leftInfo, centerInfo)
	}

	return statusBarStyle.
		Width(m.width).
		Render(statusContent)
}

func (m model) renderHelpModal() string {
	helpContent := `CoV-AbDab records browser - Help

Navigation:
  up/down, j/k  Navigate list
  /             Filter records
  Enter         Select record

View Modes:
  1, tab        Show sequence
  2             Show header fields

General:
  h             Toggle this help
  q, Ctrl+C     Quit application

Current Mode: ` + m.currentMode.String() + `
Total Records: ` + fmt.Sprintf("%d", m.totalRecords) + `
`

	modalStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(primaryColor).
		Padding(1, 2).
		Background(surfaceColor).
		Foreground(textColor).
		Width(60).
		Align(lipgloss.Center)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modalStyle.Render(helpContent),
	)
}

func main() {
	path := "covabdab.fasta"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	p := tea.NewProgram(initialModel(path), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v", err)
		os.Exit(1)
	}
}

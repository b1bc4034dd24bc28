package main

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/gwillem/robokit/pkg/input"
	"github.com/gwillem/robokit/pkg/loop"
)

const (
	headerHeight = 2 // title + blank line
	legendHeight = 2 // legend row + blank
	helpHeight   = 2 // key help + blank
	footerHeight = 7 // log box height
	maxLogs      = 5 // number of log messages to show
	borderSize   = 2 // chart border
)

// chartPalette assigns colors to telemetry keys in the order they appear.
var chartPalette = []string{"196", "208", "226", "46", "51", "201", "75", "141"}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type dashModel struct {
	runner *loop.Runner
	store  *input.Store
	chart  *streamlinechart.Model

	width    int // terminal width
	height   int // terminal height
	logs     []string
	quitting bool

	// keyboard stands in for a gamepad: axes 0-3, button 0 is the grip
	axes    [4]float64
	buttons [1]bool

	colors map[string]string // telemetry key -> palette color
	mode   loop.Mode
	cycle  uint64
}

func newDashModel(runner *loop.Runner, store *input.Store) dashModel {
	chart := streamlinechart.New(80, 20,
		streamlinechart.WithYRange(-100, 100),
	)
	return dashModel{
		runner: runner,
		store:  store,
		chart:  &chart,
		colors: make(map[string]string),
	}
}

func (m *dashModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// Messages from the runner
type stateMsg loop.State
type logMsg string

func waitForState(r *loop.Runner) tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-r.States())
	}
}

func waitForLog(r *loop.Runner) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-r.Logs())
	}
}

// chartSize calculates the size of the chart based on terminal dimensions
func (m *dashModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 20 // default size before we know terminal size
	}
	width = m.width - borderSize - 2
	if width < 40 {
		width = 40
	}
	height = m.height - headerHeight - legendHeight - helpHeight - footerHeight - borderSize
	if height < 10 {
		height = 10
	}
	return width, height
}

func (m *dashModel) resizeChart() {
	w, h := m.chartSize()
	m.chart.Resize(w, h)
}

func (m *dashModel) pushInput() {
	m.store.Update(input.State{
		Axes:    m.axes[:],
		Buttons: m.buttons[:],
	})
}

func (m *dashModel) bumpAxis(i int, delta float64) {
	m.axes[i] = input.Clamp(m.axes[i]+delta, -1, 1)
	m.pushInput()
}

func (m dashModel) Init() tea.Cmd {
	return tea.Batch(
		waitForState(m.runner),
		waitForLog(m.runner),
	)
}

func (m dashModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeChart()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "1":
			m.runner.SetMode(loop.Disabled)
		case "2":
			m.runner.SetMode(loop.Autonomous)
		case "3":
			m.runner.SetMode(loop.Teleop)

		case "left":
			m.bumpAxis(0, -0.25)
		case "right":
			m.bumpAxis(0, 0.25)
		case "up":
			m.bumpAxis(1, 0.25)
		case "down":
			m.bumpAxis(1, -0.25)
		case "w":
			m.bumpAxis(2, 0.25)
		case "s":
			m.bumpAxis(2, -0.25)
		case "e":
			m.bumpAxis(3, 0.25)
		case "c":
			m.bumpAxis(3, -0.25)
		case "0":
			m.axes = [4]float64{}
			m.pushInput()
		case " ", "space":
			m.buttons[0] = !m.buttons[0]
			m.pushInput()
		}
		return m, nil

	case stateMsg:
		state := loop.State(msg)
		m.mode = state.Mode
		m.cycle = state.Cycle
		for _, key := range sortedKeys(state.Telemetry.Numbers) {
			m.ensureDataSet(key)
			m.chart.PushDataSet(key, state.Telemetry.Numbers[key])
		}
		m.chart.DrawAll()
		return m, waitForState(m.runner)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.runner)
	}

	return m, nil
}

// ensureDataSet assigns a palette color the first time a telemetry key shows
// up on the board.
func (m *dashModel) ensureDataSet(key string) {
	if _, ok := m.colors[key]; ok {
		return
	}
	color := chartPalette[len(m.colors)%len(chartPalette)]
	m.colors[key] = color
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
	m.chart.SetDataSetStyles(key, runes.ThinLineStyle, style)
}

func (m dashModel) View() string {
	if m.quitting {
		return "Control loop stopped.\n"
	}

	var sb strings.Builder

	// Header
	sb.WriteString(titleStyle.Render("Robokit"))
	sb.WriteString(fmt.Sprintf(" - %d Hz - %s", m.runner.Hz(), m.mode))
	sb.WriteString(statusStyle.Render(fmt.Sprintf("  cycle %d", m.cycle)))
	sb.WriteString("\n\n")

	// Chart
	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	// Legend
	sb.WriteString(m.renderLegend())
	sb.WriteString("\n")

	// Key help
	grip := "open"
	if m.buttons[0] {
		grip = "closed"
	}
	sb.WriteString(statusStyle.Render(fmt.Sprintf(
		"1 disable  2 auto  3 teleop | arrows pan/lift  w/s elbow  e/c wrist  0 center | space grip (%s) | q quit",
		grip)))
	sb.WriteString("\n\n")

	// Log box
	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(m.width - 4).
		Foreground(lipgloss.Color("9"))

	var logLines string
	if len(m.logs) == 0 {
		logLines = statusStyle.Render("Waiting for control loop...")
	} else {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

func (m dashModel) renderLegend() string {
	var items []string
	for _, key := range sortedKeys(m.colors) {
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.colors[key])).Bold(true)
		items = append(items, colorStyle.Render("━━")+" "+key)
	}
	if len(items) == 0 {
		return statusStyle.Render("waiting for telemetry")
	}
	return strings.Join(items, "  ")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

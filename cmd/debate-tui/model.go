package main

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"debatetui/internal/analysis"
)

const (
	appTitle        = "Political Debate Analyzer"
	loadingLabel    = "Analyzing debate perspectives..."
	placeholderText = "Enter a political topic..."
	placeholderCard = 4
	logRingSize     = 50
	healthTimeout   = 5 * time.Second
)

type healthChecker interface {
	Health(ctx context.Context) (string, error)
}

// noticeBuffer collects failure notices raised during Settle so Update can
// surface them after the transition.
type noticeBuffer struct {
	pending []analysis.Notice
}

func (b *noticeBuffer) Notify(n analysis.Notice) { b.pending = append(b.pending, n) }

func (b *noticeBuffer) drain() []analysis.Notice {
	out := b.pending
	b.pending = nil
	return out
}

type model struct {
	ctx     context.Context
	logger  *zap.Logger
	checker healthChecker
	session *analysis.Session
	input   *analysis.Input
	notices *noticeBuffer

	statusLine  string
	logs        []string
	lastNotice  string
	health      string
	healthErr   error
	quitConfirm bool

	width  int
	height int

	topic    textinput.Model
	results  viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer
	style    string

	theme uiTheme
}

type analysisSettledMsg struct {
	settlement analysis.Settlement
}

type healthDoneMsg struct {
	status string
	err    error
}

// newModel wires a fresh session around analyzer. style is a glamour
// standard style name used for the results panel.
func newModel(ctx context.Context, analyzer analysis.Analyzer, checker healthChecker, logger *zap.Logger, style string) model {
	if logger == nil {
		logger = zap.NewNop()
	}
	notices := &noticeBuffer{}
	session := analysis.NewSession(analyzer, analysis.WithLogger(logger), analysis.WithNotifier(notices))

	topic := textinput.New()
	topic.Prompt = "❯ "
	topic.CharLimit = 400
	topic.Placeholder = placeholderText
	topic.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#60a5fa"))

	results := viewport.New(0, 0)
	results.MouseWheelEnabled = true
	results.MouseWheelDelta = 4

	return model{
		ctx:        ctx,
		logger:     logger,
		checker:    checker,
		session:    session,
		input:      analysis.NewInput(session),
		notices:    notices,
		statusLine: "ready",
		logs:       []string{},
		topic:      topic,
		results:    results,
		spinner:    sp,
		renderer:   newRenderer(style, 80),
		style:      style,
		theme:      newTheme(),
	}
}

func newRenderer(style string, width int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(cmp.Or(style, "notty")),
		glamour.WithWordWrap(max(20, width)),
	)
	if err != nil {
		return nil
	}
	return r
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		textinput.Blink,
		m.healthCmd(),
	)
}

func (m model) healthCmd() tea.Cmd {
	if m.checker == nil {
		return nil
	}
	checker := m.checker
	parent := m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, healthTimeout)
		defer cancel()
		status, err := checker.Health(ctx)
		return healthDoneMsg{status: status, err: err}
	}
}

func (m model) analyzeCmd(req *analysis.Request) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return analysisSettledMsg{settlement: req.Run(ctx)}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case analysisSettledMsg:
		cmds = append(cmds, m.applySettlement(msg.settlement))
	case healthDoneMsg:
		m.healthErr = msg.err
		m.health = msg.status
		if msg.err != nil {
			m.logger.Warn("health check failed", zap.Error(msg.err))
			m.appendLog("health check failed: " + analysis.Compact(msg.err.Error(), 160))
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	case tea.MouseMsg:
		if m.session.View() == analysis.ViewResults {
			var cmd tea.Cmd
			m.results, cmd = m.results.Update(msg)
			cmds = append(cmds, cmd)
		}
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.quitConfirm {
			switch msg.String() {
			case "y", "Y", "enter":
				return m, tea.Quit
			case "n", "N", "esc":
				m.quitConfirm = false
				m.statusLine = "quit canceled"
			}
			return m, nil
		}
		switch msg.String() {
		case "esc":
			m.quitConfirm = true
			m.statusLine = "quit?"
			return m, nil
		case "enter":
			return m, m.submit()
		case "pgup", "ctrl+b":
			m.results.LineUp(8)
			return m, nil
		case "pgdown", "ctrl+f":
			m.results.LineDown(8)
			return m, nil
		}
		if m.session.Pending() {
			return m, nil
		}
		var cmd tea.Cmd
		m.topic, cmd = m.topic.Update(msg)
		m.input.SetTopic(m.topic.Value())
		cmds = append(cmds, cmd)
	default:
		// cursor blink and other input-owned messages
		var cmd tea.Cmd
		m.topic, cmd = m.topic.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// submit hands the current topic to the session. Blank topics and
// submissions while a request is pending are dropped silently.
func (m *model) submit() tea.Cmd {
	m.input.SetTopic(m.topic.Value())
	req, ok := m.input.Submit()
	if !ok {
		return nil
	}
	m.topic.Blur()
	m.results.SetContent("")
	m.results.GotoTop()
	m.statusLine = fmt.Sprintf("analyzing %q", analysis.Compact(req.Topic, 80))
	m.appendLog("submitted: " + req.Topic)
	return m.analyzeCmd(req)
}

// applySettlement returns the focus command for the re-enabled topic input,
// or nil when the settlement was stale.
func (m *model) applySettlement(st analysis.Settlement) tea.Cmd {
	if !m.session.Settle(st) {
		m.appendLog("ignored stale response for attempt " + st.AttemptID)
		return nil
	}
	for _, n := range m.notices.drain() {
		m.lastNotice = n.String()
		m.appendLog("error: " + m.lastNotice)
		m.statusLine = "error: " + analysis.Compact(m.lastNotice, 160)
	}
	attempt := m.session.Attempt()
	if attempt.Status == analysis.StatusSucceeded {
		m.statusLine = "saved to " + cmp.Or(attempt.SavedTo, "(unknown)")
		m.appendLog(m.statusLine)
		m.results.SetContent(renderPayload(m.renderer, attempt.Payload))
		m.results.GotoTop()
	}
	return m.topic.Focus()
}

func (m *model) resize() {
	contentWidth := max(40, m.width-4)
	m.results.Width = max(20, contentWidth-4)
	m.results.Height = max(4, m.height-16)
	m.renderer = newRenderer(m.style, m.results.Width)
	m.topic.Width = max(20, contentWidth-30)
	if attempt := m.session.Attempt(); attempt.Status == analysis.StatusSucceeded {
		m.results.SetContent(renderPayload(m.renderer, attempt.Payload))
	}
}

func (m *model) appendLog(line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return
	}
	m.logs = append(m.logs, fmt.Sprintf("%s %s", time.Now().Format("15:04:05"), analysis.Compact(trimmed, 220)))
	if len(m.logs) > logRingSize {
		m.logs = m.logs[len(m.logs)-logRingSize:]
	}
}

func (m model) View() string {
	if m.quitConfirm {
		return m.theme.root.Render(m.renderQuitModal())
	}
	out := lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		m.renderInput(),
		m.renderContent(),
		m.renderFooter(),
	)
	return m.theme.root.Render(out)
}

func (m model) renderHeader() string {
	health := m.theme.helpText.Render("backend: checking...")
	switch {
	case m.checker == nil:
		health = ""
	case m.healthErr != nil:
		health = m.theme.healthBad.Render("backend: unreachable")
	case m.health != "":
		health = m.theme.healthOK.Render("backend: " + m.health)
	}
	line := m.theme.title.Render(appTitle)
	if health != "" {
		line += "  " + health
	}
	return m.theme.header.Width(max(20, m.width-4)).Render(line)
}

func (m model) renderInput() string {
	label := "Analyze"
	if m.session.Pending() {
		label = "Analyzing..."
	}
	button := m.theme.button
	if !m.input.CanSubmit() {
		button = m.theme.buttonMuted
	}
	row := lipgloss.JoinHorizontal(lipgloss.Center, m.topic.View(), "  ", button.Render(label))
	return m.theme.inputPanel.Width(max(40, m.width-4)).Render(row)
}

func (m model) renderContent() string {
	contentWidth := max(40, m.width-4)
	panel := m.theme.panel.Width(contentWidth)
	switch m.session.View() {
	case analysis.ViewResults:
		return panel.Render(m.renderResults())
	case analysis.ViewLoading:
		return panel.Render(m.renderLoading())
	default:
		return panel.Render(m.renderPlaceholder(contentWidth))
	}
}

func (m model) renderResults() string {
	attempt := m.session.Attempt()
	header := m.theme.panelTitle.Render("Analysis Results") + "\n" +
		m.theme.helpText.Render("Saved to: ") + m.theme.code.Render(cmp.Or(attempt.SavedTo, "-"))
	return header + "\n\n" + m.results.View()
}

func (m model) renderLoading() string {
	return lipgloss.NewStyle().Padding(1, 0).Render(m.spinner.View() + " " + loadingLabel)
}

func (m model) renderPlaceholder(contentWidth int) string {
	cardWidth := min(max((contentWidth-4)/placeholderCard-2, 8), 40)
	heading := m.theme.cardHeading.Width(max(4, cardWidth-2)).Render(" ")
	body := strings.Repeat("\n", 3)
	cards := make([]string, 0, placeholderCard)
	for i := 0; i < placeholderCard; i++ {
		cards = append(cards, m.theme.card.Width(cardWidth).Render(heading+body))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func (m model) renderFooter() string {
	statusStyle := m.theme.status
	lower := strings.ToLower(m.statusLine)
	if strings.Contains(lower, "failed") || strings.Contains(lower, "error") {
		statusStyle = m.theme.errorStatus
	}
	line := statusStyle.Render(analysis.Compact(m.statusLine, 180))
	hints := m.theme.helpText.Render("Keys: Enter analyze · PgUp/PgDn scroll results · Esc quit prompt · Ctrl+C quit")
	return m.theme.footer.Width(max(40, m.width-4)).Render(line + "\n" + hints)
}

func (m model) renderQuitModal() string {
	canvasWidth := max(40, m.width-4)
	canvasHeight := max(12, m.height-4)
	modalWidth := min(max(canvasWidth/2, 32), 64)
	body := strings.Join([]string{
		m.theme.modalConfirm.Render("Quit " + appTitle + "?"),
		"",
		m.theme.status.Render("[Y / Enter] Quit") + "    " + m.theme.helpText.Render("[N / Esc] Return"),
	}, "\n")
	return lipgloss.Place(canvasWidth, canvasHeight, lipgloss.Center, lipgloss.Center, m.theme.modal.Width(modalWidth).Render(body))
}

func formatPayload(payload json.RawMessage) string {
	if len(bytes.TrimSpace(payload)) == 0 {
		return "null"
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, payload, "", "  "); err != nil {
		return string(payload)
	}
	return buf.String()
}

// renderPayload pretty-prints the opaque result as a fenced JSON block,
// falling back to the indented text when no renderer is available.
func renderPayload(r *glamour.TermRenderer, payload json.RawMessage) string {
	text := formatPayload(payload)
	if r == nil {
		return text
	}
	out, err := r.Render("```json\n" + text + "\n```\n")
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

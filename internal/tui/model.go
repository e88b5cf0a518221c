package tui

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"hybridrag/internal/service"
)

// SearchPort is the TUI-facing subset of the retrieval service.
type SearchPort interface {
	Query(ctx context.Context, text string, topK int) service.QueryResponse
}

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	service  SearchPort
	topK     int
	input    textinput.Model
	viewport viewport.Model
	resp     service.QueryResponse
	summary  string
	status   string
	cursor   int
	ready    bool
}

// New creates a new TUI model instance.
func New(svc SearchPort, summary string, topK int) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type query and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	if topK <= 0 {
		topK = 10
	}
	return Model{service: svc, topK: topK, input: ti, viewport: vp, summary: summary, status: "Loaded. Type to search."}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// account for frames around result and query boxes
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header + summary, status, query box, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, max(3, msg.Height-reserved)-rh)
		m.viewport.SetContent(m.renderCurrentResult())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			if q := strings.TrimSpace(m.input.Value()); q != "" {
				m.resp = m.service.Query(context.Background(), q, m.topK)
				m.cursor = 0
				m.status = fmt.Sprintf("%d results for %q (lang=%s, %.1fms)", len(m.resp.Documents), q, m.resp.QueryLang, m.resp.LatencyMS)
				if m.resp.SemanticFallback {
					m.status += " [lexical only]"
				}
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		case "down":
			if n := len(m.resp.Documents); n > 0 {
				m.cursor = (m.cursor + 1) % n
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		case "up":
			if n := len(m.resp.Documents); n > 0 {
				m.cursor = (m.cursor - 1 + n) % n
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the TUI layout and current result.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Hybrid Retrieval")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + summary + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderCurrentResult() string {
	if len(m.resp.Documents) == 0 {
		return "No results yet."
	}
	d := m.resp.Documents[m.cursor]
	title := fmt.Sprintf("Result %d/%d  doc=%s  score=%.3f  conf=%.2f  lang=%s",
		m.cursor+1, len(m.resp.Documents), d.DocID, d.Score, d.Confidence, d.Language)
	detail := metaStyle.Render(fmt.Sprintf("lexical=%.3f  semantic=%.3f  matched=%s",
		d.LexicalScore, d.SemanticScore, strings.Join(d.Highlights, ", ")))
	return title + "\n" + detail + "\n\n" + highlightTerms(d.Text, d.Highlights)
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	metaStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// highlightTerms styles every whitespace-separated token of text that is one of the matched
// terms. Whitespace runs are kept as they are.
func highlightTerms(text string, terms []string) string {
	if len(terms) == 0 {
		return text
	}
	set := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		set[t] = struct{}{}
	}
	var b strings.Builder
	start := -1
	flush := func(end int) {
		tok := text[start:end]
		if _, ok := set[tok]; ok {
			tok = highlightStyle.Render(tok)
		}
		b.WriteString(tok)
		start = -1
	}
	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				flush(i)
			}
			b.WriteRune(r)
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		flush(len(text))
	}
	return b.String()
}

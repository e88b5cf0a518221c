package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hybridrag/internal/service"
)

type fakePort struct {
	calls []string
	topK  int
	resp  service.QueryResponse
}

func (f *fakePort) Query(_ context.Context, text string, topK int) service.QueryResponse {
	f.calls = append(f.calls, text)
	f.topK = topK
	return f.resp
}

func sized(t *testing.T, m Model) Model {
	t.Helper()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model)
}

func TestModel_QueryOnEnter(t *testing.T) {
	port := &fakePort{resp: service.QueryResponse{
		QueryLang: "en",
		Documents: []service.RetrievedDocument{
			{DocID: "3", Text: "the cat sat", Score: 1.2, Confidence: 1, Language: "en", Highlights: []string{"cat"}},
			{DocID: "7", Text: "a dog", Score: 0.4, Confidence: 0.33, Language: "en"},
		},
	}}
	m := sized(t, New(port, "summary text", 4))
	m.input.SetValue("  cat  ")

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)

	require.Equal(t, []string{"cat"}, port.calls)
	assert.Equal(t, 4, port.topK)
	assert.Contains(t, m.status, `2 results for "cat"`)
	assert.Contains(t, m.renderCurrentResult(), "doc=3")

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(Model)
	assert.Contains(t, m.renderCurrentResult(), "doc=7")

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(Model)
	assert.Contains(t, m.renderCurrentResult(), "doc=3")

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = next.(Model)
	assert.Contains(t, m.renderCurrentResult(), "doc=7")
}

func TestModel_BlankQueryIsIgnored(t *testing.T) {
	port := &fakePort{}
	m := sized(t, New(port, "", 0))

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Empty(t, port.calls)
	assert.Equal(t, 10, next.(Model).topK)
	assert.Contains(t, next.(Model).View(), "No results yet.")
}

func TestModel_ViewBeforeSize(t *testing.T) {
	assert.Equal(t, "Loading...", New(&fakePort{}, "", 1).View())
}

func TestModel_QuitKeys(t *testing.T) {
	_, cmd := New(&fakePort{}, "", 1).Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestHighlightTerms(t *testing.T) {
	assert.Equal(t, "plain text", highlightTerms("plain text", nil))
	out := highlightTerms("the cat sat", []string{"cat"})
	assert.Contains(t, out, "the")
	assert.Contains(t, out, "cat")
	assert.Contains(t, out, "sat")
}

func TestHighlightTerms_KeepsLayout(t *testing.T) {
	text := "  first line\n\tcat  indented\n\nlast "

	assert.Equal(t, text, highlightTerms(text, []string{"absent"}))

	out := highlightTerms(text, []string{"cat"})
	assert.True(t, strings.HasPrefix(out, "  first line\n\t"))
	assert.True(t, strings.HasSuffix(out, "  indented\n\nlast "))
	assert.Equal(t, 3, strings.Count(out, "\n"))
}

package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractqa/internal/domain"
	"contractqa/internal/service"
)

type stubAsker struct {
	res service.Result
	err error
	got []string
}

func (s *stubAsker) Ask(_ context.Context, q string) (service.Result, error) {
	s.got = append(s.got, q)
	return s.res, s.err
}

func sized(t *testing.T, m Model) Model {
	t.Helper()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model)
}

func submit(t *testing.T, m Model, text string) (Model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(text)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(Model), cmd
}

func TestModel_AskRendersAnswer(t *testing.T) {
	asker := &stubAsker{res: service.Result{
		Outcome:  domain.OutcomeExtractiveHit,
		Answer:   domain.Answer{Text: "governed by the laws of California", Citations: []string{"law"}, Mode: domain.ModeExtractive},
		Hits:     []service.Hit{{ID: "law", Score: 0.42}},
		Contexts: []service.Context{{ID: "law", Title: "Governing Law", Text: "Intro. This Agreement is governed by the laws of California."}},
	}}
	m := sized(t, New(asker, "contract.md", domain.Overview{Text: "A services agreement.", Citations: []string{"seg_0"}}))
	assert.Contains(t, m.View(), "A services agreement.")

	m, cmd := submit(t, m, "  governing law?  ")
	require.NotNil(t, cmd)
	assert.True(t, m.busy)

	next, _ := m.Update(cmd())
	m = next.(Model)
	assert.Equal(t, []string{"governing law?"}, asker.got)
	assert.False(t, m.busy)
	view := m.renderResult()
	assert.Contains(t, view, "governed by the laws of California")
	assert.Contains(t, view, "mode=extractive")
	assert.Contains(t, view, "citations=[law]")
	assert.Contains(t, view, "score=0.420")
}

func TestModel_AskError(t *testing.T) {
	asker := &stubAsker{err: errors.New("invalid query")}
	m := sized(t, New(asker, "doc", domain.Overview{}))
	m, cmd := submit(t, m, "hello")
	next, _ := m.Update(cmd())
	m = next.(Model)
	assert.Equal(t, "Error: invalid query", m.status)
	assert.Nil(t, m.result)
}

func TestModel_ExitWords(t *testing.T) {
	for _, word := range []string{"exit", "QUIT", "q"} {
		m := sized(t, New(&stubAsker{}, "doc", domain.Overview{}))
		_, cmd := submit(t, m, word)
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
	}
}

func TestModel_Reloaded(t *testing.T) {
	m := sized(t, New(&stubAsker{}, "doc", domain.Overview{Text: "old"}))
	next, _ := m.Update(ReloadedMsg{Segments: 4, Overview: domain.Overview{Text: "new"}})
	m = next.(Model)
	assert.Equal(t, "new", m.overview.Text)
	assert.Contains(t, m.status, "4 segments")
}

func TestHighlightBestSentence(t *testing.T) {
	text := "Payment is due monthly. The laws of California govern. Notices go by mail."
	out := highlightBestSentence(text, "which laws govern")
	assert.Contains(t, out, "Payment is due monthly.")
	assert.Contains(t, out, highlightStyle.Render("The laws of California govern."))
	assert.Equal(t, "", highlightBestSentence("", "x"))
}

func TestTokenOverlapScore(t *testing.T) {
	q := toTokenSet("Party's notice")
	assert.Equal(t, 2, tokenOverlapScore(q, "Each party's notice, notice and notice."))
	assert.Equal(t, 0, tokenOverlapScore(q, "nothing here"))
}

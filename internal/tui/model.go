package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"contractqa/internal/chunker"
	"contractqa/internal/domain"
	"contractqa/internal/service"
)

// Asker is the TUI-facing subset of the engine bound to one document.
type Asker interface {
	Ask(ctx context.Context, question string) (service.Result, error)
}

// ReloadedMsg tells the model that the document was re-indexed.
type ReloadedMsg struct {
	Segments int
	Overview domain.Overview
}

type answerMsg struct {
	question string
	result   service.Result
	err      error
}

// Model is the Bubble Tea model for the chat view.
type Model struct {
	asker     Asker
	title     string
	input     textinput.Model
	viewport  viewport.Model
	overview  domain.Overview
	result    *service.Result
	status    string
	cursor    int
	ready     bool
	busy      bool
	lastQuery string
}

// New creates a chat model over asker. title names the document.
func New(asker Asker, title string, overview domain.Overview) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about the contract and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{asker: asker, title: title, input: ti, viewport: vp, overview: overview, status: "Index ready. Ask a question."}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header and overview, status, spacer
		vh := max(3, msg.Height-reserved)
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderResult())
		return m, nil
	case answerMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			m.result = nil
		} else {
			m.status = fmt.Sprintf("%s for %q in %.0f ms", msg.result.Outcome, msg.question, msg.result.Timings.TotalMS)
			m.result = &msg.result
			m.cursor = 0
			m.lastQuery = msg.question
		}
		m.viewport.SetContent(m.renderResult())
		return m, nil
	case ReloadedMsg:
		m.overview = msg.Overview
		m.status = fmt.Sprintf("Document changed, re-indexed %d segments.", msg.Segments)
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			switch strings.ToLower(q) {
			case "":
				return m, nil
			case "exit", "quit", "q":
				return m, tea.Quit
			}
			if m.busy {
				return m, nil
			}
			m.busy = true
			m.status = "Thinking..."
			m.input.SetValue("")
			return m, m.ask(q)
		case "down":
			if n := m.contexts(); n > 0 {
				m.cursor = (m.cursor + 1) % n
				m.viewport.SetContent(m.renderResult())
				return m, nil
			}
		case "up":
			if n := m.contexts(); n > 0 {
				m.cursor = (m.cursor - 1 + n) % n
				m.viewport.SetContent(m.renderResult())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(q string) tea.Cmd {
	asker := m.asker
	return func() tea.Msg {
		res, err := asker.Ask(context.Background(), q)
		return answerMsg{question: q, result: res, err: err}
	}
}

func (m Model) contexts() int {
	if m.result == nil {
		return 0
	}
	return len(m.result.Contexts)
}

// View renders the TUI layout and current answer.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Contract Q&A · " + m.title)
	overview := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(firstLine(m.overview.Text))
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + overview + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderResult() string {
	if m.result == nil {
		if m.overview.Text == "" {
			return "No answer yet."
		}
		return "Overview\n\n" + m.overview.Text + "\n\n" + dimStyle.Render("Sources: "+strings.Join(m.overview.Citations, ", "))
	}
	r := m.result
	var b strings.Builder
	b.WriteString(answerStyle.Render(r.Answer.Text))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("mode=%s  citations=[%s]", r.Answer.Mode, strings.Join(r.Answer.Citations, ", "))))
	if len(r.Contexts) == 0 {
		return b.String()
	}
	c := r.Contexts[m.cursor]
	score := 0.0
	for _, h := range r.Hits {
		if h.ID == c.ID {
			score = h.Score
			break
		}
	}
	fmt.Fprintf(&b, "\n\nContext %d/%d  [%s] %s  score=%.3f\n\n", m.cursor+1, len(r.Contexts), c.ID, c.Title, score)
	b.WriteString(highlightBestSentence(c.Text, m.lastQuery))
	return b.String()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	answerStyle    = lipgloss.NewStyle().Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	unicodeWordRe  = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
)

func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := chunker.SplitSentences(text)
	if len(sentences) == 0 {
		sentences = []string{strings.TrimSpace(text)}
	}
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx := 0
	bestScore := -1
	for i, s := range sentences {
		score := tokenOverlapScore(qTokens, s)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	sentences[bestIdx] = highlightStyle.Render(sentences[bestIdx])
	return strings.Join(sentences, " ")
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	tokens := unicodeWordRe.FindAllString(strings.ToLower(sentence), -1)
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}

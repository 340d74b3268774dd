package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pdfrag/internal/query"
)

// QueryPort is the console-facing subset of the query pipeline.
type QueryPort interface {
	Run(ctx context.Context, question, imageBase64 string) query.Result
}

// Model is the Bubble Tea model for the interactive question console.
type Model struct {
	pipeline QueryPort
	input    textinput.Model
	viewport viewport.Model
	result   *query.Result
	status   string
	cursor   int // 0 = answer, 1..n = retrieved passages
	ready    bool
	busy     bool
}

type queryDoneMsg query.Result

// New creates a console model around the query pipeline.
func New(pipeline QueryPort) Model {
	ti := textinput.New()
	ti.Prompt = "? "
	ti.Placeholder = "Ask a question about the ingested documents"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{pipeline: pipeline, input: ti, viewport: vp, status: "Ready. Type a question and press Enter."}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 // header, status, input frame, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderCurrent())
		return m, nil
	case queryDoneMsg:
		res := query.Result(msg)
		m.busy = false
		m.result = &res
		m.cursor = 0
		if res.Success {
			m.status = fmt.Sprintf("Answered. %d passages retrieved. Up/Down to browse.", res.SearchCount)
		} else {
			m.status = fmt.Sprintf("Failed at %s: %s", res.Step, res.Message)
		}
		m.viewport.SetContent(m.renderCurrent())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" && !m.busy {
				m.busy = true
				m.status = "Thinking..."
				pipeline := m.pipeline
				return m, func() tea.Msg {
					return queryDoneMsg(pipeline.Run(context.Background(), q, ""))
				}
			}
		case "down":
			if n := m.entries(); n > 0 {
				m.cursor = (m.cursor + 1) % n
				m.viewport.SetContent(m.renderCurrent())
				return m, nil
			}
		case "up":
			if n := m.entries(); n > 0 {
				m.cursor = (m.cursor - 1 + n) % n
				m.viewport.SetContent(m.renderCurrent())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the console layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("PDF RAG Console")
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	body := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + body + "\n" + input + "\n" + status
}

// entries counts browsable views: the answer plus each passage.
func (m Model) entries() int {
	if m.result == nil {
		return 0
	}
	return 1 + len(m.result.SearchResults)
}

func (m Model) renderCurrent() string {
	if m.result == nil {
		return "No answer yet."
	}
	r := m.result
	if m.cursor == 0 {
		title := answerTitleStyle.Render("Answer")
		if !r.Success {
			title = answerTitleStyle.Render("Failed (" + r.Step + ")")
		}
		body := r.Answer
		if body == "" {
			body = r.Message
		}
		sub := ""
		if r.TranslatedQuestion != "" {
			sub = subtleStyle.Render("translated: "+r.TranslatedQuestion) + "\n\n"
		}
		return title + "\n\n" + sub + body
	}
	p := r.SearchResults[m.cursor-1]
	title := fmt.Sprintf("Passage %d/%d  score=%.3f  page=%d",
		m.cursor, len(r.SearchResults), p.Score, p.Metadata.PageNum)
	return title + "\n\n" + p.Content
}

var (
	resultBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	answerTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	subtleStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

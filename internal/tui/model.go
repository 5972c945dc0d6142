package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"bookrag/internal/domain"
)

// RAGPort is the TUI-facing subset of the RAG service.
type RAGPort interface {
	ProcessQuery(ctx context.Context, query domain.Query) (domain.Answer, error)
}

// Model is the Bubble Tea model for the chat client.
type Model struct {
	service   RAGPort
	input     textinput.Model
	viewport  viewport.Model
	answer    *domain.Answer
	status    string
	cursor    int
	ready     bool
	sessionID string
}

// New creates a new chat model. One session id covers the whole TUI run.
func New(service RAGPort) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question about the textbook and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		service:   service,
		input:     ti,
		viewport:  vp,
		status:    "Ready. Type a question to begin.",
		sessionID: uuid.NewString(),
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := answerBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 // header + status + input frame + spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderAnswer())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				answer, err := m.service.ProcessQuery(context.Background(), domain.Query{
					Text:      q,
					Mode:      domain.ModeFullBook,
					SessionID: m.sessionID,
				})
				if err != nil {
					m.status = "Error: " + err.Error()
					m.answer = nil
				} else {
					m.status = fmt.Sprintf("Answered with %d sources (confidence %.2f)", answer.RetrievedChunks, answer.ConfidenceScore)
					m.answer = &answer
					m.cursor = 0
					m.input.SetValue("")
				}
				m.viewport.SetContent(m.renderAnswer())
				return m, nil
			}
		case "down":
			if m.answer != nil && len(m.answer.SourceCitations) > 0 {
				m.cursor = (m.cursor + 1) % len(m.answer.SourceCitations)
				m.viewport.SetContent(m.renderAnswer())
				return m, nil
			}
		case "up":
			if m.answer != nil && len(m.answer.SourceCitations) > 0 {
				m.cursor = (m.cursor - 1 + len(m.answer.SourceCitations)) % len(m.answer.SourceCitations)
				m.viewport.SetContent(m.renderAnswer())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Textbook Chat")
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	answer := answerBoxStyle.Render(m.viewport.View())
	return header + "\n" + answer + "\n" + input + "\n" + status
}

func (m Model) renderAnswer() string {
	if m.answer == nil {
		return "No answer yet."
	}
	var b strings.Builder
	b.WriteString(m.answer.ResponseText)
	if len(m.answer.SourceCitations) > 0 {
		c := m.answer.SourceCitations[m.cursor]
		b.WriteString("\n\n")
		b.WriteString(citationTitleStyle.Render(fmt.Sprintf(
			"Source %d/%d: %s - %s (relevance %.2f)",
			m.cursor+1, len(m.answer.SourceCitations), c.ChapterTitle, c.SectionType, c.RelevanceScore,
		)))
		b.WriteString("\n")
		b.WriteString(c.ChunkText)
	}
	return b.String()
}

var (
	answerBoxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	citationTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

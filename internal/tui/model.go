package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/0xcro3dile/privategpt-go/internal/adapters/loader"
	"github.com/0xcro3dile/privategpt-go/internal/domain/entities"
	"github.com/0xcro3dile/privategpt-go/internal/domain/ports"
)

const (
	Greeting    = "Ask anything about the file you uploaded!"
	Placeholder = "Ask anything about your file..."
	welcome     = "Use this chatbot to ask questions to an AI about your files! Open a file with :open <path>."
)

// SessionPort is the TUI-facing subset of a session.
type SessionPort interface {
	Upload(ctx context.Context, up entities.Upload) (*entities.Document, error)
	Ask(ctx context.Context, question string, sink ports.TokenSink) (string, error)
	Transcript() []entities.Message
	Document() *entities.Document
}

type uploadedMsg struct {
	doc *entities.Document
	err error
}

type tokenMsg string

type answeredMsg struct {
	err error
}

// Model is the Bubble Tea model for the chat UI.
type Model struct {
	ctx      context.Context
	session  SessionPort
	input    textinput.Model
	viewport viewport.Model
	status   string
	ready    bool

	openPath string

	streaming bool
	question  string
	partial   string
	stream    chan tea.Msg
}

// New creates a chat model. A non-empty openPath is uploaded on start.
func New(ctx context.Context, session SessionPort, openPath string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = Placeholder
	ti.Focus()
	ti.CharLimit = 0
	return Model{
		ctx:      ctx,
		session:  session,
		input:    ti,
		viewport: viewport.New(0, 0),
		status:   welcome,
		openPath: strings.TrimSpace(openPath),
	}
}

func (m Model) Init() tea.Cmd {
	if m.openPath != "" {
		return tea.Batch(textinput.Blink, m.upload(m.openPath))
	}
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 2 + 1 + ih + th // header, document line, status
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved)
		m.refresh()
		return m, nil

	case uploadedMsg:
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		m.status = fmt.Sprintf("Loaded %s", msg.doc.Name)
		m.refresh()
		return m, nil

	case tokenMsg:
		m.partial += string(msg)
		m.refresh()
		return m, waitForStream(m.stream)

	case answeredMsg:
		m.streaming = false
		m.question, m.partial = "", ""
		m.stream = nil
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else {
			m.status = ""
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.String() == "enter" {
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	if line == "" || m.streaming {
		return m, nil
	}
	m.input.SetValue("")

	switch {
	case line == ":q" || line == ":quit":
		return m, tea.Quit
	case strings.HasPrefix(line, ":open"):
		path := strings.TrimSpace(strings.TrimPrefix(line, ":open"))
		if path == "" {
			m.status = "Usage: :open <path>"
			return m, nil
		}
		m.status = "Embedding file..."
		return m, m.upload(path)
	}

	if m.session.Document() == nil {
		m.status = "Upload a .txt .pdf or .docx file first with :open <path>"
		return m, nil
	}
	return m.ask(line)
}

func (m Model) upload(path string) tea.Cmd {
	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		up, err := loader.ReadUpload(path)
		if err != nil {
			return uploadedMsg{err: err}
		}
		doc, err := session.Upload(ctx, up)
		return uploadedMsg{doc: doc, err: err}
	}
}

// ask runs the question in the background; tokens come back one message at
// a time through the stream channel.
func (m Model) ask(question string) (tea.Model, tea.Cmd) {
	stream := make(chan tea.Msg, 64)
	ctx, session := m.ctx, m.session
	go func() {
		defer close(stream)
		send := func(msg tea.Msg) {
			select {
			case stream <- msg:
			case <-ctx.Done():
			}
		}
		_, err := session.Ask(ctx, question, func(tok ports.StreamToken) {
			if !tok.Done {
				send(tokenMsg(tok.Content))
			}
		})
		send(answeredMsg{err: err})
	}()

	m.streaming = true
	m.question = question
	m.partial = ""
	m.stream = stream
	m.status = "Thinking..."
	m.refresh()
	return m, waitForStream(stream)
}

func waitForStream(stream chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-stream
		if !ok {
			return nil
		}
		return msg
	}
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("PrivateGPT")
	docLine := "No document loaded"
	if doc := m.session.Document(); doc != nil {
		docLine = "Document: " + doc.Name
	}
	return header + "\n" +
		dimStyle.Render(docLine) + "\n" +
		transcriptBoxStyle.Render(m.viewport.View()) + "\n" +
		inputBoxStyle.Render(m.input.View()) + "\n" +
		statusStyle.Render(m.status)
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m Model) renderTranscript() string {
	if m.session.Document() == nil {
		return dimStyle.Render("No file yet. Type :open <path> to upload a .txt .pdf or .docx file.")
	}

	wrap := lipgloss.NewStyle().Width(max(10, m.viewport.Width-4))
	var b strings.Builder
	writeMessage := func(role entities.Role, text string) {
		label := aiStyle.Render("ai")
		if role == entities.RoleHuman {
			label = humanStyle.Render("you")
		}
		b.WriteString(label + "\n" + wrap.Render(text) + "\n\n")
	}

	writeMessage(entities.RoleAI, Greeting)
	for _, msg := range m.session.Transcript() {
		writeMessage(msg.Role, msg.Text)
	}
	if m.streaming {
		writeMessage(entities.RoleHuman, m.question)
		writeMessage(entities.RoleAI, m.partial+"▊")
	}
	return strings.TrimRight(b.String(), "\n")
}

var (
	headerStyle        = lipgloss.NewStyle().Bold(true)
	dimStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	humanStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	aiStyle            = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

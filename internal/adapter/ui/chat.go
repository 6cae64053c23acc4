package ui

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"pixtalk/internal/domain/entity"
	"pixtalk/internal/infrastructure/capture"
	"pixtalk/internal/usecase"
)

type threadMsg struct {
	thread *entity.ChatThread
}

type sentMsg struct {
	err error
}

type dictationMsg struct {
	err error
}

type cameraMsg struct {
	err error
}

type attachMsg struct {
	name string
	err  error
}

// ChatModel renders one conversation: header, live message list, capture
// overlays, emoji picker, input. All chat state lives in the view-model;
// this layer only maps it to frames and forwards key events.
type ChatModel struct {
	ctx        context.Context
	vm         *usecase.Conversation
	recognizer *capture.SpeechRecognizer
	updates    chan *entity.ChatThread

	viewport   viewport.Model
	input      textinput.Model
	thread     *entity.ChatThread
	emojiIndex int
	sending    bool
	dictating  bool
	status     string
	width      int
	height     int
	ready      bool
}

func NewChatModel(ctx context.Context, vm *usecase.Conversation, recognizer *capture.SpeechRecognizer) *ChatModel {
	session := vm.Session()

	ti := textinput.New()
	ti.CharLimit = 1000
	if session.Blocked() {
		ti.Placeholder = "You cannot send a message"
	} else {
		ti.Placeholder = "Type a message..."
		ti.Focus()
	}

	vp := viewport.New(80, 20)

	updates := make(chan *entity.ChatThread, 8)
	vm.SetOnChange(func(thread *entity.ChatThread) {
		select {
		case updates <- thread:
		default:
		}
	})

	return &ChatModel{
		ctx:        ctx,
		vm:         vm,
		recognizer: recognizer,
		updates:    updates,
		viewport:   vp,
		input:      ti,
	}
}

func (m *ChatModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForThread())
}

func (m *ChatModel) waitForThread() tea.Cmd {
	return func() tea.Msg {
		return threadMsg{thread: <-m.updates}
	}
}

func (m *ChatModel) sendCmd() tea.Cmd {
	return func() tea.Msg {
		return sentMsg{err: m.vm.Send(m.ctx)}
	}
}

func (m *ChatModel) dictateCmd() tea.Cmd {
	return func() tea.Msg {
		return dictationMsg{err: m.recognizer.Recognize(m.ctx)}
	}
}

func (m *ChatModel) attachCmd(path string) tea.Cmd {
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return attachMsg{err: err}
		}
		contentType := mime.TypeByExtension(filepath.Ext(path))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		m.vm.AttachFile(filepath.Base(path), contentType, data)
		return attachMsg{name: filepath.Base(path)}
	}
}

func (m *ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerHeight := 3
		inputHeight := 3
		m.viewport.Width = msg.Width - 2
		m.viewport.Height = msg.Height - headerHeight - inputHeight
		m.input.Width = msg.Width - 4
		m.ready = true
		m.refreshViewport()
		return m, nil

	case threadMsg:
		m.thread = msg.thread
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, m.waitForThread()

	case sentMsg:
		m.sending = false
		m.status = ""
		// send cleanup cleared the draft regardless of outcome
		m.input.SetValue(m.vm.Draft())
		m.refreshViewport()
		return m, nil

	case dictationMsg:
		m.dictating = false
		m.input.SetValue(m.vm.Draft())
		return m, nil

	case cameraMsg:
		return m, nil

	case attachMsg:
		if msg.err != nil {
			m.status = "could not read file"
		} else {
			m.status = "attached " + msg.name
			m.refreshViewport()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *ChatModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.vm.Close()
		return m, tea.Quit
	}

	if m.vm.PickerOpen() {
		return m.handlePickerKey(msg)
	}

	camera := m.vm.Camera()
	switch msg.String() {
	case "ctrl+e":
		m.vm.TogglePicker()
		return m, nil

	case "ctrl+o":
		if camera.State() == capture.CameraIdle {
			return m, func() tea.Msg { return cameraMsg{err: camera.Start(m.ctx)} }
		}
		return m, nil

	case "ctrl+p":
		if camera.State() == capture.CameraStreaming {
			return m, func() tea.Msg { return cameraMsg{err: camera.Capture(m.ctx)} }
		}
		return m, nil

	case "ctrl+r":
		if camera.State() == capture.CameraCaptured {
			return m, func() tea.Msg { return cameraMsg{err: camera.Retry(m.ctx)} }
		}
		return m, nil

	case "esc":
		if camera.State() != capture.CameraIdle {
			camera.Stop()
		}
		return m, nil

	case "ctrl+d":
		if !m.dictating && m.recognizer != nil && m.recognizer.Supported() {
			m.dictating = true
			return m, m.dictateCmd()
		}
		return m, nil

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case "enter":
		if m.sending {
			return m, nil
		}
		value := m.input.Value()
		if path, ok := strings.CutPrefix(value, "/attach "); ok {
			m.input.SetValue("")
			return m, m.attachCmd(strings.TrimSpace(path))
		}
		m.vm.SetDraft(value)
		m.sending = true
		return m, m.sendCmd()

	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.vm.SetDraft(m.input.Value())
		return m, cmd
	}
}

func (m *ChatModel) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "left", "h":
		m.emojiIndex = clampEmojiIndex(m.emojiIndex - 1)
	case "right", "l":
		m.emojiIndex = clampEmojiIndex(m.emojiIndex + 1)
	case "up", "k":
		m.emojiIndex = clampEmojiIndex(m.emojiIndex - 8)
	case "down", "j":
		m.emojiIndex = clampEmojiIndex(m.emojiIndex + 8)
	case "enter":
		m.vm.AppendEmoji(emojiGlyphs[m.emojiIndex])
		m.input.SetValue(m.vm.Draft())
	case "esc", "ctrl+e":
		m.vm.TogglePicker()
	}
	return m, nil
}

func (m *ChatModel) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderMessages())
}

func (m *ChatModel) renderMessages() string {
	if m.thread == nil {
		return helpStyle.Render("Waiting for messages...")
	}

	session := m.vm.Session()
	wrapWidth := m.viewport.Width
	if wrapWidth <= 0 {
		wrapWidth = 80
	}
	now := time.Now()

	var b strings.Builder
	for i, message := range m.thread.Messages {
		if i > 0 {
			b.WriteString("\n")
		}

		style := peerMessageStyle
		if message.IsOwn(session.CurrentUser.ID) {
			style = ownMessageStyle.Width(wrapWidth)
		}

		if message.Img != "" {
			b.WriteString(style.Render(imageStyle.Render("[image] "+message.Img)) + "\n")
		}
		if message.Text != "" {
			b.WriteString(style.Render(wordwrap.String(message.Text, wrapWidth)) + "\n")
		}
		b.WriteString(style.Render(timestampStyle.Render(timeAgo(message.CreatedAt, now))) + "\n")
	}

	// local preview bubble for a staged image, shown before the send
	if pending := m.vm.PendingFile(); pending != nil {
		b.WriteString("\n" + ownMessageStyle.Width(wrapWidth).Render(imageStyle.Render("[pending image] "+pending.Name)) + "\n")
	}

	return b.String()
}

func (m *ChatModel) View() string {
	session := m.vm.Session()

	header := headerStyle.Render(fmt.Sprintf("● %s", session.Peer.Username))

	var overlay string
	switch m.vm.Camera().State() {
	case capture.CameraRequesting:
		overlay = overlayStyle.Render("camera: requesting stream...")
	case capture.CameraStreaming:
		overlay = overlayStyle.Render("camera: live · ctrl+p capture · esc close")
	case capture.CameraCaptured:
		overlay = overlayStyle.Render("camera: frame captured · ctrl+r retry · enter send · esc discard")
	}

	var picker string
	if m.vm.PickerOpen() {
		picker = renderEmojiPicker(m.emojiIndex)
	}

	var inputLine string
	if session.Blocked() {
		inputLine = blockedStyle.Render("You cannot send a message")
	} else {
		inputLine = m.input.View()
	}

	var statusLine string
	switch {
	case m.dictating:
		statusLine = helpStyle.Render("listening...")
	case m.sending:
		statusLine = helpStyle.Render("sending...")
	case m.status != "":
		statusLine = helpStyle.Render(m.status)
	default:
		statusLine = helpStyle.Render("enter send · ctrl+e emoji · ctrl+o camera · ctrl+d dictate · /attach <path>")
	}

	sections := []string{header, m.viewport.View()}
	if overlay != "" {
		sections = append(sections, overlay)
	}
	if picker != "" {
		sections = append(sections, picker)
	}
	sections = append(sections, inputLine, statusLine)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

package ui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixtalk/internal/domain/entity"
	"pixtalk/internal/usecase"
)

func uiSession(blocked bool) entity.Session {
	return entity.Session{
		CurrentUser:       entity.User{ID: "alice", Username: "alice"},
		ChatID:            "chat-A",
		Peer:              entity.User{ID: "bob", Username: "bob"},
		IsReceiverBlocked: blocked,
	}
}

func newUIModel(t *testing.T, blocked bool) *ChatModel {
	t.Helper()
	vm := usecase.NewConversation(uiSession(blocked), nil, nil, nil, nil)
	return NewChatModel(context.Background(), vm, nil)
}

func sized(t *testing.T, m *ChatModel) *ChatModel {
	t.Helper()
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return updated.(*ChatModel)
}

func TestViewShowsPeerAndHelp(t *testing.T) {
	m := sized(t, newUIModel(t, false))

	view := m.View()
	assert.Contains(t, view, "bob")
	assert.Contains(t, view, "ctrl+e emoji")
}

func TestViewBlockedSessionShowsPlaceholder(t *testing.T) {
	m := sized(t, newUIModel(t, true))

	assert.Contains(t, m.View(), "You cannot send a message")
}

func TestThreadUpdateRendersMessages(t *testing.T) {
	m := sized(t, newUIModel(t, false))

	thread := &entity.ChatThread{
		ID: "chat-A",
		Messages: []entity.Message{
			{ID: "m1", SenderID: "bob", Text: "hello there", CreatedAt: time.Now()},
			{ID: "m2", SenderID: "alice", Img: "https://storage.example.com/pic.png", CreatedAt: time.Now()},
		},
	}
	updated, _ := m.Update(threadMsg{thread: thread})
	m = updated.(*ChatModel)

	view := m.View()
	assert.Contains(t, view, "hello there")
	assert.Contains(t, view, "[image] https://storage.example.com/pic.png")
}

func TestEmojiPickerSelectionAppendsToDraft(t *testing.T) {
	m := sized(t, newUIModel(t, false))

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlE})
	m = updated.(*ChatModel)
	require.Contains(t, m.View(), emojiGlyphs[0])

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	m = updated.(*ChatModel)
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(*ChatModel)

	assert.Equal(t, emojiGlyphs[1], m.input.Value())
}

func TestRenderEmojiPickerHighlightsSelection(t *testing.T) {
	panel := renderEmojiPicker(3)
	assert.Contains(t, panel, emojiGlyphs[3])
	assert.Contains(t, panel, "enter pick")
}

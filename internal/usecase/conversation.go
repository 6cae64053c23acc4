package usecase

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"pixtalk/internal/domain/entity"
	"pixtalk/internal/domain/repository"
	"pixtalk/internal/domain/service"
	"pixtalk/internal/infrastructure/capture"
	"pixtalk/pkg/logger"
)

// PendingFile is a locally-selected image waiting to be sent. It exists only
// between selection and the end of the next send attempt.
type PendingFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Conversation is the view-model for one open chat: it owns the draft text,
// pending media, the camera, and the live subscription to the thread
// document. The session context is passed in explicitly so the send and
// subscription logic stay testable without ambient globals.
type Conversation struct {
	threads   repository.ThreadRepository
	userChats repository.UserChatsRepository
	uploads   service.UploadService
	camera    *capture.Camera
	now       func() time.Time

	mu          sync.Mutex
	session     entity.Session
	thread      *entity.ChatThread
	draft       string
	pendingFile *PendingFile
	pickerOpen  bool
	stopWatch   func()
	onChange    func(*entity.ChatThread)
}

func NewConversation(
	session entity.Session,
	threads repository.ThreadRepository,
	userChats repository.UserChatsRepository,
	uploads service.UploadService,
	camera *capture.Camera,
) *Conversation {
	if camera == nil {
		camera = capture.NewCamera(nil, 0, 0)
	}

	return &Conversation{
		threads:   threads,
		userChats: userChats,
		uploads:   uploads,
		camera:    camera,
		now:       time.Now,
		session:   session,
	}
}

func (c *Conversation) Session() entity.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *Conversation) Camera() *capture.Camera {
	return c.camera
}

// SetOnChange registers the UI callback invoked on every remote thread
// change. The callback receives the full current document.
func (c *Conversation) SetOnChange(fn func(*entity.ChatThread)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// Open subscribes to the session's thread document. Any previous
// subscription is cancelled first, exactly once.
func (c *Conversation) Open(ctx context.Context) error {
	c.closeWatch()

	c.mu.Lock()
	chatID := c.session.ChatID
	c.mu.Unlock()

	// initial read, then live updates; every delivery replaces local state
	// wholesale
	if thread, err := c.threads.GetByID(ctx, chatID); err != nil {
		logger.Warn("Initial fetch of chat %s failed: %v", chatID, err)
	} else {
		c.deliver(thread)
	}

	stop, err := c.threads.Watch(ctx, chatID, c.deliver)
	if err != nil {
		return err
	}

	var once sync.Once
	c.mu.Lock()
	c.stopWatch = func() { once.Do(stop) }
	c.mu.Unlock()
	return nil
}

// SwitchChat retargets the view to another conversation: the old watch is
// cancelled, local thread state is dropped, and a new watch starts.
func (c *Conversation) SwitchChat(ctx context.Context, chatID string) error {
	c.closeWatch()

	c.mu.Lock()
	c.session.ChatID = chatID
	c.thread = nil
	c.mu.Unlock()

	return c.Open(ctx)
}

// Close tears the view-model down: the subscription is cancelled exactly
// once and the camera stream, if open, is released.
func (c *Conversation) Close() {
	c.closeWatch()
	c.camera.Stop()
}

func (c *Conversation) deliver(thread *entity.ChatThread) {
	c.mu.Lock()
	c.thread = thread
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn(thread)
	}
}

func (c *Conversation) closeWatch() {
	c.mu.Lock()
	stop := c.stopWatch
	c.stopWatch = nil
	c.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// Thread returns the last thread document delivered by the subscription.
func (c *Conversation) Thread() *entity.ChatThread {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.thread
}

func (c *Conversation) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// SetDraft replaces the draft text. Ignored while either side is blocked,
// matching the disabled input.
func (c *Conversation) SetDraft(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.Blocked() {
		return
	}
	c.draft = text
}

// AppendEmoji adds the selected glyph to the draft and closes the picker.
func (c *Conversation) AppendEmoji(glyph string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pickerOpen = false
	if c.session.Blocked() {
		return
	}
	c.draft += glyph
}

func (c *Conversation) TogglePicker() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pickerOpen = !c.pickerOpen
}

func (c *Conversation) PickerOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pickerOpen
}

// ApplyTranscript is the dictation callback: the recognized text fully
// replaces the current draft, it never appends.
func (c *Conversation) ApplyTranscript(transcript string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.Blocked() {
		return
	}
	c.draft = transcript
}

// AttachFile stages a locally-selected image for the next send.
func (c *Conversation) AttachFile(name, contentType string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingFile = &PendingFile{
		Name:        name,
		ContentType: contentType,
		Data:        data,
	}
}

func (c *Conversation) PendingFile() *PendingFile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingFile
}

// Send runs the send transaction: upload pending media if any, append the
// message to the thread via the store's append-union primitive, then update
// both participants' chat summaries.
//
// The summary fan-out is not atomic with the append nor across the two
// users; two quick sends can race and the later whole-list write wins. The
// thread itself never loses a message. Failures anywhere are logged and
// swallowed; cleanup of draft, pending media and camera state always runs.
func (c *Conversation) Send(ctx context.Context) error {
	c.mu.Lock()
	session := c.session
	text := c.draft
	file := c.pendingFile
	c.mu.Unlock()
	captured := c.camera.Frame()

	if session.Blocked() {
		return nil
	}
	// A selected file with empty text still sends; the empty-send no-op
	// only applies when there is no content of any kind.
	if text == "" && captured == nil && file == nil {
		return nil
	}

	defer c.cleanupAfterSend()

	var imgURL string
	var err error
	switch {
	case file != nil:
		imgURL, err = c.uploads.Upload(ctx, bytes.NewReader(file.Data), file.ContentType)
	case captured != nil:
		imgURL, err = c.uploads.Upload(ctx, bytes.NewReader(captured), "image/png")
	}
	if err != nil {
		logger.Error("Failed to upload image for chat %s: %v", session.ChatID, err)
		return nil
	}

	message := &entity.Message{
		ID:        uuid.New().String(),
		SenderID:  session.CurrentUser.ID,
		Text:      text,
		Img:       imgURL,
		CreatedAt: c.now(),
	}

	if err := c.threads.AppendMessage(ctx, session.ChatID, message); err != nil {
		logger.Error("Failed to append message to chat %s: %v", session.ChatID, err)
		return nil
	}

	now := c.now()
	for _, userID := range []string{session.CurrentUser.ID, session.Peer.ID} {
		seen := userID == session.CurrentUser.ID
		if err := c.updateSummary(ctx, userID, session.ChatID, text, seen, now); err != nil {
			logger.Error("Failed to update chat summary for user %s: %v", userID, err)
		}
	}

	return nil
}

func (c *Conversation) updateSummary(ctx context.Context, userID, chatID, lastMessage string, seen bool, now time.Time) error {
	userChats, err := c.userChats.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}

	if !applySummary(userChats, chatID, lastMessage, seen, now) {
		logger.Warn("No summary entry for chat %s in userchats of %s", chatID, userID)
		return nil
	}

	return c.userChats.Set(ctx, userID, userChats.Chats)
}

// applySummary mutates the entry matching chatID in place and reports
// whether one was found. Entries for other conversations are untouched.
func applySummary(userChats *entity.UserChats, chatID, lastMessage string, seen bool, now time.Time) bool {
	idx := userChats.FindEntry(chatID)
	if idx < 0 {
		return false
	}
	userChats.Chats[idx].LastMessage = lastMessage
	userChats.Chats[idx].IsSeen = seen
	userChats.Chats[idx].UpdatedAt = now
	return true
}

// cleanupAfterSend resets all transient input state whether the send
// succeeded or not: draft, pending file, captured frame, open camera stream.
func (c *Conversation) cleanupAfterSend() {
	c.mu.Lock()
	c.draft = ""
	c.pendingFile = nil
	c.mu.Unlock()
	c.camera.Stop()
}

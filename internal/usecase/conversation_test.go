package usecase

import (
	"context"
	"fmt"
	"image"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixtalk/internal/domain/entity"
	"pixtalk/internal/infrastructure/capture"
	"pixtalk/pkg/errors"
)

type fakeThreadRepo struct {
	mu         sync.Mutex
	messages   map[string][]entity.Message
	appendErr  error
	watchStops map[string]*int
	onChange   func(*entity.ChatThread)
	watchCalls int
}

func newFakeThreadRepo() *fakeThreadRepo {
	return &fakeThreadRepo{
		messages:   make(map[string][]entity.Message),
		watchStops: make(map[string]*int),
	}
}

func (f *fakeThreadRepo) GetByID(ctx context.Context, chatID string) (*entity.ChatThread, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &entity.ChatThread{ID: chatID, Messages: f.messages[chatID]}, nil
}

func (f *fakeThreadRepo) AppendMessage(ctx context.Context, chatID string, message *entity.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	// union semantics: append never overwrites concurrent appends
	f.messages[chatID] = append(f.messages[chatID], *message)
	return nil
}

func (f *fakeThreadRepo) Watch(ctx context.Context, chatID string, onChange func(*entity.ChatThread)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.watchCalls++
	f.onChange = onChange
	stops := new(int)
	f.watchStops[fmt.Sprintf("%s#%d", chatID, f.watchCalls)] = stops
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		*stops++
	}, nil
}

func (f *fakeThreadRepo) messagesIn(chatID string) []entity.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entity.Message, len(f.messages[chatID]))
	copy(out, f.messages[chatID])
	return out
}

type fakeUserChatsRepo struct {
	mu     sync.Mutex
	docs   map[string]*entity.UserChats
	setErr map[string]error
	gets   int
	sets   int
}

func newFakeUserChatsRepo() *fakeUserChatsRepo {
	return &fakeUserChatsRepo{
		docs:   make(map[string]*entity.UserChats),
		setErr: make(map[string]error),
	}
}

func (f *fakeUserChatsRepo) GetByUserID(ctx context.Context, userID string) (*entity.UserChats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	doc, ok := f.docs[userID]
	if !ok {
		return nil, errors.NotFound("User chats", nil)
	}
	copied := &entity.UserChats{UserID: userID, Chats: make([]entity.ChatSummaryEntry, len(doc.Chats))}
	copy(copied.Chats, doc.Chats)
	return copied, nil
}

func (f *fakeUserChatsRepo) Set(ctx context.Context, userID string, chats []entity.ChatSummaryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	if err := f.setErr[userID]; err != nil {
		return err
	}
	// whole-list replace: last write wins, exactly like the real store
	stored := make([]entity.ChatSummaryEntry, len(chats))
	copy(stored, chats)
	f.docs[userID] = &entity.UserChats{UserID: userID, Chats: stored}
	return nil
}

func (f *fakeUserChatsRepo) entry(userID, chatID string) (entity.ChatSummaryEntry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[userID]
	if !ok {
		return entity.ChatSummaryEntry{}, false
	}
	for _, e := range doc.Chats {
		if e.ChatID == chatID {
			return e, true
		}
	}
	return entity.ChatSummaryEntry{}, false
}

type fakeUploader struct {
	mu           sync.Mutex
	uploads      int
	contentTypes []string
	err          error
}

func (f *fakeUploader) Upload(ctx context.Context, file io.Reader, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.uploads++
	f.contentTypes = append(f.contentTypes, contentType)
	return fmt.Sprintf("https://storage.example.com/blob-%d", f.uploads), nil
}

func (f *fakeUploader) Close() error { return nil }

type fakeFrameSource struct {
	mu     sync.Mutex
	closed int
}

func (f *fakeFrameSource) Next(ctx context.Context) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 4, 4)), nil
}

func (f *fakeFrameSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func testSession() entity.Session {
	return entity.Session{
		CurrentUser: entity.User{ID: "alice", Username: "alice"},
		ChatID:      "chat-A",
		Peer:        entity.User{ID: "bob", Username: "bob"},
	}
}

func seedUserChats(repo *fakeUserChatsRepo, userID string) {
	repo.docs[userID] = &entity.UserChats{
		UserID: userID,
		Chats: []entity.ChatSummaryEntry{
			{ChatID: "chat-A", ReceiverID: "bob", LastMessage: "old", IsSeen: false},
			{ChatID: "chat-B", ReceiverID: "carol", LastMessage: "other", IsSeen: true},
		},
	}
}

func newTestConversation(threads *fakeThreadRepo, userChats *fakeUserChatsRepo, uploads *fakeUploader, camera *capture.Camera) *Conversation {
	return NewConversation(testSession(), threads, userChats, uploads, camera)
}

func TestSendEmptyDraftIsNoOp(t *testing.T) {
	threads := newFakeThreadRepo()
	userChats := newFakeUserChatsRepo()
	uploads := &fakeUploader{}
	conv := newTestConversation(threads, userChats, uploads, nil)

	require.NoError(t, conv.Send(context.Background()))

	assert.Empty(t, threads.messagesIn("chat-A"))
	assert.Zero(t, userChats.gets)
	assert.Zero(t, uploads.uploads)
}

func TestSendTextAppendsMessageAndUpdatesSummaries(t *testing.T) {
	threads := newFakeThreadRepo()
	userChats := newFakeUserChatsRepo()
	seedUserChats(userChats, "alice")
	seedUserChats(userChats, "bob")
	uploads := &fakeUploader{}
	conv := newTestConversation(threads, userChats, uploads, nil)

	conv.SetDraft("hey there")
	require.NoError(t, conv.Send(context.Background()))

	messages := threads.messagesIn("chat-A")
	require.Len(t, messages, 1)
	assert.Equal(t, "alice", messages[0].SenderID)
	assert.Equal(t, "hey there", messages[0].Text)
	assert.Empty(t, messages[0].Img)
	assert.NotEmpty(t, messages[0].ID)
	assert.Zero(t, uploads.uploads)

	senderEntry, ok := userChats.entry("alice", "chat-A")
	require.True(t, ok)
	assert.Equal(t, "hey there", senderEntry.LastMessage)
	assert.True(t, senderEntry.IsSeen)

	peerEntry, ok := userChats.entry("bob", "chat-A")
	require.True(t, ok)
	assert.Equal(t, "hey there", peerEntry.LastMessage)
	assert.False(t, peerEntry.IsSeen)

	// the unrelated conversation entry stays untouched
	otherEntry, ok := userChats.entry("alice", "chat-B")
	require.True(t, ok)
	assert.Equal(t, "other", otherEntry.LastMessage)
	assert.True(t, otherEntry.IsSeen)
}

func TestSendSelectedFileWithoutTextStillSends(t *testing.T) {
	threads := newFakeThreadRepo()
	userChats := newFakeUserChatsRepo()
	seedUserChats(userChats, "alice")
	seedUserChats(userChats, "bob")
	uploads := &fakeUploader{}
	conv := newTestConversation(threads, userChats, uploads, nil)

	conv.AttachFile("cat.jpg", "image/jpeg", []byte{0xff, 0xd8})
	require.NoError(t, conv.Send(context.Background()))

	messages := threads.messagesIn("chat-A")
	require.Len(t, messages, 1)
	assert.Empty(t, messages[0].Text)
	assert.NotEmpty(t, messages[0].Img)
	assert.Equal(t, []string{"image/jpeg"}, uploads.contentTypes)
	assert.Nil(t, conv.PendingFile())
}

func TestSendCapturedFrameUploadsPNG(t *testing.T) {
	source := &fakeFrameSource{}
	camera := capture.NewCamera(func(ctx context.Context) (capture.FrameSource, error) {
		return source, nil
	}, 8, 8)

	threads := newFakeThreadRepo()
	userChats := newFakeUserChatsRepo()
	seedUserChats(userChats, "alice")
	seedUserChats(userChats, "bob")
	uploads := &fakeUploader{}
	conv := newTestConversation(threads, userChats, uploads, camera)

	ctx := context.Background()
	require.NoError(t, camera.Start(ctx))
	require.NoError(t, camera.Capture(ctx))
	require.NoError(t, conv.Send(ctx))

	messages := threads.messagesIn("chat-A")
	require.Len(t, messages, 1)
	assert.NotEmpty(t, messages[0].Img)
	assert.Equal(t, []string{"image/png"}, uploads.contentTypes)

	// send cleanup returned the camera to idle with nothing held
	assert.Equal(t, capture.CameraIdle, camera.State())
	assert.Nil(t, camera.Frame())
}

func TestSendCleansUpEvenWhenSummaryUpdateFails(t *testing.T) {
	threads := newFakeThreadRepo()
	userChats := newFakeUserChatsRepo()
	seedUserChats(userChats, "alice")
	seedUserChats(userChats, "bob")
	userChats.setErr["bob"] = errors.Internal("write failed", nil)
	uploads := &fakeUploader{}
	conv := newTestConversation(threads, userChats, uploads, nil)

	conv.SetDraft("doomed fanout")
	conv.AttachFile("dog.png", "image/png", []byte{0x89})
	require.NoError(t, conv.Send(context.Background()))

	// the message itself landed
	assert.Len(t, threads.messagesIn("chat-A"), 1)
	// transient state is gone regardless of the failed summary write
	assert.Empty(t, conv.Draft())
	assert.Nil(t, conv.PendingFile())
}

func TestSendUploadFailureAbandonsAttemptAndCleansUp(t *testing.T) {
	threads := newFakeThreadRepo()
	userChats := newFakeUserChatsRepo()
	uploads := &fakeUploader{err: errors.Unavailable("bucket down", nil)}
	conv := newTestConversation(threads, userChats, uploads, nil)

	conv.SetDraft("with picture")
	conv.AttachFile("cat.jpg", "image/jpeg", []byte{0xff})
	require.NoError(t, conv.Send(context.Background()))

	assert.Empty(t, threads.messagesIn("chat-A"))
	assert.Zero(t, userChats.gets)
	assert.Empty(t, conv.Draft())
	assert.Nil(t, conv.PendingFile())
}

func TestBlockedSessionDisablesInputAndSend(t *testing.T) {
	threads := newFakeThreadRepo()
	userChats := newFakeUserChatsRepo()
	uploads := &fakeUploader{}

	session := testSession()
	session.IsReceiverBlocked = true
	conv := NewConversation(session, threads, userChats, uploads, nil)

	conv.SetDraft("should not stick")
	assert.Empty(t, conv.Draft())

	conv.ApplyTranscript("nor this")
	assert.Empty(t, conv.Draft())

	require.NoError(t, conv.Send(context.Background()))
	assert.Empty(t, threads.messagesIn("chat-A"))
}

func TestConcurrentSendsBothAppendButSummariesRace(t *testing.T) {
	threads := newFakeThreadRepo()
	userChats := newFakeUserChatsRepo()
	seedUserChats(userChats, "alice")
	seedUserChats(userChats, "bob")

	aliceConv := NewConversation(testSession(), threads, userChats, &fakeUploader{}, nil)

	bobSession := entity.Session{
		CurrentUser: entity.User{ID: "bob", Username: "bob"},
		ChatID:      "chat-A",
		Peer:        entity.User{ID: "alice", Username: "alice"},
	}
	bobConv := NewConversation(bobSession, threads, userChats, &fakeUploader{}, nil)

	aliceConv.SetDraft("from alice")
	bobConv.SetDraft("from bob")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = aliceConv.Send(context.Background())
	}()
	go func() {
		defer wg.Done()
		_ = bobConv.Send(context.Background())
	}()
	wg.Wait()

	// append-union keeps both messages at the thread level
	messages := threads.messagesIn("chat-A")
	require.Len(t, messages, 2)
	texts := []string{messages[0].Text, messages[1].Text}
	assert.ElementsMatch(t, []string{"from alice", "from bob"}, texts)

	// the summary read-modify-write is last-write-wins by design: whichever
	// send finished second owns lastMessage, the other update may be lost
	entry, ok := userChats.entry("alice", "chat-A")
	require.True(t, ok)
	assert.Contains(t, []string{"from alice", "from bob"}, entry.LastMessage)
}

func TestDictationReplacesDraft(t *testing.T) {
	conv := newTestConversation(newFakeThreadRepo(), newFakeUserChatsRepo(), &fakeUploader{}, nil)

	conv.SetDraft("foo")
	conv.ApplyTranscript("hello world")

	assert.Equal(t, "hello world", conv.Draft())
}

func TestAppendEmojiClosesPicker(t *testing.T) {
	conv := newTestConversation(newFakeThreadRepo(), newFakeUserChatsRepo(), &fakeUploader{}, nil)

	conv.SetDraft("hi ")
	conv.TogglePicker()
	require.True(t, conv.PickerOpen())

	conv.AppendEmoji("🎉")

	assert.Equal(t, "hi 🎉", conv.Draft())
	assert.False(t, conv.PickerOpen())
}

func TestWatchDeliversWholeDocument(t *testing.T) {
	threads := newFakeThreadRepo()
	conv := newTestConversation(threads, newFakeUserChatsRepo(), &fakeUploader{}, nil)

	var got *entity.ChatThread
	conv.SetOnChange(func(thread *entity.ChatThread) { got = thread })
	require.NoError(t, conv.Open(context.Background()))

	pushed := &entity.ChatThread{ID: "chat-A", Messages: []entity.Message{{ID: "m1", Text: "yo"}}}
	threads.onChange(pushed)

	assert.Equal(t, pushed, got)
	assert.Equal(t, pushed, conv.Thread())
}

func TestSubscriptionCancelledExactlyOnceOnSwitchAndClose(t *testing.T) {
	threads := newFakeThreadRepo()
	conv := newTestConversation(threads, newFakeUserChatsRepo(), &fakeUploader{}, nil)

	ctx := context.Background()
	require.NoError(t, conv.Open(ctx))
	require.NoError(t, conv.SwitchChat(ctx, "chat-B"))
	require.NotNil(t, conv.Thread())
	assert.Equal(t, "chat-B", conv.Thread().ID)

	conv.Close()
	conv.Close() // second teardown must not double-cancel

	assert.Equal(t, 1, *threads.watchStops["chat-A#1"])
	assert.Equal(t, 1, *threads.watchStops["chat-B#2"])
	assert.Equal(t, 2, threads.watchCalls)
}

func TestApplySummaryTargetsOnlyMatchingEntry(t *testing.T) {
	now := time.Now()
	userChats := &entity.UserChats{
		UserID: "alice",
		Chats: []entity.ChatSummaryEntry{
			{ChatID: "A", LastMessage: "old", IsSeen: false},
			{ChatID: "B", LastMessage: "other", IsSeen: true},
		},
	}

	require.True(t, applySummary(userChats, "A", "new", true, now))

	assert.Equal(t, "new", userChats.Chats[0].LastMessage)
	assert.True(t, userChats.Chats[0].IsSeen)
	assert.Equal(t, now, userChats.Chats[0].UpdatedAt)
	assert.Equal(t, "other", userChats.Chats[1].LastMessage)

	assert.False(t, applySummary(userChats, "missing", "x", false, now))
}

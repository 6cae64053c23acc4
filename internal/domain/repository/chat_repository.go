package repository

import (
	"context"

	"pixtalk/internal/domain/entity"
)

// ThreadRepository reads, appends to, and watches chat-thread documents.
type ThreadRepository interface {
	GetByID(ctx context.Context, chatID string) (*entity.ChatThread, error)

	// AppendMessage adds one message to the thread using the store's
	// append-union primitive: concurrent appends from other senders are
	// merged, never overwritten.
	AppendMessage(ctx context.Context, chatID string, message *entity.Message) error

	// Watch subscribes to the thread document. onChange receives the full
	// current document on every remote change; local state is replaced
	// wholesale, there is no incremental merge. The returned stop function
	// cancels the subscription and is safe to call exactly once.
	Watch(ctx context.Context, chatID string, onChange func(*entity.ChatThread)) (stop func(), err error)
}

// UserChatsRepository reads and rewrites per-user chat-summary documents.
//
// Set replaces the whole summary list. Two writers racing on the same
// document lose one update (last write wins); the thread itself is not
// affected because messages travel through AppendMessage.
type UserChatsRepository interface {
	GetByUserID(ctx context.Context, userID string) (*entity.UserChats, error)
	Set(ctx context.Context, userID string, chats []entity.ChatSummaryEntry) error
}

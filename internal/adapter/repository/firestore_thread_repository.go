package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"pixtalk/internal/domain/entity"
	"pixtalk/internal/domain/repository"
	"pixtalk/pkg/errors"
	"pixtalk/pkg/logger"
)

type firestoreThreadRepository struct {
	client *firestore.Client
}

func NewFirestoreThreadRepository(client *firestore.Client) repository.ThreadRepository {
	return &firestoreThreadRepository{
		client: client,
	}
}

func (r *firestoreThreadRepository) GetByID(ctx context.Context, chatID string) (*entity.ChatThread, error) {
	doc, err := r.client.Collection("chats").Doc(chatID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Chat", err)
		}
		return nil, errors.Internal("Failed to get chat", err)
	}

	var thread entity.ChatThread
	if err := doc.DataTo(&thread); err != nil {
		return nil, errors.Internal("Failed to parse chat data", err)
	}
	thread.ID = doc.Ref.ID

	return &thread, nil
}

func (r *firestoreThreadRepository) AppendMessage(ctx context.Context, chatID string, message *entity.Message) error {
	// ArrayUnion is the append-union primitive: two senders appending at the
	// same time both land in the array, unlike a read-modify-write of the
	// whole messages field.
	_, err := r.client.Collection("chats").Doc(chatID).Update(ctx, []firestore.Update{
		{Path: "messages", Value: firestore.ArrayUnion(message)},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Chat", err)
		}
		return errors.Internal("Failed to append message", err)
	}

	return nil
}

func (r *firestoreThreadRepository) Watch(ctx context.Context, chatID string, onChange func(*entity.ChatThread)) (func(), error) {
	watchCtx, cancel := context.WithCancel(ctx)
	iter := r.client.Collection("chats").Doc(chatID).Snapshots(watchCtx)

	go func() {
		defer iter.Stop()
		for {
			snap, err := iter.Next()
			if err != nil {
				// Cancellation ends the listener; anything else is the
				// client's reconnect policy giving up.
				if status.Code(err) != codes.Canceled {
					logger.Error("Snapshot listener for chat %s stopped: %v", chatID, err)
				}
				return
			}
			if !snap.Exists() {
				continue
			}

			var thread entity.ChatThread
			if err := snap.DataTo(&thread); err != nil {
				logger.Error("Failed to parse chat snapshot for %s: %v", chatID, err)
				continue
			}
			thread.ID = snap.Ref.ID

			onChange(&thread)
		}
	}()

	return cancel, nil
}

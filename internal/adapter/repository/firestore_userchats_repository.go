package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"pixtalk/internal/domain/entity"
	"pixtalk/internal/domain/repository"
	"pixtalk/pkg/errors"
)

type firestoreUserChatsRepository struct {
	client *firestore.Client
}

func NewFirestoreUserChatsRepository(client *firestore.Client) repository.UserChatsRepository {
	return &firestoreUserChatsRepository{
		client: client,
	}
}

func (r *firestoreUserChatsRepository) GetByUserID(ctx context.Context, userID string) (*entity.UserChats, error) {
	doc, err := r.client.Collection("userchats").Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("User chats", err)
		}
		return nil, errors.Internal("Failed to get user chats", err)
	}

	var userChats entity.UserChats
	if err := doc.DataTo(&userChats); err != nil {
		return nil, errors.Internal("Failed to parse user chats data", err)
	}
	userChats.UserID = doc.Ref.ID

	return &userChats, nil
}

func (r *firestoreUserChatsRepository) Set(ctx context.Context, userID string, chats []entity.ChatSummaryEntry) error {
	// Whole-list write. A concurrent writer's summary update can be lost
	// here (last write wins); messages themselves are safe because the
	// thread uses ArrayUnion.
	_, err := r.client.Collection("userchats").Doc(userID).Update(ctx, []firestore.Update{
		{Path: "chats", Value: chats},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("User chats", err)
		}
		return errors.Internal("Failed to update user chats", err)
	}

	return nil
}

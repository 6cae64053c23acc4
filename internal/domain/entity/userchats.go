package entity

import "time"

// UserChats is the per-user inbox document: one ChatSummaryEntry per
// conversation the user participates in, keyed by ChatID.
type UserChats struct {
	UserID string             `json:"user_id" firestore:"userId"`
	Chats  []ChatSummaryEntry `json:"chats" firestore:"chats"`
}

type ChatSummaryEntry struct {
	ChatID      string    `json:"chat_id" firestore:"chatId"`
	ReceiverID  string    `json:"receiver_id" firestore:"receiverId"`
	LastMessage string    `json:"last_message" firestore:"lastMessage"`
	IsSeen      bool      `json:"is_seen" firestore:"isSeen"`
	UpdatedAt   time.Time `json:"updated_at" firestore:"updatedAt"`
}

// FindEntry locates the summary entry for chatID by linear scan. Exactly one
// entry exists per chatID; -1 means the document is missing the conversation.
func (u *UserChats) FindEntry(chatID string) int {
	for i := range u.Chats {
		if u.Chats[i].ChatID == chatID {
			return i
		}
	}
	return -1
}

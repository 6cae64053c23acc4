package entity

import "time"

// ChatThread is the document holding one conversation's ordered messages.
// Messages are append-only; insertion order is chronological order.
type ChatThread struct {
	ID           string    `json:"id" firestore:"id"`
	Participants []string  `json:"participants" firestore:"participants"`
	Messages     []Message `json:"messages" firestore:"messages"`
	CreatedAt    time.Time `json:"created_at" firestore:"createdAt"`
}

// Message is immutable once created. Either Text or Img is non-empty at
// creation; that is enforced by the sender, not by storage.
type Message struct {
	ID        string    `json:"id" firestore:"id"`
	SenderID  string    `json:"sender_id" firestore:"senderId"`
	Text      string    `json:"text" firestore:"text"`
	Img       string    `json:"img,omitempty" firestore:"img,omitempty"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}

func (m Message) IsOwn(userID string) bool {
	return m.SenderID == userID
}

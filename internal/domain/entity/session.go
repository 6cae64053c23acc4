package entity

// User is the slice of profile data the chat view needs.
type User struct {
	ID       string `json:"id" firestore:"id"`
	Username string `json:"username" firestore:"username"`
	Avatar   string `json:"avatar,omitempty" firestore:"avatar,omitempty"`
}

// Session is the read-only context the conversation runs under: who is
// talking, in which chat, and whether either side has blocked the other.
// It is supplied by external selection/auth flows and never mutated here.
type Session struct {
	CurrentUser          User
	ChatID               string
	Peer                 User
	IsCurrentUserBlocked bool
	IsReceiverBlocked    bool
}

// Blocked reports whether sending and input are disabled for this session.
func (s Session) Blocked() bool {
	return s.IsCurrentUserBlocked || s.IsReceiverBlocked
}

package models

import "time"

// Conversation roles, matching the Gemini chat API.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// ConversationTurn is one persisted message of the chat history. Turns are
// append-only; ordering by creation time defines conversation order.
type ConversationTurn struct {
	ID        int64     `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

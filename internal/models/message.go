package models

import "time"

// ChatMessage is a persisted chat utterance. It is never mutated after insert.
type ChatMessage struct {
	ID        string    `db:"id" json:"id"`
	Content   string    `db:"content" json:"content"`
	UserID    string    `db:"user_id" json:"user_id"`
	Username  string    `db:"username" json:"username"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ChatMessagePage is one page of history plus the unpaginated total.
type ChatMessagePage struct {
	Messages []ChatMessage `json:"messages"`
	Total    int           `json:"total"`
}

package models

import "time"

// Update is a board announcement.
type Update struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	ContentMD string    `db:"content_md" json:"content_md"`
	CreatedBy string    `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

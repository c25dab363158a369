package models

import "time"

// Todo is a user-owned task. Files carries attachment metadata for API
// responses; the binary content lives in object storage.
type Todo struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	Comment     string    `json:"comment,omitempty"`
	Files       []File    `json:"files"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TodoPatch is the explicit allow-list of fields a client may change on an
// existing todo. Nil fields are left untouched; the owner and timestamps can
// never be overwritten through a patch.
type TodoPatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
	Comment     *string `json:"comment"`
}

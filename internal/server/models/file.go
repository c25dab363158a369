package models

import "time"

// File describes server-side metadata for an attachment bound to a todo. The
// binary content itself is stored in object storage under StorageKey.
//
// DownloadLink is derived from the file id and name at upload time and is the
// handle exposed to clients; it must stay identical everywhere it appears.
type File struct {
	ID           string    `json:"id"`
	TodoID       string    `json:"-"`
	Name         string    `json:"name"`
	ContentType  string    `json:"contentType"`
	Size         int64     `json:"size"`
	StorageKey   string    `json:"-"`
	DownloadLink string    `json:"downloadLink"`
	CreatedAt    time.Time `json:"createdAt"`
}

package common

// MaxUploadBytes is the attachment size ceiling (16 MiB). Uploads larger than
// this are rejected before any persistence is attempted.
const MaxUploadBytes = 16 << 20

// DefaultPageSize is the todo-list page size used when the client does not
// supply one.
const DefaultPageSize = 10

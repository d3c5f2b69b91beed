package entity

import "time"

// Image is a profile image stored verbatim, byte for byte, on behalf of a
// user. No transformation or deduplication happens anywhere in the system.
type Image struct {
	ID        string
	UserID    string
	FileName  string
	FileType  string
	Data      []byte
	CreatedAt time.Time
}

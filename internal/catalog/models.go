package catalog

import "time"

// VideoRecord describes one stored recording. Records are immutable after
// Append; the catalog only ever adds to the front of its sequence.
type VideoRecord struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"createdAt"`
	StorageKey   string    `json:"storageKey"`
	OriginalName string    `json:"originalName"`
	SizeBytes    int64     `json:"sizeBytes"`
	MimeType     string    `json:"mimeType"`
}

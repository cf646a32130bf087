package model

import "time"

// ProgressRecord mirrors the hosted service's video-progress table. Records
// are write-through: delivered directly when online, queued otherwise.
type ProgressRecord struct {
	StudentID string    `json:"studentId"`
	VideoID   string    `json:"videoId"`
	Position  int       `json:"position"` // seconds into the video
	Completed bool      `json:"completed"`
	UpdatedAt time.Time `json:"updatedAt"`
}

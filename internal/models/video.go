package models

import (
	"time"
)

// Video is a course video record owned by the platform API. ObjectKey is only
// meaningful once the corresponding upload completed; records are never created
// before the transfer step succeeds.
type Video struct {
	ID            string    `json:"id"`
	CourseID      string    `json:"course_id"`
	Title         string    `json:"title"`
	ObjectKey     string    `json:"object_key"`
	TranscriptKey string    `json:"transcript_key,omitempty"`
	Duration      float64   `json:"duration,omitempty"` // seconds
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Course is a read-mostly record surfaced through the gateway.
type Course struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatorID   string    `json:"creator_id"`
	PriceCents  int       `json:"price_cents"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

package model

import (
	"fmt"
	"time"
)

// Image is an uploaded listing photo.
type Image struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	MIME      string    `json:"mime"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// ImageURL returns the path an uploaded image is served from.
func ImageURL(id int64) string {
	return fmt.Sprintf("/api/images/%d", id)
}

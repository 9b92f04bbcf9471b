package store

import (
	"time"

	"github.com/google/uuid"
)

// stamp fills the ID and creation time of a run being saved.
func stamp(r *Run) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
}

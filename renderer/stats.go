package renderer

import (
	"time"

	"github.com/google/uuid"
)

// LoadStats describes a completed scene load.
type LoadStats struct {
	// Unique id of the load request.
	ID uuid.UUID

	// Name of the loaded scene.
	Scene string

	// Time spent inside the converter.
	Duration time.Duration

	// The load error, if any.
	Error error
}

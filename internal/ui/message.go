package ui

import (
	"time"

	"github.com/desertthunder/nowplaying/internal/models"
)

// statusFetchedMsg carries one round trip to the service.
type statusFetchedMsg struct {
	status string
	health *models.HealthReport // nil when the health endpoint failed
	err    error
	at     time.Time
}

// tickMsg schedules the next fetch.
type tickMsg time.Time

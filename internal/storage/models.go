package storage

import (
	"time"

	"github.com/flor3z/presence-card/internal/profile"
)

// ProfileRecord is the single stored profile row
type ProfileRecord struct {
	ID        int64
	Profile   profile.Profile
	CreatedAt time.Time
	UpdatedAt time.Time
}

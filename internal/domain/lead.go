package domain

import (
	"time"

	"github.com/google/uuid"
)

// Classification is assigned exactly once at ingestion and never changes.
// The criteria that produce it live outside this system.
type Classification string

const (
	ClassificationGold   Classification = "Gold"
	ClassificationSilver Classification = "Silver"
)

func (c Classification) Valid() bool {
	return c == ClassificationGold || c == ClassificationSilver
}

// Lead is owned by the ingestion pipeline and read-only here. Location
// fields are used only as allocation filters.
type Lead struct {
	ID             uuid.UUID
	Source         string
	State          string
	County         string
	City           string
	Zip            string
	Classification Classification
	CreatedAt      time.Time
}

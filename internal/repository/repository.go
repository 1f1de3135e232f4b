package repository

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// TrackRecord summarizes one downloaded track.
type TrackRecord struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	Segments int    `json:"segments"`
}

// Record is the journal entry of one download invocation.
type Record struct {
	ID         uuid.UUID     `json:"id"`
	Source     string        `json:"source"`
	Output     string        `json:"output"`
	Status     Status        `json:"status"`
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt,omitempty"`
	Error      string        `json:"error,omitempty"`
	Tracks     []TrackRecord `json:"tracks,omitempty"`
	Files      []string      `json:"files,omitempty"`
}

type Repository interface {
	Save(record *Record) error
	Find(id uuid.UUID) (*Record, error)
	FindAll() ([]*Record, error)
	Delete(id uuid.UUID) error
	Close() error
}

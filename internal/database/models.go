package database

import (
	"time"

	"github.com/google/uuid"

	"github.com/escrowworks/trustmeter/internal/scoring"
)

// Project is a stored marketplace project: the display name plus the raw
// record the scoring engine evaluates.
type Project struct {
	ID        string                `json:"id"`
	Name      string                `json:"name"`
	Record    scoring.ProjectRecord `json:"record"`
	CreatedAt time.Time             `json:"createdAt"`
	UpdatedAt time.Time             `json:"updatedAt"`
}

// ScoreSnapshot is one historical evaluation of a project. Snapshots are
// append-only; re-scoring a project adds a new row.
type ScoreSnapshot struct {
	ID        string              `json:"id"`
	ProjectID string              `json:"projectId"`
	MScore    scoring.ScoreResult `json:"mScore"`
	SScore    scoring.ScoreResult `json:"sScore"`
	CreatedAt time.Time           `json:"createdAt"`
}

// RankingEntry is one row of the project rankings: the latest snapshot's
// headline numbers for a project.
type RankingEntry struct {
	ProjectID   string    `json:"projectId"`
	ProjectName string    `json:"projectName"`
	MScore      int       `json:"mScore"`
	SScore      int       `json:"sScore"`
	ScoredAt    time.Time `json:"scoredAt"`
}

// NewProject builds a Project with a fresh ID and timestamps.
func NewProject(name string, record scoring.ProjectRecord) *Project {
	now := time.Now().UTC()
	return &Project{
		ID:        uuid.New().String(),
		Name:      name,
		Record:    record,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewScoreSnapshot builds a snapshot row from a combined score.
func NewScoreSnapshot(projectID string, combined scoring.CombinedScore) *ScoreSnapshot {
	return &ScoreSnapshot{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		MScore:    combined.MScore,
		SScore:    combined.SScore,
		CreatedAt: time.Now().UTC(),
	}
}

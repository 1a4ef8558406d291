// Package types holds the request and response shapes of the HTTP API.
package types

import (
	"time"

	"github.com/escrowworks/trustmeter/internal/database"
	"github.com/escrowworks/trustmeter/internal/scoring"
)

// CreateProjectRequest is the body of POST /projects.
type CreateProjectRequest struct {
	Name   string                `json:"name" binding:"required"`
	Record scoring.ProjectRecord `json:"record"`
}

// UpdateProjectRequest is the body of PUT /projects/:id.
type UpdateProjectRequest struct {
	Name   string                `json:"name" binding:"required"`
	Record scoring.ProjectRecord `json:"record"`
}

// ProjectResponse wraps a single stored project.
type ProjectResponse struct {
	Project *database.Project `json:"project"`
}

// ProjectListResponse wraps a page of projects.
type ProjectListResponse struct {
	Projects []*database.Project `json:"projects"`
	Count    int                 `json:"count"`
}

// ScoreResponse is the body returned by POST /score and
// POST /projects/:id/score.
type ScoreResponse struct {
	ProjectID string              `json:"projectId,omitempty"`
	MScore    scoring.ScoreResult `json:"mScore"`
	SScore    scoring.ScoreResult `json:"sScore"`
	ScoredAt  time.Time           `json:"scoredAt"`
}

// ScoreHistoryResponse wraps a project's snapshot history.
type ScoreHistoryResponse struct {
	ProjectID string                    `json:"projectId"`
	Snapshots []*database.ScoreSnapshot `json:"snapshots"`
	Count     int                       `json:"count"`
}

// RankingsResponse wraps the project rankings.
type RankingsResponse struct {
	Rankings []*database.RankingEntry `json:"rankings"`
	Count    int                      `json:"count"`
}

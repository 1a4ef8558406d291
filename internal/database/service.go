package database

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/escrowworks/trustmeter/internal/scoring"
)

// ProjectService wraps the repository with the scoring workflow: CRUD on
// projects plus evaluate-and-persist, history, rankings, and retention.
type ProjectService struct {
	repo *Repository
}

// NewProjectService creates a new project service
func NewProjectService(repo *Repository) *ProjectService {
	return &ProjectService{repo: repo}
}

// CreateProject validates and stores a new project.
func (s *ProjectService) CreateProject(name string, record scoring.ProjectRecord) (*Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("project name is required")
	}
	if len(name) > 200 {
		return nil, fmt.Errorf("project name exceeds 200 characters")
	}

	project := NewProject(name, record)
	if err := s.repo.CreateProject(project); err != nil {
		return nil, err
	}

	slog.Info("Project created", "project_id", project.ID, "name", project.Name)
	return project, nil
}

// GetProject returns one project by ID.
func (s *ProjectService) GetProject(id string) (*Project, error) {
	return s.repo.GetProject(id)
}

// ListProjects returns up to limit projects, newest first. A non-positive
// limit falls back to the default page size.
func (s *ProjectService) ListProjects(limit int) ([]*Project, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListProjects(limit)
}

// UpdateProject replaces a project's name and record.
func (s *ProjectService) UpdateProject(id, name string, record scoring.ProjectRecord) (*Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("project name is required")
	}

	project, err := s.repo.GetProject(id)
	if err != nil {
		return nil, err
	}

	project.Name = name
	project.Record = record
	if err := s.repo.UpdateProject(project); err != nil {
		return nil, err
	}

	return project, nil
}

// DeleteProject removes a project and its score history.
func (s *ProjectService) DeleteProject(id string) error {
	return s.repo.DeleteProject(id)
}

// ScoreProject evaluates a stored project and appends the result to its
// score history.
func (s *ProjectService) ScoreProject(id string) (*ScoreSnapshot, error) {
	project, err := s.repo.GetProject(id)
	if err != nil {
		return nil, err
	}

	combined := scoring.CalculateScores(project.Record)
	snapshot := NewScoreSnapshot(project.ID, combined)
	if err := s.repo.InsertSnapshot(snapshot); err != nil {
		return nil, err
	}

	slog.Info("Project scored",
		"project_id", project.ID,
		"m_score", combined.MScore.Score,
		"s_score", combined.SScore.Score)

	return snapshot, nil
}

// GetScoreHistory returns a project's snapshots, newest first. It verifies
// the project exists so a missing ID reads as not-found rather than an
// empty history.
func (s *ProjectService) GetScoreHistory(id string, limit int) ([]*ScoreSnapshot, error) {
	if limit <= 0 {
		limit = 50
	}

	if _, err := s.repo.GetProject(id); err != nil {
		return nil, err
	}

	return s.repo.GetSnapshots(id, limit)
}

// Rankings returns the top projects by latest snapshot.
func (s *ProjectService) Rankings(limit int) ([]*RankingEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.TopProjects(limit)
}

// PurgeOldSnapshots deletes score history older than the retention window.
func (s *ProjectService) PurgeOldSnapshots(retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	purged, err := s.repo.PurgeSnapshotsBefore(cutoff)
	if err != nil {
		return 0, err
	}

	if purged > 0 {
		slog.Info("Purged old score snapshots", "count", purged, "cutoff", cutoff)
	}

	return purged, nil
}

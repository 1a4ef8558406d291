package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a project or snapshot does not exist.
var ErrNotFound = errors.New("not found")

// Repository handles database operations
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// CreateProject inserts a new project row.
func (r *Repository) CreateProject(project *Project) error {
	record, err := json.Marshal(project.Record)
	if err != nil {
		return fmt.Errorf("failed to marshal project record: %w", err)
	}

	stmt, err := r.db.GetPreparedStatement("insert_project")
	if err != nil {
		return err
	}

	if _, err := stmt.Exec(project.ID, project.Name, string(record), project.CreatedAt, project.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

// GetProject loads one project by ID. Returns ErrNotFound when missing.
func (r *Repository) GetProject(id string) (*Project, error) {
	stmt, err := r.db.GetPreparedStatement("get_project")
	if err != nil {
		return nil, err
	}

	var project Project
	var record string
	err = stmt.QueryRow(id).Scan(&project.ID, &project.Name, &record, &project.CreatedAt, &project.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query project: %w", err)
	}

	if err := json.Unmarshal([]byte(record), &project.Record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal project record: %w", err)
	}

	return &project, nil
}

// ListProjects returns the most recently updated projects, newest first.
func (r *Repository) ListProjects(limit int) ([]*Project, error) {
	stmt, err := r.db.GetPreparedStatement("list_projects")
	if err != nil {
		return nil, err
	}

	rows, err := stmt.Query(limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := []*Project{}
	for rows.Next() {
		var project Project
		var record string
		if err := rows.Scan(&project.ID, &project.Name, &record, &project.CreatedAt, &project.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		if err := json.Unmarshal([]byte(record), &project.Record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal project record: %w", err)
		}
		projects = append(projects, &project)
	}

	return projects, rows.Err()
}

// UpdateProject replaces a project's name and record. Returns ErrNotFound
// when the project does not exist.
func (r *Repository) UpdateProject(project *Project) error {
	record, err := json.Marshal(project.Record)
	if err != nil {
		return fmt.Errorf("failed to marshal project record: %w", err)
	}

	stmt, err := r.db.GetPreparedStatement("update_project")
	if err != nil {
		return err
	}

	project.UpdatedAt = time.Now().UTC()
	result, err := stmt.Exec(project.Name, string(record), project.UpdatedAt, project.ID)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteProject removes a project and, via the cascade, its snapshots.
func (r *Repository) DeleteProject(id string) error {
	stmt, err := r.db.GetPreparedStatement("delete_project")
	if err != nil {
		return err
	}

	result, err := stmt.Exec(id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// InsertSnapshot stores one score evaluation for a project.
func (r *Repository) InsertSnapshot(snapshot *ScoreSnapshot) error {
	mResult, err := json.Marshal(snapshot.MScore)
	if err != nil {
		return fmt.Errorf("failed to marshal moral result: %w", err)
	}
	sResult, err := json.Marshal(snapshot.SScore)
	if err != nil {
		return fmt.Errorf("failed to marshal survival result: %w", err)
	}

	stmt, err := r.db.GetPreparedStatement("insert_snapshot")
	if err != nil {
		return err
	}

	_, err = stmt.Exec(snapshot.ID, snapshot.ProjectID, snapshot.MScore.Score, snapshot.SScore.Score,
		string(mResult), string(sResult), snapshot.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	return nil
}

// GetSnapshots returns a project's score history, newest first.
func (r *Repository) GetSnapshots(projectID string, limit int) ([]*ScoreSnapshot, error) {
	stmt, err := r.db.GetPreparedStatement("get_snapshots")
	if err != nil {
		return nil, err
	}

	rows, err := stmt.Query(projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := []*ScoreSnapshot{}
	for rows.Next() {
		var snapshot ScoreSnapshot
		var mResult, sResult string
		if err := rows.Scan(&snapshot.ID, &snapshot.ProjectID, &mResult, &sResult, &snapshot.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		if err := json.Unmarshal([]byte(mResult), &snapshot.MScore); err != nil {
			return nil, fmt.Errorf("failed to unmarshal moral result: %w", err)
		}
		if err := json.Unmarshal([]byte(sResult), &snapshot.SScore); err != nil {
			return nil, fmt.Errorf("failed to unmarshal survival result: %w", err)
		}
		snapshots = append(snapshots, &snapshot)
	}

	return snapshots, rows.Err()
}

// TopProjects ranks projects by their most recent snapshot, survival score
// first and moral score as the tiebreaker.
func (r *Repository) TopProjects(limit int) ([]*RankingEntry, error) {
	stmt, err := r.db.GetPreparedStatement("top_projects")
	if err != nil {
		return nil, err
	}

	rows, err := stmt.Query(limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query rankings: %w", err)
	}
	defer rows.Close()

	entries := []*RankingEntry{}
	for rows.Next() {
		var entry RankingEntry
		if err := rows.Scan(&entry.ProjectID, &entry.ProjectName, &entry.MScore, &entry.SScore, &entry.ScoredAt); err != nil {
			return nil, fmt.Errorf("failed to scan ranking entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}

// PurgeSnapshotsBefore deletes snapshots older than the cutoff and returns
// how many were removed.
func (r *Repository) PurgeSnapshotsBefore(cutoff time.Time) (int64, error) {
	stmt, err := r.db.GetPreparedStatement("purge_snapshots")
	if err != nil {
		return 0, err
	}

	result, err := stmt.Exec(cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge snapshots: %w", err)
	}

	return result.RowsAffected()
}

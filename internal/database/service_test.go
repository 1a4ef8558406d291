package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escrowworks/trustmeter/internal/scoring"
)

func newTestService(t *testing.T) *ProjectService {
	t.Helper()
	return NewProjectService(newTestRepo(t))
}

func TestProjectService_CreateProject_Validation(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CreateProject("", scoring.ProjectRecord{})
	assert.Error(t, err)

	_, err = svc.CreateProject("   ", scoring.ProjectRecord{})
	assert.Error(t, err)

	_, err = svc.CreateProject(strings.Repeat("x", 201), scoring.ProjectRecord{})
	assert.Error(t, err)

	project, err := svc.CreateProject("  Padded name  ", scoring.ProjectRecord{})
	require.NoError(t, err)
	assert.Equal(t, "Padded name", project.Name)
}

func TestProjectService_ScoreProject_PersistsSnapshot(t *testing.T) {
	svc := newTestService(t)

	project, err := svc.CreateProject("Storefront build", sampleRecord())
	require.NoError(t, err)

	snapshot, err := svc.ScoreProject(project.ID)
	require.NoError(t, err)
	assert.Equal(t, project.ID, snapshot.ProjectID)
	assert.Equal(t, 40, snapshot.SScore.Details[scoring.DetailEscrowStatus])

	history, err := svc.GetScoreHistory(project.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, snapshot.ID, history[0].ID)
}

func TestProjectService_ScoreProject_NotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.ScoreProject("no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProjectService_GetScoreHistory_MissingProject(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.GetScoreHistory("no-such-id", 10)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProjectService_Rankings(t *testing.T) {
	svc := newTestService(t)

	funded, err := svc.CreateProject("funded", sampleRecord())
	require.NoError(t, err)
	unfunded, err := svc.CreateProject("unfunded", scoring.ProjectRecord{TotalAmount: 50000})
	require.NoError(t, err)

	_, err = svc.ScoreProject(funded.ID)
	require.NoError(t, err)
	_, err = svc.ScoreProject(unfunded.ID)
	require.NoError(t, err)

	entries, err := svc.Rankings(0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "funded", entries[0].ProjectName)
}

func TestProjectService_PurgeOldSnapshots_DisabledRetention(t *testing.T) {
	svc := newTestService(t)

	purged, err := svc.PurgeOldSnapshots(0)
	require.NoError(t, err)
	assert.Zero(t, purged)
}

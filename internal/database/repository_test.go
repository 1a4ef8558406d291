package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escrowworks/trustmeter/internal/scoring"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := NewDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewRepository(db)
}

func sampleRecord() scoring.ProjectRecord {
	return scoring.ProjectRecord{
		DeliverableDetails: "build and deploy the storefront",
		TotalAmount:        100000,
		FundsDeposited:     100000,
		Milestones: []scoring.Milestone{
			{Description: "design and wireframes approved by client", Amount: 40000},
			{Description: "storefront implemented and deployed live", Amount: 60000},
		},
	}
}

func TestRepository_ProjectCRUD(t *testing.T) {
	repo := newTestRepo(t)

	project := NewProject("Storefront build", sampleRecord())
	require.NoError(t, repo.CreateProject(project))

	loaded, err := repo.GetProject(project.ID)
	require.NoError(t, err)
	assert.Equal(t, project.Name, loaded.Name)
	assert.Equal(t, project.Record, loaded.Record)

	loaded.Name = "Storefront build v2"
	loaded.Record.TotalAmount = 120000
	require.NoError(t, repo.UpdateProject(loaded))

	updated, err := repo.GetProject(project.ID)
	require.NoError(t, err)
	assert.Equal(t, "Storefront build v2", updated.Name)
	assert.Equal(t, float64(120000), updated.Record.TotalAmount)

	require.NoError(t, repo.DeleteProject(project.ID))

	_, err = repo.GetProject(project.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_GetProject_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetProject("no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_UpdateProject_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	ghost := NewProject("ghost", scoring.ProjectRecord{})
	assert.ErrorIs(t, repo.UpdateProject(ghost), ErrNotFound)
}

func TestRepository_DeleteProject_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	assert.ErrorIs(t, repo.DeleteProject("no-such-id"), ErrNotFound)
}

func TestRepository_ListProjects_NewestFirst(t *testing.T) {
	repo := newTestRepo(t)

	first := NewProject("first", scoring.ProjectRecord{})
	require.NoError(t, repo.CreateProject(first))

	second := NewProject("second", scoring.ProjectRecord{})
	second.CreatedAt = second.CreatedAt.Add(time.Second)
	second.UpdatedAt = second.UpdatedAt.Add(time.Second)
	require.NoError(t, repo.CreateProject(second))

	projects, err := repo.ListProjects(10)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "second", projects[0].Name)
	assert.Equal(t, "first", projects[1].Name)
}

func TestRepository_Snapshots(t *testing.T) {
	repo := newTestRepo(t)

	project := NewProject("scored project", sampleRecord())
	require.NoError(t, repo.CreateProject(project))

	combined := scoring.CalculateScores(project.Record)
	snapshot := NewScoreSnapshot(project.ID, combined)
	require.NoError(t, repo.InsertSnapshot(snapshot))

	snapshots, err := repo.GetSnapshots(project.ID, 10)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, combined.MScore, snapshots[0].MScore)
	assert.Equal(t, combined.SScore, snapshots[0].SScore)
}

func TestRepository_TopProjects_RanksByLatestSnapshot(t *testing.T) {
	repo := newTestRepo(t)

	strong := NewProject("strong", sampleRecord())
	require.NoError(t, repo.CreateProject(strong))

	weak := NewProject("weak", scoring.ProjectRecord{TotalAmount: 100000})
	require.NoError(t, repo.CreateProject(weak))

	strongSnap := NewScoreSnapshot(strong.ID, scoring.CalculateScores(strong.Record))
	require.NoError(t, repo.InsertSnapshot(strongSnap))

	weakSnap := NewScoreSnapshot(weak.ID, scoring.CalculateScores(weak.Record))
	require.NoError(t, repo.InsertSnapshot(weakSnap))

	entries, err := repo.TopProjects(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "strong", entries[0].ProjectName)
	assert.GreaterOrEqual(t, entries[0].SScore, entries[1].SScore)
}

func TestRepository_PurgeSnapshotsBefore(t *testing.T) {
	repo := newTestRepo(t)

	project := NewProject("aging project", sampleRecord())
	require.NoError(t, repo.CreateProject(project))

	old := NewScoreSnapshot(project.ID, scoring.CalculateScores(project.Record))
	old.CreatedAt = time.Now().UTC().AddDate(0, 0, -60)
	require.NoError(t, repo.InsertSnapshot(old))

	fresh := NewScoreSnapshot(project.ID, scoring.CalculateScores(project.Record))
	require.NoError(t, repo.InsertSnapshot(fresh))

	purged, err := repo.PurgeSnapshotsBefore(time.Now().UTC().AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	remaining, err := repo.GetSnapshots(project.ID, 10)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, fresh.ID, remaining[0].ID)
}

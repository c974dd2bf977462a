package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	database, err := Open(":memory:")
	require.NoError(t, err, "failed to create test database")
	t.Cleanup(func() { _ = database.Close() })

	return database
}

func TestInsertRun(t *testing.T) {
	db := setupTestDB(t)

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	runID, err := db.InsertRun(Run{
		RunUUID:         "0b9f6d1e-1111-4a4a-9c9c-000000000001",
		CreatedAt:       created,
		Elapsed:         1500 * time.Millisecond,
		OutputPath:      "/tmp/merged.json",
		OutputSizeBytes: 2048,
		Properties:      []string{"uniqueWords", "meanWordSize"},
	}, []RunSource{
		{Path: "a.json", Status: SourceStatusOK},
		{Path: "b.json", Status: SourceStatusFailed, ErrorMessage: "failed to read b.json: no such file"},
		{Path: "c.json", Status: SourceStatusOK},
	})
	require.NoError(t, err)
	assert.NotZero(t, runID)

	run, sources, err := db.GetRun(runID)
	require.NoError(t, err)

	assert.Equal(t, "0b9f6d1e-1111-4a4a-9c9c-000000000001", run.RunUUID)
	assert.True(t, created.Equal(run.CreatedAt), "created_at = %v, want %v", run.CreatedAt, created)
	assert.Equal(t, 1500*time.Millisecond, run.Elapsed)
	assert.Equal(t, "/tmp/merged.json", run.OutputPath)
	assert.Equal(t, int64(2048), run.OutputSizeBytes)
	assert.Equal(t, []string{"uniqueWords", "meanWordSize"}, run.Properties)
	assert.Equal(t, 3, run.SourceCount)
	assert.Equal(t, 2, run.SuccessCount)
	assert.Equal(t, 1, run.FailedCount)
	assert.Empty(t, run.PersistError)

	require.Len(t, sources, 3)
	assert.Equal(t, "a.json", sources[0].Path)
	assert.Equal(t, 1, sources[1].Position)
	assert.Equal(t, SourceStatusFailed, sources[1].Status)
	assert.Contains(t, sources[1].ErrorMessage, "no such file")
	assert.Empty(t, sources[2].ErrorMessage)
}

func TestInsertRun_PersistError(t *testing.T) {
	db := setupTestDB(t)

	runID, err := db.InsertRun(Run{
		RunUUID:      "run-with-write-failure",
		OutputPath:   "/readonly/merged.json",
		Properties:   []string{"p"},
		PersistError: "failed to write merged result: permission denied",
	}, []RunSource{{Path: "a.json", Status: SourceStatusOK}})
	require.NoError(t, err)

	run, _, err := db.GetRun(runID)
	require.NoError(t, err)
	assert.Equal(t, "failed to write merged result: permission denied", run.PersistError)
	assert.False(t, run.CreatedAt.IsZero())
}

func TestInsertRun_DuplicateUUID(t *testing.T) {
	db := setupTestDB(t)

	run := Run{RunUUID: "same", OutputPath: "merged.json", Properties: []string{"p"}}
	_, err := db.InsertRun(run, nil)
	require.NoError(t, err)

	_, err = db.InsertRun(run, nil)
	assert.Error(t, err)

	runs, err := db.ListRuns(0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestGetRun_NotFound(t *testing.T) {
	db := setupTestDB(t)

	_, _, err := db.GetRun(42)
	assert.ErrorContains(t, err, "run 42 not found")
}

func TestListRuns(t *testing.T) {
	db := setupTestDB(t)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	uuids := []string{"first", "second", "third"}
	for i, id := range uuids {
		_, err := db.InsertRun(Run{
			RunUUID:    id,
			CreatedAt:  base.Add(time.Duration(i) * time.Hour),
			OutputPath: "merged.json",
			Properties: []string{"p"},
		}, []RunSource{{Path: "a.json", Status: SourceStatusOK}})
		require.NoError(t, err)
	}

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{name: "no limit", limit: 0, want: []string{"third", "second", "first"}},
		{name: "limit 2", limit: 2, want: []string{"third", "second"}},
		{name: "limit larger than rows", limit: 10, want: []string{"third", "second", "first"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, err := db.ListRuns(tt.limit)
			require.NoError(t, err)

			got := make([]string, len(runs))
			for i, r := range runs {
				got[i] = r.RunUUID
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetLatestRunID(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetLatestRunID()
	assert.Error(t, err)

	var last int64
	for _, id := range []string{"a", "b"} {
		last, err = db.InsertRun(Run{RunUUID: id, OutputPath: "m.json", Properties: []string{"p"}}, nil)
		require.NoError(t, err)
	}

	got, err := db.GetLatestRunID()
	require.NoError(t, err)
	assert.Equal(t, last, got)
}

package merge

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/dtnitsch/analysis-merger/models"
	dbpkg "github.com/dtnitsch/analysis-merger/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

type testEnv struct {
	dir    string
	dbPath string
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	return &testEnv{
		dir:    dir,
		dbPath: filepath.Join(dir, "history.db"),
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
}

func (e *testEnv) path(name string) string { return filepath.Join(e.dir, name) }

func (e *testEnv) write(t *testing.T, name, content string) string {
	t.Helper()
	p := e.path(name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0750))
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func (e *testEnv) run(args ...string) error {
	app := &cli.App{
		Name:      "analysis-merger",
		Writer:    e.stdout,
		ErrWriter: e.stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "db", Value: e.dbPath},
		},
		Commands: []*cli.Command{Command()},
	}
	base := []string{"analysis-merger", "merge", "--quiet", "--log-file", e.path("log.txt")}
	return app.Run(append(base, args...))
}

func decodeSummary(t *testing.T, out []byte) FinalOutput {
	t.Helper()
	var summary FinalOutput
	require.NoError(t, json.Unmarshal(out, &summary))
	return summary
}

func TestMergeAction_WritesMergedDocument(t *testing.T) {
	env := newTestEnv(t)
	a := env.write(t, "a.analysis.json", `{"uniqueWords": ["a", "b"], "meanWordSize": 4, "bigramFrequencies": {"th": 2, "1": 9}}`)
	b := env.write(t, "b.analysis.json", `{"uniqueWords": ["b", "c"], "meanWordSize": 6, "bigramFrequencies": {"he": 1}}`)

	err := env.run("-f", a, "-f", b, "-p", "uniqueWords,meanWordSize,bigramFrequencies", "-o", env.path("out/merged"))
	require.NoError(t, err)

	data, err := os.ReadFile(env.path("out/merged.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"uniqueWords":["a","b","c"],"meanWordSize":5,"bigramFrequencies":["th","1","he"]}`, string(data))

	summary := decodeSummary(t, env.stdout.Bytes())
	assert.Equal(t, "success", summary.Status)
	assert.Equal(t, env.path("out/merged.json"), summary.Output)
	assert.Equal(t, 2, summary.Stats.Successful)
	assert.NotEmpty(t, summary.OutputSize)
	assert.NotZero(t, summary.HistoryID)

	database, err := dbpkg.Open(env.dbPath)
	require.NoError(t, err)
	defer database.Close()
	run, sources, err := database.GetRun(summary.HistoryID)
	require.NoError(t, err)
	assert.Equal(t, summary.RunID, run.RunUUID)
	assert.Len(t, sources, 2)
}

func TestMergeAction_UnreadableSourceGivesPartialResult(t *testing.T) {
	env := newTestEnv(t)
	good := env.write(t, "good.json", `{"uniqueWords": ["x"]}`)
	bad := env.write(t, "bad.json", `not json`)

	err := env.run("-p", "uniqueWords", "-o", env.path("merged.json"), good, env.path("missing.json"), bad)
	require.NoError(t, err)

	data, err := os.ReadFile(env.path("merged.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"uniqueWords":["x"]}`, string(data))

	summary := decodeSummary(t, env.stdout.Bytes())
	assert.Equal(t, "partial", summary.Status)
	assert.Equal(t, 2, summary.Stats.Failed)
	require.Len(t, summary.Sources, 3)
	assert.Equal(t, "ok", summary.Sources[0].Status)
	assert.Equal(t, "failed", summary.Sources[1].Status)
	assert.Contains(t, env.stderr.String(), "missing.json")
}

func TestMergeAction_ConfigFile(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, "docs/one.json", `{"medianWordSize": 3, "topWords": {"the": 4}}`)
	env.write(t, "docs/two.json", `{"medianWordSize": 5, "topWords": {"and": 2}}`)
	cfgPath := env.write(t, "docs/merge.yaml", `
sources:
  - one.json
  - two.json
properties:
  - medianWordSize
top_methods:
  - topWords
output: `+env.path("from-config")+`
`)

	err := env.run("--config", cfgPath, "--format", "yaml", "--no-history")
	require.NoError(t, err)

	data, err := os.ReadFile(env.path("from-config.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"medianWordSize":4,"topWords":["the","and"]}`, string(data))

	var summary FinalOutput
	require.NoError(t, yaml.Unmarshal(env.stdout.Bytes(), &summary))
	assert.Equal(t, []string{"medianWordSize", "topWords"}, summary.Properties)
	assert.Zero(t, summary.HistoryID)
	_, statErr := os.Stat(env.dbPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestMergeAction_FlagsOverrideConfigFile(t *testing.T) {
	env := newTestEnv(t)
	one := env.write(t, "one.json", `{"a": [1], "b": [2]}`)
	cfgPath := env.write(t, "merge.yaml", "sources: [missing.json]\nproperties: [a]\n")

	err := env.run("--config", cfgPath, "-f", one, "-p", "b", "-o", env.path("out.json"), "--no-history")
	require.NoError(t, err)

	data, err := os.ReadFile(env.path("out.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"b":[2]}`, string(data))
}

func TestMergeAction_NoSources(t *testing.T) {
	env := newTestEnv(t)

	err := env.run("-o", env.path("merged.json"))
	assert.ErrorIs(t, err, models.ErrNoSources)
	assert.NoFileExists(t, env.path("merged.json"))
	assert.NoFileExists(t, env.path("log.txt"))
	assert.Empty(t, env.stderr.String())
}

func TestMergeAction_NoProperties(t *testing.T) {
	env := newTestEnv(t)
	src := env.write(t, "a.json", `{"p": 1}`)

	err := env.run("-f", src, "-p", " , ")
	assert.ErrorIs(t, err, models.ErrNoProperties)
	assert.NoFileExists(t, env.path("log.txt"))
	assert.Empty(t, env.stderr.String())
}

func TestMergeAction_PersistFailureFailsCommand(t *testing.T) {
	env := newTestEnv(t)
	src := env.write(t, "a.json", `{"p": 1}`)
	blocker := env.write(t, "blocker", "a file, not a directory")

	err := env.run("-f", src, "-p", "p", "-o", filepath.Join(blocker, "merged.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write merged result")

	summary := decodeSummary(t, env.stdout.Bytes())
	assert.Equal(t, "failed", summary.Status)
	assert.NotEmpty(t, summary.PersistError)

	database, err := dbpkg.Open(env.dbPath)
	require.NoError(t, err)
	defer database.Close()
	run, _, err := database.GetRun(summary.HistoryID)
	require.NoError(t, err)
	assert.NotEmpty(t, run.PersistError)
}

func TestMergeAction_InvalidFormat(t *testing.T) {
	env := newTestEnv(t)
	err := env.run("-f", "a.json", "--format", "xml")
	assert.ErrorContains(t, err, "unsupported format")
}

func TestExpandSources(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, "x/1.json", `{}`)
	env.write(t, "x/2.json", `{}`)
	got, unmatched := expandSources([]string{
		env.path("first.json"),
		env.path("x/*.json"),
		env.path("none/*.json"),
	})

	assert.Equal(t, []string{
		env.path("first.json"),
		env.path("x/1.json"),
		env.path("x/2.json"),
		env.path("none/*.json"),
	}, got)
	assert.Equal(t, []string{env.path("none/*.json")}, unmatched)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitList([]string{" a , b", "", "c,"}))
	assert.Empty(t, splitList(nil))
}

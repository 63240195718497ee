package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

func testEntry() Entry {
	return Entry{
		Timestamp: testTime,
		Command:   "simulate",
		Path:      "output/simulation/menages_2014.csv",
		Rows:      3,
		RunID:     "6f1c0c1e-0000-4000-8000-000000000001",
	}
}

func TestAppend_NewFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, []Entry{testEntry()}))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, testEntry(), entries[0])
}

func TestAppend_ExistingFileWritesOneHeader(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, []Entry{testEntry()}))

	e2 := testEntry()
	e2.Command = "report burden"
	e2.RunID = ""
	require.NoError(t, Append(dir, []Entry{e2}))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "simulate", entries[0].Command)
	assert.Equal(t, "report burden", entries[1].Command)
	assert.Empty(t, entries[1].RunID)

	data, err := os.ReadFile(filepath.Join(dir, "logs", "manifest.csv"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "timestamp,command"))
}

func TestAppend_EmptyCreatesHeader(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, nil))

	data, err := os.ReadFile(filepath.Join(dir, "logs", "manifest.csv"))
	require.NoError(t, err)
	assert.Equal(t, "timestamp,command,path,rows,run_id\n", string(data))

	entries, err := Read(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRecord(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Record(dir, "match prepare", "a.csv", 10, ""))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 10, entries[0].Rows)
	assert.WithinDuration(t, time.Now(), entries[0].Timestamp, time.Minute)
}

func TestRead_MissingFile(t *testing.T) {
	entries, err := Read(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestRead_Malformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "logs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logs", "manifest.csv"),
		[]byte("timestamp,command,path,rows,run_id\nnot-a-time,x,y,1,\n"), 0o644))

	_, err := Read(dir)
	assert.ErrorContains(t, err, "decoding manifest")
}

func TestForRun(t *testing.T) {
	dir := t.TempDir()
	other := testEntry()
	other.RunID = ""
	other.Path = "output/report/burden_2014.csv"
	require.NoError(t, Append(dir, []Entry{testEntry(), other, testEntry()}))

	entries, err := ForRun(dir, testEntry().RunID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	entries, err = ForRun(dir, "unknown")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestForRun_HeaderOnly(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, nil))

	entries, err := ForRun(dir, testEntry().RunID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

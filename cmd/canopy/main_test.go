package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pbanos/canopy"
	"github.com/pbanos/canopy/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const metadata = `features:
  x: continuous
  colour: [red, blue]
  label: [A, B]
`

const samples = `x,colour,label
0,red,A
0,blue,A
1,red,B
1,blue,B
`

func writeFile(t *testing.T, dir, name, content string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, csvDataset, kindOf(""))
	assert.Equal(t, csvDataset, kindOf("data.csv"))
	assert.Equal(t, sqlite3Dataset, kindOf("data.db"))
	assert.Equal(t, pgDataset, kindOf("postgresql://localhost/canopy"))
	assert.Equal(t, pgDataset, kindOf("postgres://localhost/canopy"))
	assert.Equal(t, mongoDataset, kindOf("mongodb://localhost/canopy"))
}

func TestReadFeatures(t *testing.T) {
	path := writeFile(t, t.TempDir(), "metadata.yml", metadata)
	label, features, all, err := readFeatures(path, "label")
	require.NoError(t, err)
	assert.Equal(t, "label", label.Name())
	require.Len(t, features, 2)
	assert.Equal(t, "x", features[0].Name())
	assert.Equal(t, "colour", features[1].Name())
	assert.Len(t, all, 3)

	_, _, _, err = readFeatures(path, "missing")
	assert.Error(t, err)
}

func TestSplitSamples(t *testing.T) {
	var ss []dataset.Sample
	for i := 0; i < 100; i++ {
		ss = append(ss, dataset.NewSample(map[string]interface{}{"x": float64(i)}))
	}
	kept, split := splitSamples(ss, 30, 42)
	assert.Equal(t, 100, len(kept)+len(split))
	assert.NotEmpty(t, kept)
	assert.NotEmpty(t, split)
	kept2, split2 := splitSamples(ss, 30, 42)
	assert.Equal(t, kept, kept2)
	assert.Equal(t, split, split2)

	kept, split = splitSamples(ss, 100, 42)
	assert.Empty(t, kept)
	assert.Len(t, split, 100)
}

func TestValidate(t *testing.T) {
	scc := &searchCmdConfig{metadataInput: "m.yml", classFeature: "label", size: "2", workers: 1}
	assert.NoError(t, scc.Validate())
	scc.size = ""
	assert.Error(t, scc.Validate())
	scc.size = "2"
	scc.workers = 0
	assert.Error(t, scc.Validate())
	scc.workers = 4
	scc.cpuIntensiveSet, scc.memoryIntensiveSet = true, true
	assert.Error(t, scc.Validate())

	ts := &treeSource{}
	assert.Error(t, ts.Validate())
	ts.treeInput = "tree.json"
	assert.NoError(t, ts.Validate())
	ts.redisAddr = "localhost:6379"
	assert.Error(t, ts.Validate())
	ts.treeInput = ""
	assert.Error(t, ts.Validate(), "root-id is required for redis")
	ts.rootID, ts.classFeature = "abc", "label"
	assert.NoError(t, ts.Validate())
}

func TestDatasetThroughSQLite(t *testing.T) {
	dir := t.TempDir()
	mdPath := writeFile(t, dir, "metadata.yml", metadata)
	csvPath := writeFile(t, dir, "samples.csv", samples)
	_, _, all, err := readFeatures(mdPath, "label")
	require.NoError(t, err)
	ctx := context.Background()

	ds, err := readDataset(ctx, csvPath, all, dataset.New)
	require.NoError(t, err)
	dbPath := filepath.Join(dir, "samples.db")
	count, err := writeDataset(ctx, dbPath, ds, all)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	ds, err = readDataset(ctx, dbPath, all, dataset.NewMemoryIntensive)
	require.NoError(t, err)
	count, err = ds.Count()
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	outPath := filepath.Join(dir, "copy.csv")
	count, err = writeDataset(ctx, outPath, ds, all)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	ds, err = readDataset(ctx, outPath, all, dataset.New)
	require.NoError(t, err)
	h, err := ds.Entropy(all[2])
	require.NoError(t, err)
	assert.InDelta(t, 1.0, h, 1e-12)
}

func TestSearchCommandWritesTree(t *testing.T) {
	dir := t.TempDir()
	mdPath := writeFile(t, dir, "metadata.yml", metadata)
	csvPath := writeFile(t, dir, "samples.csv", samples)
	treePath := filepath.Join(dir, "tree.json")

	cmd := cliParser()
	cmd.SetArgs([]string{"search", "-m", mdPath, "-i", csvPath, "-c", "label", "-k", "1", "-w", "2", "-o", treePath})
	require.NoError(t, cmd.Execute())

	_, _, all, err := readFeatures(mdPath, "label")
	require.NoError(t, err)
	ts := &treeSource{treeInput: treePath}
	tr, err := ts.loadTree(context.Background(), all)
	require.NoError(t, err)
	assert.Equal(t, 0.0, tr.Entropy())
	assert.Len(t, tr.Leaves(), 2)
}

func TestPredictAsksAlongThePath(t *testing.T) {
	dir := t.TempDir()
	mdPath := writeFile(t, dir, "metadata.yml", metadata)
	csvPath := writeFile(t, dir, "samples.csv", samples)
	label, features, all, err := readFeatures(mdPath, "label")
	require.NoError(t, err)
	ds, err := readDataset(context.Background(), csvPath, all, dataset.New)
	require.NoError(t, err)
	tr, _, err := canopy.Grow(ds, label, features, canopy.NewSubset(0, 1))
	require.NoError(t, err)

	var out bytes.Buffer
	p, err := predict(tr, all, strings.NewReader("big\n1\n"), &questionPrompter{&out, "?"}, "?")
	require.NoError(t, err)
	value, probability := p.PredictedValue()
	assert.Equal(t, "B", value)
	assert.Equal(t, 1.0, probability)
	assert.Contains(t, out.String(), "sample's x")
	assert.Contains(t, out.String(), "big is not a valid value")
	assert.NotContains(t, out.String(), "colour", "only features on the path are asked for")

	_, err = predict(tr, all, strings.NewReader("?\n"), &questionPrompter{&out, "?"}, "?")
	assert.Error(t, err)
}

func TestSearchCommandReadsPuzzles(t *testing.T) {
	tests := []struct {
		size     string
		expected string
	}{
		{"2", "1 2\n"},
		{"1", "2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.size, func(t *testing.T) {
			input := "4\n3\n" + tt.size + "\n0 1 5 1 7\n1 1 6 2 7\n2 2 5 3 7\n3 2 6 4 7\n"
			path := writeFile(t, t.TempDir(), "puzzle.txt", input)
			var out bytes.Buffer
			cmd := cliParser()
			cmd.SetOut(&out)
			cmd.SetArgs([]string{"search", "--input-format", "puzzle", "-i", path})
			require.NoError(t, cmd.Execute())
			assert.Equal(t, tt.expected, out.String())
		})
	}
}

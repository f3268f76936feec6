package dependency

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"structscope/internal/analyzer"
	"structscope/internal/graph"
)

func writeTree(t *testing.T, files map[string]string) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	var paths []string
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		paths = append(paths, p)
	}
	return dir, paths
}

func analyze(t *testing.T, paths []string, opts ...analyzer.Option) *Result {
	t.Helper()
	a, err := New(opts...)
	require.NoError(t, err)
	res, err := a.Analyze(context.Background(), paths)
	require.NoError(t, err)
	return res
}

func TestTwoFileCycle(t *testing.T) {
	dir, _ := writeTree(t, map[string]string{
		"a.ts": "import { b } from './b';\n",
		"b.ts": "import { a } from './a';\n",
	})
	a, b := filepath.Join(dir, "a.ts"), filepath.Join(dir, "b.ts")
	res := analyze(t, []string{a, b})

	require.Len(t, res.Cycles, 1)
	assert.Equal(t, []string{a, b}, graph.NormalizeCycle(res.Cycles[0]))
	assert.Equal(t, 0, res.Statistics.OrphanFiles)
	assert.Equal(t, 2, res.Statistics.TotalFiles)
	assert.Equal(t, 2, res.Statistics.TotalDependencies)
	assert.Equal(t, 1, res.Statistics.CyclicDependencies)
	assert.Equal(t, 2, res.Statistics.MaxDepth)
	assert.Equal(t, 1, res.Statistics.StronglyConnected)
	assert.Empty(t, res.LoadOrder)
	assert.Len(t, res.Warnings, 1)
}

func TestThreeFileCycleAnyOrder(t *testing.T) {
	dir, _ := writeTree(t, map[string]string{
		"A.js": "const b = require('./B');\nmodule.exports = { a: 1 };\n",
		"B.js": "import c from './C';\nexport default 1;\n",
		"C.js": "import('./A');\n",
	})
	p := func(n string) string { return filepath.Join(dir, n) }
	for _, order := range [][]string{
		{p("A.js"), p("B.js"), p("C.js")},
		{p("C.js"), p("B.js"), p("A.js")},
		{p("B.js"), p("A.js"), p("C.js")},
	} {
		res := analyze(t, order)
		require.Len(t, res.Cycles, 1)
		assert.Equal(t, []string{p("A.js"), p("B.js"), p("C.js")}, graph.NormalizeCycle(res.Cycles[0]))
	}
}

func TestNoRelativeImportsMeansNoCycles(t *testing.T) {
	_, paths := writeTree(t, map[string]string{
		"x.ts": "import React from 'react';\nexport const x = 1;\n",
		"y.ts": "import lodash from 'lodash';\nimport x from 'x';\n",
		"z.ts": "const a = 1;\n",
	})
	res := analyze(t, paths)

	assert.Empty(t, res.Cycles)
	assert.Empty(t, res.Edges)
	assert.Empty(t, res.UnresolvedDependencies)
	assert.Equal(t, 3, res.Statistics.ExternalDependencies)
	assert.ElementsMatch(t, []string{"node_modules/react", "node_modules/lodash", "node_modules/x"}, res.ExternalModules)
	assert.Equal(t, 1, res.Statistics.OrphanFiles)
	assert.Equal(t, 1, res.Statistics.MaxDepth)
}

func TestResolutionAndEdges(t *testing.T) {
	dir, _ := writeTree(t, map[string]string{
		"src/app.tsx":       "import { util } from './lib';\nimport type { T } from './types';\nimport missing from './missing';\nimport css from './app.css';\n",
		"src/lib/index.ts":  "export const util = 1;\n",
		"src/types.ts":      "export type T = string;\n",
		"src/lib/helper.js": "const lib = require('./index');\n",
		"README.md":         "# docs\n",
	})
	paths := []string{
		filepath.Join(dir, "src/app.tsx"),
		filepath.Join(dir, "src/lib/index.ts"),
		filepath.Join(dir, "src/types.ts"),
		filepath.Join(dir, "src/lib/helper.js"),
		filepath.Join(dir, "README.md"),
	}
	res := analyze(t, paths)

	assert.Equal(t, 1, res.Metadata["skippedFiles"])
	assert.Equal(t, []string{"./missing", "./app.css"}, res.UnresolvedDependencies)
	assert.ElementsMatch(t, []graph.Edge{
		{Source: paths[0], Target: paths[1], Kind: "import"},
		{Source: paths[0], Target: paths[2], Kind: "type"},
		{Source: paths[3], Target: paths[1], Kind: "require"},
	}, res.Edges)

	byID := map[string]Node{}
	for _, n := range res.Nodes {
		byID[n.ID] = n
	}
	assert.ElementsMatch(t, []string{paths[0], paths[3]}, byID[paths[1]].Dependents)
	assert.Equal(t, 2, res.Statistics.MaxDepth)
	assert.Empty(t, res.Cycles)
	assert.Len(t, res.LoadOrder, 4)

	assert.True(t, res.Graph().WouldCreateCycle(paths[1], paths[0]))
}

func TestUnreadableFileIsCollected(t *testing.T) {
	dir, paths := writeTree(t, map[string]string{"ok.js": "export const a = 1;\n"})
	paths = append(paths, filepath.Join(dir, "gone.js"))
	res := analyze(t, paths)

	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "gone.js")
	assert.Len(t, res.Nodes, 1)
}

func TestInvalidInputPropagates(t *testing.T) {
	a, err := New()
	require.NoError(t, err)
	_, err = a.Analyze(context.Background(), []string{"relative.js"})
	assert.True(t, errors.Is(err, analyzer.ErrInvalidPaths))

	_, err = New(analyzer.WithBatchSize(0))
	assert.ErrorIs(t, err, analyzer.ErrInvalidOptions)
}

func TestProgressReported(t *testing.T) {
	_, paths := writeTree(t, map[string]string{"a.js": "", "b.js": ""})
	var calls []analyzer.Progress
	res := analyze(t, paths, analyzer.WithProgress(func(p analyzer.Progress) { calls = append(calls, p) }))
	require.NotNil(t, res)
	assert.NotEmpty(t, calls)
	for _, c := range calls {
		assert.LessOrEqual(t, c.Percentage, 100)
	}
}

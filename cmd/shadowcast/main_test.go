package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chosenoffset.com/shadowcast/internal/core/shadows"
)

func TestInitWritesLoadableScene(t *testing.T) {
	for _, name := range []string{"scene.yaml", "scene.json"} {
		out := filepath.Join(t.TempDir(), name)
		require.NoError(t, initAction(out))

		sc, err := loadScene(out)
		require.NoError(t, err, name)
		assert.Equal(t, 24, sc.Segments.Len(), name)
	}
}

func TestSnapshotAction(t *testing.T) {
	out := filepath.Join(t.TempDir(), "shot.png")
	require.NoError(t, snapshotAction("", out, shadows.Point{X: 100, Y: 500}, true))
	assert.FileExists(t, out)
}

func TestInspectUnknownLight(t *testing.T) {
	assert.Error(t, inspectAction("", "nope", shadows.Point{}, false))
	assert.NoError(t, inspectAction("", "spotlight1", shadows.Point{}, false))
}

package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/notargets/TetModes/modalio"
	"github.com/notargets/TetModes/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBox(t *testing.T) {
	b, err := parseBox("0, 0,0,1,0.5,2")
	require.NoError(t, err)
	assert.Equal(t, [3]float64{1, 0.5, 2}, b.Max)

	_, err = parseBox("0,0,0,1,1")
	var unsupported *utils.UnsupportedConstraintSpecError
	assert.True(t, errors.As(err, &unsupported))

	_, err = parseBox("0,0,0,1,1,x")
	assert.Error(t, err)
}

func TestDemoWritesRecordAndSidecar(t *testing.T) {
	out := filepath.Join(t.TempDir(), "box.bin")
	rootCmd.SetArgs([]string{"demo", "-o", out, "--cells", "1,1,1", "--size", "1,1,1",
		"--modes", "3", "--box=-1,-1,-1,2,2,0", "--log-level", "error"})
	require.NoError(t, rootCmd.Execute())

	meta, err := modalio.ReadMeta(modalio.MetaPath(out))
	require.NoError(t, err)
	assert.Equal(t, modalio.Dims{NumSurfaceVertices: 8, NumFaces: 12, Modes: 3}, meta.Dims)
	assert.Equal(t, 12, meta.FixedDOFs)

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Equal(t, int64(meta.Dims.ByteSize()), info.Size())

	rec, err := modalio.ReadFile(out, meta.Dims)
	require.NoError(t, err)
	// Vertices on the clamped z = 0 face do not move
	for i, v := range rec.SV {
		if v[2] == 0 {
			for j := 0; j < 3; j++ {
				assert.Equal(t, 0., rec.SU.At(3*i+2, j))
			}
		}
	}
}

func TestInfoMissingCompanion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "part.stl")
	require.NoError(t, os.WriteFile(path, []byte("solid x\nendsolid x\n"), 0o644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"info", path})
	err := rootCmd.Execute()
	var missing *utils.MissingCompanionMeshError
	assert.True(t, errors.As(err, &missing))
}

package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleWorld() *WorldFile {
	return &WorldFile{
		Seed:   -987654321,
		Planet: 1,
		Edits: map[vec.Vec3]block.Value{
			{X: 10, Y: 5, Z: 10}:   block.Make(block.GrassBlockID),
			{X: -3, Y: 64, Z: -17}: block.Air,
			{X: -3, Y: 2, Z: 40}:   block.Make(block.DoorBlockID).WithOpen(true).WithDirection(block.West),
			{X: 0, Y: 127, Z: -1}:  block.Make(block.GlassBlockID),
		},
	}
}

func TestEncodeFormat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleWorld()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "seed -987654321", lines[0])
	assert.Equal(t, "planet 1", lines[1])
	// Сортировка по x, затем y, затем z
	assert.Equal(t, "-3 2 40", strings.Join(strings.Fields(lines[2])[:3], " "))
	assert.Equal(t, "-3 64 -17 0", lines[3])
	assert.Equal(t, "10 5 10 3", lines[5])
}

func TestWorldFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"world.txt", "world.txt.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			want := sampleWorld()
			require.NoError(t, SaveWorldFile(path, want))

			got, err := LoadWorldFile(path)
			require.NoError(t, err)
			assert.Equal(t, want.Seed, got.Seed)
			assert.Equal(t, want.Planet, got.Planet)
			assert.Equal(t, want.Edits, got.Edits)
		})
	}

	raw, err := os.ReadFile(filepath.Join(dir, "world.txt.zst"))
	require.NoError(t, err)
	assert.False(t, bytes.HasPrefix(raw, []byte("seed")), "файл .zst должен быть сжат")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadWorldFile(filepath.Join(t.TempDir(), "absent.txt"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestDecodeRejectsGarbage(t *testing.T) {
	for _, input := range []string{
		"seed abc\n",
		"planet\n",
		"1 2 3\n",
		"1 2 x 4\n",
		"1 2 3 -4\n",
	} {
		_, err := Decode(strings.NewReader(input))
		assert.Error(t, err, input)
	}
}

func TestDecodeSkipsBlankLines(t *testing.T) {
	wf, err := Decode(strings.NewReader("seed 7\n\nplanet 0\n\n1 -2 3 9\n"))
	require.NoError(t, err)
	assert.Equal(t, int64(7), wf.Seed)
	assert.Equal(t, block.Value(9), wf.Edits[vec.Vec3{X: 1, Y: -2, Z: 3}])
}

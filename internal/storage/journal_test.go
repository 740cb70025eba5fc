package storage

import (
	"testing"

	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournalRecordReplay(t *testing.T) {
	j, err := OpenJournal(t.TempDir())
	require.NoError(t, err)
	defer j.Close()

	edits := map[vec.Vec3]block.Value{
		{X: -1, Y: 5, Z: -20}: block.Make(block.StoneBlockID),
		{X: 3, Y: 0, Z: 0}:    block.Air,
		{X: 3, Y: 1, Z: 0}:    block.Make(block.DoorBlockID).WithTopHalf(true),
	}
	for c, v := range edits {
		require.NoError(t, j.Record(c, v))
	}
	// Повторная запись перекрывает старое значение
	require.NoError(t, j.Record(vec.Vec3{X: 3, Y: 0, Z: 0}, block.Make(block.SandBlockID)))
	edits[vec.Vec3{X: 3, Y: 0, Z: 0}] = block.Make(block.SandBlockID)

	got := make(map[vec.Vec3]block.Value)
	n, err := j.Replay(func(c vec.Vec3, v block.Value) { got[c] = v })
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, edits, got)

	require.NoError(t, j.Reset())
	n, err = j.Replay(func(vec.Vec3, block.Value) {})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestJournalClosed(t *testing.T) {
	j, err := OpenJournal(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, j.Close())
	require.NoError(t, j.Close())

	assert.Error(t, j.Record(vec.Vec3{}, block.Air))
	_, err = j.Replay(func(vec.Vec3, block.Value) {})
	assert.Error(t, err)
}

func TestJournalKeyParse(t *testing.T) {
	c := vec.Vec3{X: -15, Y: 127, Z: 42}
	got, err := parseJournalKey(journalKey(c))
	require.NoError(t, err)
	assert.Equal(t, c, got)

	_, err = parseJournalKey([]byte("edit:1:2"))
	assert.Error(t, err)
}

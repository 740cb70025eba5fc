package structure

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world/block"
	"github.com/annel0/voxel-engine/internal/world/store"
	"github.com/annel0/voxel-engine/internal/world/terrain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStampClampsColorAndReportsChunk(t *testing.T) {
	s := store.New(nil)
	st := NewStamper(s, nil)

	p := &Prefab{Name: "dot", Size: Size{X: 1, Y: 1, Z: 1}, Voxels: []Voxel{{Color: 200}}}
	origin := vec.Vec3{X: 0, Y: 60, Z: 0}
	implicated := make(map[vec.Vec2]struct{})

	n := st.Stamp(origin, p, implicated)
	require.Equal(t, 1, n)

	v, layer := s.Lookup(origin)
	assert.Equal(t, block.BlockID(block.Count()), v.ID())
	assert.Equal(t, block.MarbleBlockID, v.ID())
	assert.Equal(t, store.LayerGenerated, layer)
	assert.Contains(t, implicated, origin.ToChunkCoords())
	assert.Len(t, implicated, 1)
}

func TestColorToBlockClamp(t *testing.T) {
	assert.Equal(t, block.SandBlockID, ColorToBlock(0))
	assert.Equal(t, block.LogBlockID, ColorToBlock(6))
	assert.Equal(t, block.BlockID(block.Count()), ColorToBlock(255))
}

func TestWorldPosCentersXZ(t *testing.T) {
	p := &Prefab{Name: "box", Size: Size{X: 5, Y: 3, Z: 4}}
	pos := WorldPos(vec.Vec3{X: 10, Y: 20, Z: 30}, p, Voxel{X: 0, Y: 2, Z: 0})
	assert.Equal(t, vec.Vec3{X: 8, Y: 22, Z: 28}, pos)
}

func TestStampStandaloneRequeuesEachChunkOnce(t *testing.T) {
	s := store.New(nil)
	var requeued []vec.Vec2
	st := NewStamper(s, func(c vec.Vec2) { requeued = append(requeued, c) })

	// Валун шириной 3 на границе чанков задевает два чанка по X
	lib := NewLibrary()
	p, ok := lib.Get("boulder")
	require.True(t, ok)

	st.Stamp(vec.Vec3{X: 0, Y: 60, Z: 7}, p, nil)
	assert.ElementsMatch(t, []vec.Vec2{{X: -1, Z: 0}, {X: 0, Z: 0}}, requeued)
}

func TestStampSkipsOutOfRange(t *testing.T) {
	s := store.New(nil)
	st := NewStamper(s, nil)
	p := &Prefab{Name: "tall", Size: Size{X: 1, Y: 3, Z: 1}, Voxels: []Voxel{{Y: 0, Color: 9}, {Y: 1, Color: 9}, {Y: 2, Color: 9}}}

	n := st.Stamp(vec.Vec3{Y: vec.ChunkHeight - 2}, p, map[vec.Vec2]struct{}{})
	assert.Equal(t, 2, n)
	_, gen := s.Counts()
	assert.Equal(t, 2, gen)
}

func TestBuiltinsValid(t *testing.T) {
	lib := NewLibrary()
	for _, name := range lib.Names() {
		p, _ := lib.Get(name)
		assert.NoError(t, p.Validate(), name)
		assert.NotEmpty(t, p.Voxels, name)
	}
	assert.Contains(t, lib.Names(), "oak")
}

func TestLoadLibraryFromYAML(t *testing.T) {
	dir := t.TempDir()
	data := []byte(`name: arch
size: {x: 3, y: 2, z: 1}
voxels:
  - {x: 0, y: 0, z: 0, color: 9}
  - {x: 0, y: 1, z: 0, color: 9}
  - {x: 1, y: 1, z: 0, color: 9}
  - {x: 2, y: 1, z: 0, color: 9}
  - {x: 2, y: 0, z: 0, color: 9}
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "arch.yaml"), data, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644))

	lib, err := LoadLibrary(dir)
	require.NoError(t, err)
	p, ok := lib.Get("arch")
	require.True(t, ok)
	assert.Len(t, p.Voxels, 5)

	_, ok = lib.Get("oak")
	assert.True(t, ok)
}

func TestLoadLibraryRejectsBadPrefab(t *testing.T) {
	dir := t.TempDir()
	data := []byte("name: broken\nsize: {x: 1, y: 1, z: 1}\nvoxels:\n  - {x: 5, y: 0, z: 0, color: 1}\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yml"), data, 0o644))

	_, err := LoadLibrary(dir)
	assert.Error(t, err)
}

func TestLoadLibraryMissingDir(t *testing.T) {
	lib, err := LoadLibrary(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.NotEmpty(t, lib.Names())
}

func TestPlannerDeterministic(t *testing.T) {
	gen := terrain.New(42, terrain.PlanetNormal)
	lib := NewLibrary()

	a := NewPlanner(42, terrain.PlanetNormal, gen, lib)
	b := NewPlanner(42, terrain.PlanetNormal, terrain.New(42, terrain.PlanetNormal), lib)

	for _, c := range []vec.Vec2{{X: 0, Z: 0}, {X: 3, Z: -2}, {X: -5, Z: 7}} {
		pa := a.Plan(c)
		pb := b.Plan(c)
		require.Equal(t, len(pa), len(pb))
		for i := range pa {
			assert.Equal(t, pa[i].Origin, pb[i].Origin)
			assert.Equal(t, pa[i].Prefab.Name, pb[i].Prefab.Name)
			assert.Equal(t, c, vec.Vec3{X: pa[i].Origin.X, Z: pa[i].Origin.Z}.ToChunkCoords())
			assert.Equal(t, block.GrassBlockID, gen.Block(pa[i].Origin.Add(vec.Vec3{Y: -1})).ID())
		}
	}
}

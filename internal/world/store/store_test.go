package store

import (
	"sync"
	"testing"

	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world/block"
	"github.com/annel0/voxel-engine/internal/world/terrain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingTerrain считает вызовы, чтобы проверить, что Set не трогает рельеф
type countingTerrain struct {
	mu    sync.Mutex
	calls int
	value block.Value
}

func (c *countingTerrain) Block(vec.Vec3) block.Value {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.value
}

func TestUserEditsNeverShadowed(t *testing.T) {
	s := New(terrain.New(11, terrain.PlanetNormal))

	coords := []vec.Vec3{{X: 0, Y: 10, Z: 0}, {X: -5, Y: 70, Z: 33}, {X: 100, Y: 1, Z: -100}}
	for _, c := range coords {
		s.Set(c, block.Make(block.BrickBlockID), true)
		for i := 0; i < 5; i++ {
			s.Set(c, block.Make(block.BlockID(i+1)), false)
		}
		assert.Equal(t, block.Make(block.BrickBlockID), s.Get(c))

		_, layer := s.Lookup(c)
		assert.Equal(t, LayerUser, layer)
	}
}

func TestGeneratedOverTerrain(t *testing.T) {
	tr := &countingTerrain{value: block.Make(block.StoneBlockID)}
	s := New(tr)
	c := vec.Vec3{X: 1, Y: 2, Z: 3}

	v, layer := s.Lookup(c)
	assert.Equal(t, block.Make(block.StoneBlockID), v)
	assert.Equal(t, LayerTerrain, layer)

	s.Set(c, block.Make(block.LogBlockID), false)
	v, layer = s.Lookup(c)
	assert.Equal(t, block.Make(block.LogBlockID), v)
	assert.Equal(t, LayerGenerated, layer)
}

func TestSetNeverEvaluatesTerrain(t *testing.T) {
	tr := &countingTerrain{value: block.Make(block.StoneBlockID)}
	s := New(tr)

	for i := 0; i < 20; i++ {
		s.Set(vec.Vec3{X: i, Y: 5, Z: i}, block.Make(block.DirtBlockID), i%2 == 0)
	}
	assert.Zero(t, tr.calls)
}

func TestAirIsValidUserEdit(t *testing.T) {
	tr := &countingTerrain{value: block.Make(block.StoneBlockID)}
	s := New(tr)
	c := vec.Vec3{X: 10, Y: 5, Z: 10}

	s.Set(c, block.Make(block.GrassBlockID), true)
	assert.Equal(t, block.GrassBlockID, s.Get(c).ID())

	s.Set(c, block.Air, true)
	assert.Equal(t, block.Air, s.Get(c), "воздух - полноценная правка, рельеф не должен проступать")
}

func TestResolvePrecedence(t *testing.T) {
	natural := func() block.Value { return block.Make(block.StoneBlockID) }
	u := block.Make(block.GlassBlockID)
	g := block.Make(block.LogBlockID)

	v, l := Resolve(u, true, g, true, natural)
	assert.Equal(t, u, v)
	assert.Equal(t, LayerUser, l)

	v, l = Resolve(0, false, g, true, natural)
	assert.Equal(t, g, v)
	assert.Equal(t, LayerGenerated, l)

	v, l = Resolve(0, false, 0, false, natural)
	assert.Equal(t, block.Make(block.StoneBlockID), v)
	assert.Equal(t, LayerTerrain, l)
}

func TestSnapshotsAreCopies(t *testing.T) {
	s := New(nil)
	c := vec.Vec3{X: -1, Y: 2, Z: -3}
	s.Set(c, block.Make(block.SandBlockID), true)

	snap := s.UserEdits()
	require.Len(t, snap, 1)
	snap[c] = block.Make(block.StoneBlockID)
	assert.Equal(t, block.SandBlockID, s.Get(c).ID())

	s.ReplaceUserEdits(map[vec.Vec3]block.Value{{X: 7, Y: 7, Z: 7}: block.Make(block.HayBlockID)})
	user, gen := s.Counts()
	assert.Equal(t, 1, user)
	assert.Equal(t, 0, gen)
	assert.Equal(t, block.Air, s.Get(c))

	s.Set(c, block.Make(block.LogBlockID), false)
	s.Clear()
	user, gen = s.Counts()
	assert.Zero(t, user+gen)
}

func TestConcurrentReadWrite(t *testing.T) {
	s := New(terrain.New(3, terrain.PlanetNormal))
	var wg sync.WaitGroup

	for w := 0; w < 4; w++ {
		wg.Add(2)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				s.Set(vec.Vec3{X: i, Y: w, Z: -i}, block.Make(block.PlanksBlockID), true)
			}
		}(w)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				_ = s.Get(vec.Vec3{X: i, Y: w, Z: -i})
			}
		}(w)
	}
	wg.Wait()

	user, _ := s.Counts()
	assert.Equal(t, 800, user)
}

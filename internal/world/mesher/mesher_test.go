package mesher

import (
	"context"
	"testing"

	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world/block"
	"github.com/annel0/voxel-engine/internal/world/chunkpool"
	"github.com/annel0/voxel-engine/internal/world/queue"
	"github.com/annel0/voxel-engine/internal/world/store"
	"github.com/annel0/voxel-engine/internal/world/terrain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapSource: источник блоков для тестов: всё, чего нет в карте, воздух
type mapSource map[vec.Vec3]block.Value

func (m mapSource) Get(c vec.Vec3) block.Value { return m[c] }

func (m mapSource) put(c vec.Vec3, id block.BlockID) { m[c] = block.Make(id) }

var center = vec.Vec3{X: 7, Y: 64, Z: 7}

// verticesAt возвращает вершины блока в локальной позиции p
func verticesAt(words []uint32, aux []uint8, p vec.Vec3) []Vertex {
	var result []Vertex
	for i, w := range words {
		v := Unpack(w, aux[i])
		if int(v.X) == p.X && int(v.Y) == p.Y && int(v.Z) == p.Z {
			result = append(result, v)
		}
	}
	return result
}

func TestSurroundedBlockEmitsNothing(t *testing.T) {
	src := mapSource{}
	src.put(center, block.StoneBlockID)
	for _, n := range faceNormals {
		src.put(center.Add(n), block.StoneBlockID)
	}

	var buf chunkpool.MeshBuffers
	Build(src, vec.Vec2{}, &buf)

	assert.Empty(t, verticesAt(buf.Solid, buf.SolidAux, center))
	// Каждый из шести соседей открыт с пяти сторон
	assert.Equal(t, 6*5*VerticesPerFace, buf.SolidCount())
	assert.Zero(t, buf.TransparentCount())
}

func TestSingleOpenNeighbourEmitsOneFace(t *testing.T) {
	src := mapSource{}
	src.put(center, block.StoneBlockID)
	for f, n := range faceNormals {
		if Face(f) == FacePosZ {
			continue
		}
		src.put(center.Add(n), block.StoneBlockID)
	}

	var buf chunkpool.MeshBuffers
	Build(src, vec.Vec2{}, &buf)

	verts := verticesAt(buf.Solid, buf.SolidAux, center)
	require.Len(t, verts, 6)
	for i, v := range verts {
		assert.Equal(t, FacePosZ, v.Face)
		assert.Equal(t, quadCorners[i], v.Corner)
	}
}

func TestFaceOrderIsCanonical(t *testing.T) {
	src := mapSource{}
	src.put(center, block.StoneBlockID)

	var buf chunkpool.MeshBuffers
	Build(src, vec.Vec2{}, &buf)

	require.Equal(t, 6*VerticesPerFace, buf.SolidCount())
	for i := 0; i < buf.SolidCount(); i++ {
		v := Unpack(buf.Solid[i], buf.SolidAux[i])
		assert.Equal(t, Face(i/VerticesPerFace), v.Face)
	}
}

func TestTransparentRules(t *testing.T) {
	cases := []struct {
		name     string
		self, nb block.BlockID
		emit     bool
	}{
		{"вода у стекла", block.WaterBlockID, block.GlassBlockID, true},
		{"вода у воды", block.WaterBlockID, block.WaterBlockID, false},
		{"стекло у воды", block.GlassBlockID, block.WaterBlockID, false},
		{"стекло у стекла", block.GlassBlockID, block.GlassBlockID, false},
		{"стекло у листвы", block.GlassBlockID, block.LeavesBlockID, true},
		{"листва у листвы", block.LeavesBlockID, block.LeavesBlockID, true},
		{"камень у листвы", block.StoneBlockID, block.LeavesBlockID, true},
		{"камень у стекла", block.StoneBlockID, block.GlassBlockID, true},
		{"камень у камня", block.StoneBlockID, block.StoneBlockID, false},
		{"камень у воздуха", block.StoneBlockID, block.AirBlockID, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.emit, emitFace(block.Make(tc.self), block.Make(tc.nb)))
		})
	}
}

func TestTransparentStreamAndWaterFlag(t *testing.T) {
	src := mapSource{}
	src.put(center, block.WaterBlockID)

	var buf chunkpool.MeshBuffers
	Build(src, vec.Vec2{}, &buf)

	assert.Zero(t, buf.SolidCount())
	require.Equal(t, 6*VerticesPerFace, buf.TransparentCount())
	for i := range buf.Transparent {
		assert.True(t, Unpack(buf.Transparent[i], buf.TransparentAux[i]).Water)
	}
}

func TestBrightnessMonotonic(t *testing.T) {
	for f := Face(0); f < faceCount; f++ {
		for c := uint8(0); c < 4; c++ {
			for _, shadowed := range []bool{false, true} {
				prev := Brightness(f, c, 0, shadowed)
				for n := 1; n <= 3; n++ {
					cur := Brightness(f, c, n, shadowed)
					assert.LessOrEqual(t, cur, prev, "грань %s угол %d n=%d", f, c, n)
					prev = cur
				}
			}
		}
	}
}

func TestOccludersLowerCornerBrightness(t *testing.T) {
	src := mapSource{}
	src.put(center, block.StoneBlockID)

	brightness := func() uint8 {
		var buf chunkpool.MeshBuffers
		Build(src, vec.Vec2{}, &buf)
		for _, v := range verticesAt(buf.Solid, buf.SolidAux, center) {
			if v.Face == FacePosY && v.Corner == 0 {
				return v.Brightness
			}
		}
		t.Fatal("верхняя грань не найдена")
		return 0
	}

	prev := brightness()
	for _, o := range occluders(FacePosY, 0) {
		src.put(center.Add(o), block.StoneBlockID)
		cur := brightness()
		assert.LessOrEqual(t, cur, prev)
		prev = cur
	}
	assert.Equal(t, uint8(15-AmbChanges[3]), prev)
}

func TestTopShadow(t *testing.T) {
	src := mapSource{}
	src.put(center, block.StoneBlockID)
	src.put(center.Add(vec.Vec3{Y: 5}), block.StoneBlockID)

	var buf chunkpool.MeshBuffers
	Build(src, vec.Vec2{}, &buf)

	for _, v := range verticesAt(buf.Solid, buf.SolidAux, center) {
		if v.Face == FacePosY {
			assert.Equal(t, uint8(15-TopShadow), v.Brightness)
		}
	}
}

func TestPackLayout(t *testing.T) {
	word, aux := Pack(Vertex{X: 1})
	assert.Equal(t, uint32(1), word)
	assert.Zero(t, aux)

	word, _ = Pack(Vertex{Z: 1, Y: 1, Corner: 1, Brightness: 1, Face: 1, U: 1})
	assert.Equal(t, uint32(1<<4|1<<8|1<<16|1<<18|1<<22|1<<25), word)

	_, aux = Pack(Vertex{V: 3, Water: true})
	assert.Equal(t, uint8(3|1<<4), aux)

	v := Unpack(Pack(Vertex{X: 14, Y: 127, Z: 9, Corner: 3, Brightness: 15, Face: FaceNegZ, U: 15, V: 2}))
	assert.Equal(t, Vertex{X: 14, Y: 127, Z: 9, Corner: 3, Brightness: 15, Face: FaceNegZ, U: 15, V: 2}, v)
}

func TestBuildDeterministic(t *testing.T) {
	s := store.New(terrain.New(7, terrain.PlanetNormal))
	pos := vec.Vec2{X: -2, Z: 3}

	var a, b chunkpool.MeshBuffers
	Build(s, pos, &a)
	Build(s, pos, &b)

	assert.NotZero(t, a.SolidCount())
	assert.Equal(t, a.Solid, b.Solid)
	assert.Equal(t, a.SolidAux, b.SolidAux)
	assert.Equal(t, a.Transparent, b.Transparent)
}

func TestRebuildRoutesByPower(t *testing.T) {
	src := mapSource{}
	src.put(vec.Vec3{X: 1, Y: 1, Z: 1}, block.StoneBlockID)

	pool := chunkpool.New(0, nil)
	handoff := queue.NewHandoff()
	m := New(src, pool, handoff)

	_, ok := m.Rebuild(context.Background(), 0, true)
	assert.False(t, ok, "незанятый слот не перестраивается")

	_, ok = pool.Claim(0, vec.Vec2{})
	require.True(t, ok)
	_, ok = pool.Claim(1, vec.Vec2{X: 1})
	require.True(t, ok)

	ready, ok := m.Rebuild(context.Background(), 0, true)
	require.True(t, ok)
	assert.Equal(t, 6*VerticesPerFace, ready.SolidCount)
	assert.Equal(t, 1, handoff.User.Len())

	_, ok = m.Rebuild(context.Background(), 1, false)
	require.True(t, ok)
	assert.Equal(t, 1, handoff.Background.Len())

	pool.Slot(0).WithFront(func(pos vec.Vec2, gen uint64, buf *chunkpool.MeshBuffers) {
		assert.Equal(t, ready.Generation, gen)
		assert.Equal(t, ready.SolidCount, buf.SolidCount())
	})

	_, ok = m.Rebuild(context.Background(), 99, false)
	assert.False(t, ok)
}

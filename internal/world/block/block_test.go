package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogSize(t *testing.T) {
	assert.Equal(t, 46, Count())
	assert.Equal(t, BlockID(46), MarbleBlockID)
	assert.Equal(t, BlockID(3), GrassBlockID)

	for id := BlockID(1); id <= BlockID(Count()); id++ {
		def, ok := Get(id)
		require.True(t, ok, "блок %d не зарегистрирован", id)
		assert.Equal(t, id, def.ID)
		assert.NotEmpty(t, def.Name)
	}

	_, ok := Get(AirBlockID)
	assert.False(t, ok, "воздух не должен иметь определения")
}

func TestSemiTransparentImpliesTransparent(t *testing.T) {
	for id := BlockID(1); id <= BlockID(Count()); id++ {
		if IsSemiTransparent(id) {
			assert.True(t, IsTransparent(id), "блок %d полупрозрачный, но не прозрачный", id)
		}
	}
	assert.True(t, IsSemiTransparent(LeavesBlockID))
	assert.True(t, IsTransparent(WaterBlockID))
	assert.False(t, IsSemiTransparent(WaterBlockID))
	assert.False(t, IsTransparent(StoneBlockID))
}

func TestValueFlags(t *testing.T) {
	v := Make(DoorBlockID).WithDirection(West).WithOpen(true).WithTopHalf(true).WithPaired(true)

	assert.Equal(t, DoorBlockID, v.ID())
	assert.Equal(t, West, v.Direction())
	assert.True(t, v.IsOpen())
	assert.True(t, v.IsTopHalf())
	assert.True(t, v.IsPaired())
	assert.NotZero(t, v.Flags())

	closed := v.WithOpen(false)
	assert.False(t, closed.IsOpen())
	assert.Equal(t, West, closed.Direction())

	assert.Equal(t, StoneBlockID, v.WithID(StoneBlockID).ID())
	assert.True(t, v.WithID(StoneBlockID).IsTopHalf())
}

func TestIsSolid(t *testing.T) {
	assert.True(t, IsSolid(Make(StoneBlockID)))
	assert.False(t, IsSolid(Air))
	assert.False(t, IsSolid(Make(WaterBlockID)))
	assert.True(t, IsSolid(Make(DoorBlockID)))
	assert.False(t, IsSolid(Make(DoorBlockID).WithOpen(true)))
}

func TestTextureFor(t *testing.T) {
	assert.Equal(t, Texture{U: 0, V: 3}, TextureFor(GrassBlockID, true, false))
	assert.Equal(t, cell(GrassBlockID), TextureFor(GrassBlockID, false, false))
	assert.Equal(t, cell(DirtBlockID), TextureFor(GrassBlockID, false, true))
}

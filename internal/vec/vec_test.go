package vec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToChunkCoordsFloorsNegatives(t *testing.T) {
	cases := []struct {
		in   Vec3
		want Vec2
	}{
		{Vec3{X: 0, Y: 5, Z: 0}, Vec2{X: 0, Z: 0}},
		{Vec3{X: 14, Y: 5, Z: 14}, Vec2{X: 0, Z: 0}},
		{Vec3{X: 15, Y: 5, Z: 29}, Vec2{X: 1, Z: 1}},
		{Vec3{X: -1, Y: 5, Z: -15}, Vec2{X: -1, Z: -1}},
		{Vec3{X: -16, Y: 5, Z: 30}, Vec2{X: -2, Z: 2}},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.in.ToChunkCoords(), "координата %+v", c.in)
	}
}

func TestLocalInChunkRoundTrip(t *testing.T) {
	p := Vec3{X: -7, Y: 40, Z: 22}
	local := p.LocalInChunk()
	assert.Equal(t, Vec3{X: 8, Y: 40, Z: 7}, local)
	assert.Equal(t, p, p.ToChunkCoords().Origin().Add(local))
}

func TestChebyshevTo(t *testing.T) {
	assert.Equal(t, 3, Vec2{X: 0, Z: 0}.ChebyshevTo(Vec2{X: -3, Z: 2}))
	assert.Equal(t, 0, Vec2{X: 4, Z: 4}.ChebyshevTo(Vec2{X: 4, Z: 4}))
}

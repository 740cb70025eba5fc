package api

import "github.com/annel0/voxel-engine/internal/vec"

func blockID(id uint16) BlockRequest {
	return BlockRequest{ID: &id}
}

func vecAt(x, y, z int) vec.Vec3 { return vec.Vec3{X: x, Y: y, Z: z} }

func vecChunk(x, z int) vec.Vec2 { return vec.Vec2{X: x, Z: z} }

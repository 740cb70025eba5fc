package util

import (
	"github.com/aquilax/go-perlin"
)

// Noise: детерминированный генератор шума Перлина для конкретного сида.
// После создания только читается, поэтому безопасен для параллельных вызовов.
type Noise struct {
	perlin *perlin.Perlin
}

// NewPerlinNoise создаёт генератор шума Перлина с указанным сидом
func NewPerlinNoise(seed int64) *Noise {
	alpha := 2.0  // Сглаживание шума
	beta := 2.0   // Частота шума
	n := int32(3) // Количество октав
	return &Noise{perlin: perlin.NewPerlin(alpha, beta, n, seed)}
}

// Noise2D возвращает значение шума для указанных координат (от 0 до 1)
func (n *Noise) Noise2D(x, y float64) float64 {
	return clamp01((n.perlin.Noise2D(x, y) + 1.0) / 2.0)
}

// Noise3D возвращает трёхмерный шум в диапазоне от -1 до 1
func (n *Noise) Noise3D(x, y, z float64) float64 {
	v := n.perlin.Noise3D(x, y, z)
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Hash2: дешёвый детерминированный хеш колонки (x, z) для размещения объектов
func Hash2(seed int64, x, z int) uint64 {
	h := uint64(seed)*0x9E3779B97F4A7C15 ^ uint64(int64(x))*0xBF58476D1CE4E5B9 ^ uint64(int64(z))*0x94D049BB133111EB
	h ^= h >> 31
	h *= 0xD6E8FEB86659FD93
	h ^= h >> 32
	return h
}

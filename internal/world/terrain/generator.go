package terrain

import (
	"fmt"
	"math"
	"strings"

	"github.com/annel0/voxel-engine/internal/util"
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world/block"
)

// PlanetType выбирает профиль рельефа
type PlanetType int

const (
	PlanetNormal  PlanetType = iota // Обычная планета: трава, вода, камень
	PlanetHostile                   // Враждебная планета: инопланетные породы, без воды
)

// String возвращает имя типа планеты
func (p PlanetType) String() string {
	switch p {
	case PlanetNormal:
		return "normal"
	case PlanetHostile:
		return "hostile"
	default:
		return "unknown"
	}
}

// ParsePlanet разбирает имя типа планеты
func ParsePlanet(name string) (PlanetType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "normal":
		return PlanetNormal, nil
	case "hostile":
		return PlanetHostile, nil
	default:
		return 0, fmt.Errorf("неизвестный тип планеты: %q", name)
	}
}

// profile: пороги и палитра одного типа планеты
type profile struct {
	baseHeight  float64 // Средняя высота поверхности
	amplitude   float64 // Размах основного шума
	detailAmp   float64 // Размах мелкого шума
	heightScale float64 // Частота основного шума
	detailScale float64 // Частота мелкого шума
	caveScale   float64 // Частота объёмного шума
	caveWeight  float64 // Вклад объёмного шума в плотность
	falloff     float64 // На сколько блоков плотность спадает на единицу
	seaLevel    int     // Уровень заполнения низин
	fillerDepth float64 // Толщина слоя под верхним блоком

	top, filler, deep, shore, liquid, ore block.BlockID
	orePermille                           uint64
}

var profiles = map[PlanetType]profile{
	PlanetNormal: {
		baseHeight: 56, amplitude: 24, detailAmp: 5,
		heightScale: 0.012, detailScale: 0.06, caveScale: 0.08,
		caveWeight: 0.9, falloff: 6, seaLevel: 52, fillerDepth: 4,
		top: block.GrassBlockID, filler: block.DirtBlockID, deep: block.StoneBlockID,
		shore: block.SandBlockID, liquid: block.WaterBlockID,
		ore: block.CoalOreBlockID, orePermille: 15,
	},
	PlanetHostile: {
		baseHeight: 48, amplitude: 36, detailAmp: 9,
		heightScale: 0.02, detailScale: 0.09, caveScale: 0.1,
		caveWeight: 1.4, falloff: 4, seaLevel: 40, fillerDepth: 3,
		top: block.RedSandBlockID, filler: block.BasaltBlockID, deep: block.AlienRockBlockID,
		shore: block.ObsidianBlockID, liquid: block.LavaStoneBlockID,
		ore: block.CrystalBlockID, orePermille: 6,
	},
}

// Generator: чистая функция рельефа: координата -> натуральный блок.
// Результат зависит только от сида, типа планеты и координаты.
type Generator struct {
	Seed   int64
	Planet PlanetType

	height *util.Noise
	detail *util.Noise
	cave   *util.Noise
	prof   profile
}

// New создаёт генератор рельефа. Неизвестный тип планеты трактуется как обычный.
func New(seed int64, planet PlanetType) *Generator {
	prof, ok := profiles[planet]
	if !ok {
		planet = PlanetNormal
		prof = profiles[PlanetNormal]
	}
	return &Generator{
		Seed:   seed,
		Planet: planet,
		height: util.NewPerlinNoise(seed),
		detail: util.NewPerlinNoise(seed + 1),
		cave:   util.NewPerlinNoise(seed + 2),
		prof:   prof,
	}
}

// surface возвращает высоту поверхности колонки без учёта пещер
func (g *Generator) surface(x, z int) float64 {
	p := g.prof
	base := g.height.Noise2D(float64(x)*p.heightScale, float64(z)*p.heightScale)
	detail := g.detail.Noise2D(float64(x)*p.detailScale, float64(z)*p.detailScale)

	h := p.baseHeight + (base-0.5)*2*p.amplitude + (detail-0.5)*2*p.detailAmp
	return math.Max(2, math.Min(h, vec.ChunkHeight-10))
}

// SurfaceHeight возвращает целую высоту поверхности колонки
func (g *Generator) SurfaceHeight(x, z int) int {
	return int(g.surface(x, z))
}

// SeaLevel возвращает уровень заполнения низин для текущего профиля
func (g *Generator) SeaLevel() int {
	return g.prof.seaLevel
}

// Block вычисляет натуральный блок в координате
func (g *Generator) Block(c vec.Vec3) block.Value {
	if c.Y == 0 {
		return block.Make(block.BedrockBlockID)
	}
	if !c.InHeightRange() {
		return block.Air
	}

	p := g.prof
	surface := g.surface(c.X, c.Z)
	depth := surface - float64(c.Y)

	density := depth / p.falloff
	if depth > 1 {
		// Пещеры и нависания только под поверхностью, чтобы верхний слой
		// оставался монотонным по высоте колонки.
		density += g.cave.Noise3D(float64(c.X)*p.caveScale, float64(c.Y)*p.caveScale, float64(c.Z)*p.caveScale) * p.caveWeight
	}

	if density > 0 {
		return block.Make(g.solidAt(c, surface, depth))
	}
	if c.Y <= p.seaLevel {
		return block.Make(p.liquid)
	}
	return block.Air
}

// solidAt выбирает твёрдый блок по глубине под поверхностью
func (g *Generator) solidAt(c vec.Vec3, surface, depth float64) block.BlockID {
	p := g.prof
	nearShore := surface <= float64(p.seaLevel)+1

	switch {
	case depth < 1:
		if nearShore {
			return p.shore
		}
		return p.top
	case depth < p.fillerDepth:
		if nearShore {
			return p.shore
		}
		return p.filler
	default:
		if util.Hash2(g.Seed+int64(c.Y)*7919, c.X, c.Z)%1000 < p.orePermille {
			return p.ore
		}
		return p.deep
	}
}

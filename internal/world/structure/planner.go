package structure

import (
	"github.com/annel0/voxel-engine/internal/util"
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world/block"
	"github.com/annel0/voxel-engine/internal/world/terrain"
)

// Surface: то, что планировщику нужно знать о рельефе
type Surface interface {
	SurfaceHeight(x, z int) int
	SeaLevel() int
	Block(c vec.Vec3) block.Value
}

// Placement: решение поставить префаб в точку
type Placement struct {
	Prefab *Prefab
	Origin vec.Vec3
}

// flora: правила расстановки для одного типа планеты
type flora struct {
	ground   block.BlockID
	permille uint64
	spacing  int
	prefabs  []string
}

var floraByPlanet = map[terrain.PlanetType]flora{
	terrain.PlanetNormal: {
		ground: block.GrassBlockID, permille: 120, spacing: 4,
		prefabs: []string{"oak", "oak", "pine", "boulder"},
	},
	terrain.PlanetHostile: {
		ground: block.RedSandBlockID, permille: 60, spacing: 5,
		prefabs: []string{"crystal_spire", "basalt_boulder"},
	},
}

// Planner детерминированно выбирает места для префабов внутри чанка
type Planner struct {
	seed    int64
	rules   flora
	surface Surface
	lib     *Library
}

// NewPlanner создаёт планировщик для сида и типа планеты
func NewPlanner(seed int64, planet terrain.PlanetType, surface Surface, lib *Library) *Planner {
	rules, ok := floraByPlanet[planet]
	if !ok {
		rules = floraByPlanet[terrain.PlanetNormal]
	}
	return &Planner{seed: seed, rules: rules, surface: surface, lib: lib}
}

// Plan возвращает список префабов для чанка. Один и тот же чанк при том же
// сиде всегда даёт один и тот же список.
func (p *Planner) Plan(chunk vec.Vec2) []Placement {
	if p.lib == nil || p.surface == nil {
		return nil
	}

	var result []Placement
	origin := chunk.Origin()
	for i := 0; i < vec.ChunkWidth; i++ {
		for k := 0; k < vec.ChunkWidth; k++ {
			x, z := origin.X+i, origin.Z+k
			// Сетка разреживания не даёт деревьям врастать друг в друга
			if vec.FloorMod(x, p.rules.spacing) != 0 || vec.FloorMod(z, p.rules.spacing) != 0 {
				continue
			}

			h := util.Hash2(p.seed, x, z)
			if h%1000 >= p.rules.permille {
				continue
			}

			y := p.surface.SurfaceHeight(x, z)
			if y <= p.surface.SeaLevel() || y+1 >= vec.ChunkHeight {
				continue
			}
			if p.surface.Block(vec.Vec3{X: x, Y: y, Z: z}).ID() != p.rules.ground {
				continue
			}

			name := p.rules.prefabs[(h>>16)%uint64(len(p.rules.prefabs))]
			prefab, ok := p.lib.Get(name)
			if !ok {
				continue
			}
			result = append(result, Placement{Prefab: prefab, Origin: vec.Vec3{X: x, Y: y + 1, Z: z}})
		}
	}
	return result
}

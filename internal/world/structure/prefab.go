package structure

import (
	"fmt"

	"github.com/annel0/voxel-engine/internal/world/block"
)

// Size: габариты префаба в вокселях
type Size struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	Z int `yaml:"z"`
}

// Voxel: один закрашенный воксель префаба. Color - индекс палитры,
// который при штамповке превращается в ID блока.
type Voxel struct {
	X     int   `yaml:"x"`
	Y     int   `yaml:"y"`
	Z     int   `yaml:"z"`
	Color uint8 `yaml:"color"`
}

// Prefab: воксельная модель, которую можно отпечатать в мир
type Prefab struct {
	Name   string  `yaml:"name"`
	Size   Size    `yaml:"size"`
	Voxels []Voxel `yaml:"voxels"`
}

// Validate проверяет, что все воксели лежат внутри габаритов
func (p *Prefab) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("у префаба нет имени")
	}
	if p.Size.X <= 0 || p.Size.Y <= 0 || p.Size.Z <= 0 {
		return fmt.Errorf("префаб %s: некорректные габариты %dx%dx%d", p.Name, p.Size.X, p.Size.Y, p.Size.Z)
	}
	for i, v := range p.Voxels {
		if v.X < 0 || v.X >= p.Size.X || v.Y < 0 || v.Y >= p.Size.Y || v.Z < 0 || v.Z >= p.Size.Z {
			return fmt.Errorf("префаб %s: воксель %d (%d,%d,%d) вне габаритов", p.Name, i, v.X, v.Y, v.Z)
		}
	}
	return nil
}

// ColorToBlock переводит индекс палитры в ID блока с ограничением [1, Count]
func ColorToBlock(color uint8) block.BlockID {
	id := int(color)
	if id < 1 {
		id = 1
	}
	if n := block.Count(); id > n {
		id = n
	}
	return block.BlockID(id)
}

// tree строит дерево: ствол по центру и шапку листвы
func tree(name string, trunk, leaves block.BlockID, height, crown int) *Prefab {
	width := crown*2 + 1
	p := &Prefab{Name: name, Size: Size{X: width, Y: height + crown + 1, Z: width}}
	c := crown

	for y := 0; y < height; y++ {
		p.Voxels = append(p.Voxels, Voxel{X: c, Y: y, Z: c, Color: uint8(trunk)})
	}

	top := height - 1
	for dy := -1; dy <= crown; dy++ {
		r := crown - max(dy, 0)
		for dx := -r; dx <= r; dx++ {
			for dz := -r; dz <= r; dz++ {
				if dx == 0 && dz == 0 && dy < 1 {
					continue // здесь ствол
				}
				if abs(dx) == r && abs(dz) == r && r > 1 {
					continue // срезаем углы
				}
				p.Voxels = append(p.Voxels, Voxel{X: c + dx, Y: top + dy + 1, Z: c + dz, Color: uint8(leaves)})
			}
		}
	}
	return p
}

// pine строит ель: высокий ствол и ярусы хвои, сужающиеся кверху
func pine() *Prefab {
	const height, radius = 8, 2
	width := radius*2 + 1
	p := &Prefab{Name: "pine", Size: Size{X: width, Y: height + 1, Z: width}}

	for y := 0; y < height; y++ {
		p.Voxels = append(p.Voxels, Voxel{X: radius, Y: y, Z: radius, Color: uint8(block.PineLogBlockID)})
	}
	for y := 3; y <= height; y++ {
		r := 1
		if y%2 == 1 && y < height-2 {
			r = radius
		}
		if y == height {
			r = 0
		}
		for dx := -r; dx <= r; dx++ {
			for dz := -r; dz <= r; dz++ {
				if dx == 0 && dz == 0 && y < height {
					continue
				}
				p.Voxels = append(p.Voxels, Voxel{X: radius + dx, Y: y, Z: radius + dz, Color: uint8(block.PineLeavesBlockID)})
			}
		}
	}
	return p
}

// boulder строит валун из заданного материала
func boulder(name string, material block.BlockID) *Prefab {
	p := &Prefab{Name: name, Size: Size{X: 3, Y: 2, Z: 3}}
	for x := 0; x < 3; x++ {
		for z := 0; z < 3; z++ {
			p.Voxels = append(p.Voxels, Voxel{X: x, Y: 0, Z: z, Color: uint8(material)})
		}
	}
	p.Voxels = append(p.Voxels, Voxel{X: 1, Y: 1, Z: 1, Color: uint8(material)})
	return p
}

// spire строит кристаллический шпиль для враждебных планет
func spire() *Prefab {
	p := &Prefab{Name: "crystal_spire", Size: Size{X: 3, Y: 6, Z: 3}}
	for y := 0; y < 6; y++ {
		p.Voxels = append(p.Voxels, Voxel{X: 1, Y: y, Z: 1, Color: uint8(block.CrystalBlockID)})
	}
	for _, d := range [][2]int{{0, 1}, {2, 1}, {1, 0}, {1, 2}} {
		p.Voxels = append(p.Voxels, Voxel{X: d[0], Y: 0, Z: d[1], Color: uint8(block.ObsidianBlockID)})
	}
	return p
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

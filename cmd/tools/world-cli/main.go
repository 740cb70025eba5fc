package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/annel0/voxel-engine/internal/auth"
	"github.com/annel0/voxel-engine/internal/logging"
	"github.com/annel0/voxel-engine/internal/storage"
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world"
	"github.com/annel0/voxel-engine/internal/world/block"
	"github.com/annel0/voxel-engine/internal/world/structure"
	"github.com/annel0/voxel-engine/internal/world/terrain"
)

func main() {
	var (
		command  = flag.String("cmd", "info", "Command: info, dump, convert, mesh, prefabs, hash-password, secret")
		file     = flag.String("file", "world.txt", "World file (.zst - compressed)")
		out      = flag.String("out", "", "Output file for convert")
		chunkX   = flag.Int("x", 0, "Chunk X for mesh")
		chunkZ   = flag.Int("z", 0, "Chunk Z for mesh")
		seed     = flag.Int64("seed", 1337, "Seed for mesh when file is absent")
		planet   = flag.String("planet", "normal", "Planet for mesh when file is absent")
		dir      = flag.String("prefabs", "", "Prefab directory")
		password = flag.String("password", "", "Password for hash-password")
		verbose  = flag.Bool("v", false, "Verbose engine logs")
	)
	flag.Parse()

	level := logging.WARN
	if *verbose {
		level = logging.DEBUG
	}
	logging.InitWriter(os.Stderr, level)

	var err error
	switch *command {
	case "info":
		err = showInfo(*file)
	case "dump":
		err = dumpEdits(*file)
	case "convert":
		err = convert(*file, *out)
	case "mesh":
		err = meshChunk(*file, *seed, *planet, *dir, vec.Vec2{X: *chunkX, Z: *chunkZ})
	case "prefabs":
		err = listPrefabs(*dir)
	case "hash-password":
		err = hashPassword(*password)
	case "secret":
		fmt.Println(auth.GenerateSecureSecret())
	default:
		fmt.Printf("❌ Unknown command: %s\n", *command)
		fmt.Println("Available commands: info, dump, convert, mesh, prefabs, hash-password, secret")
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("❌ %s failed: %v", *command, err)
	}
}

func blockName(v block.Value) string {
	if def, ok := block.Get(v.ID()); ok {
		return def.Name
	}
	if v.IsAir() {
		return "Air"
	}
	return fmt.Sprintf("unknown(%d)", v.ID())
}

// showInfo выводит сводку по файлу мира
func showInfo(path string) error {
	wf, err := storage.LoadWorldFile(path)
	if err != nil {
		return err
	}

	counts := make(map[string]int)
	for _, v := range wf.Edits {
		counts[blockName(v)]++
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return counts[names[i]] > counts[names[j]] })

	fmt.Printf("🌍 %s\n", path)
	fmt.Printf("   seed:   %d\n", wf.Seed)
	fmt.Printf("   planet: %s\n", terrain.PlanetType(wf.Planet))
	fmt.Printf("   edits:  %d\n", len(wf.Edits))
	for _, name := range names {
		fmt.Printf("     %-16s %d\n", name, counts[name])
	}
	return nil
}

// dumpEdits печатает правки в порядке файла
func dumpEdits(path string) error {
	wf, err := storage.LoadWorldFile(path)
	if err != nil {
		return err
	}
	coords := make([]vec.Vec3, 0, len(wf.Edits))
	for c := range wf.Edits {
		coords = append(coords, c)
	}
	sort.Slice(coords, func(i, j int) bool {
		a, b := coords[i], coords[j]
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})
	for _, c := range coords {
		v := wf.Edits[c]
		fmt.Printf("%d %d %d %s (0x%08x)\n", c.X, c.Y, c.Z, blockName(v), uint32(v))
	}
	return nil
}

// convert перекладывает мир между сжатым и текстовым форматом
func convert(in, out string) error {
	if out == "" {
		return fmt.Errorf("не задан -out")
	}
	wf, err := storage.LoadWorldFile(in)
	if err != nil {
		return err
	}
	if err := storage.SaveWorldFile(out, wf); err != nil {
		return err
	}
	fmt.Printf("✅ %s → %s (%d правок)\n", in, out, len(wf.Edits))
	return nil
}

// meshChunk строит меш одного чанка и печатает размеры потоков
func meshChunk(path string, seed int64, planetName, prefabDir string, pos vec.Vec2) error {
	planet, err := terrain.ParsePlanet(planetName)
	if err != nil {
		return err
	}
	lib, err := structure.LoadLibrary(prefabDir)
	if err != nil {
		return err
	}

	var edits map[vec.Vec3]block.Value
	wf, err := storage.LoadWorldFile(path)
	switch {
	case err == nil:
		seed, planet, edits = wf.Seed, terrain.PlanetType(wf.Planet), wf.Edits
	case errors.Is(err, os.ErrNotExist):
		fmt.Printf("ℹ️  %s не найден, мир из сида %d\n", path, seed)
	default:
		return err
	}

	engine := world.NewEngine(world.Options{Radius: 0, Seed: seed, Planet: planet, Library: lib})
	for c, v := range edits {
		engine.SetBlock(c, v, true)
	}
	// Структуры соседей могут заходить в чанк
	for dx := -1; dx <= 1; dx++ {
		for dz := -1; dz <= 1; dz++ {
			engine.GenerateChunk(pos.Add(vec.Vec2{X: dx, Z: dz}))
		}
	}

	if _, ok := engine.MoveAndRebuild(0, pos); !ok {
		return fmt.Errorf("не удалось занять слот")
	}
	engine.DrainAll(context.Background())
	if uploaded, _ := engine.DrainReady(nil, 0); uploaded == 0 {
		return fmt.Errorf("меш не построен")
	}

	entry := engine.RenderTable()[0]
	fmt.Printf("🧊 chunk (%d,%d) origin=%v\n", pos.X, pos.Z, entry.Origin)
	fmt.Printf("   solid vertices:       %d (%d faces)\n", entry.SolidCount, entry.SolidCount/6)
	fmt.Printf("   transparent vertices: %d (%d faces)\n", entry.TransparentCount, entry.TransparentCount/6)
	return nil
}

// listPrefabs выводит встроенные и загруженные префабы
func listPrefabs(dir string) error {
	lib, err := structure.LoadLibrary(dir)
	if err != nil {
		return err
	}
	for _, name := range lib.Names() {
		p, _ := lib.Get(name)
		fmt.Printf("%-16s %dx%dx%d voxels=%d\n", name, p.Size.X, p.Size.Y, p.Size.Z, len(p.Voxels))
	}
	return nil
}

// hashPassword печатает bcrypt-хэш для auth.admin_password_hash
func hashPassword(password string) error {
	if len(password) < 6 {
		return fmt.Errorf("пароль должен быть минимум 6 символов")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}

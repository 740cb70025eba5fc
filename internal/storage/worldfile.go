package storage

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world/block"
	"github.com/klauspost/compress/zstd"
)

// CompressedExt: расширение файлов мира, сжатых zstd
const CompressedExt = ".zst"

// WorldFile: сериализуемое состояние мира: сид, тип планеты и правки игрока.
// Правки генерации не сохраняются: они восстанавливаются из сида.
type WorldFile struct {
	Seed   int64
	Planet int
	Edits  map[vec.Vec3]block.Value
}

// Encode пишет мир в текстовом формате:
//
//	seed <n>
//	planet <n>
//	x y z value   (по строке на правку, по возрастанию x, y, z)
func Encode(w io.Writer, wf *WorldFile) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "seed %d\n", wf.Seed)
	fmt.Fprintf(bw, "planet %d\n", wf.Planet)

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
		fmt.Fprintf(bw, "%d %d %d %d\n", c.X, c.Y, c.Z, uint32(wf.Edits[c]))
	}
	return bw.Flush()
}

// Decode читает мир из текстового формата. Пустые строки пропускаются.
func Decode(r io.Reader) (*WorldFile, error) {
	wf := &WorldFile{Edits: make(map[vec.Vec3]block.Value)}
	sc := bufio.NewScanner(r)
	line := 0

	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		fields := strings.Fields(text)

		switch fields[0] {
		case "seed":
			if len(fields) != 2 {
				return nil, fmt.Errorf("строка %d: ожидалось 'seed <n>'", line)
			}
			seed, err := strconv.ParseInt(fields[1], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("строка %d: некорректный сид: %w", line, err)
			}
			wf.Seed = seed
		case "planet":
			if len(fields) != 2 {
				return nil, fmt.Errorf("строка %d: ожидалось 'planet <n>'", line)
			}
			planet, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, fmt.Errorf("строка %d: некорректный тип планеты: %w", line, err)
			}
			wf.Planet = planet
		default:
			if len(fields) != 4 {
				return nil, fmt.Errorf("строка %d: ожидалось 'x y z value', получено %q", line, text)
			}
			var nums [3]int
			for i := 0; i < 3; i++ {
				n, err := strconv.Atoi(fields[i])
				if err != nil {
					return nil, fmt.Errorf("строка %d: некорректная координата: %w", line, err)
				}
				nums[i] = n
			}
			value, err := strconv.ParseUint(fields[3], 10, 32)
			if err != nil {
				return nil, fmt.Errorf("строка %d: некорректное значение блока: %w", line, err)
			}
			wf.Edits[vec.Vec3{X: nums[0], Y: nums[1], Z: nums[2]}] = block.Value(value)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения файла мира: %w", err)
	}
	return wf, nil
}

// IsCompressed сообщает, сжимается ли файл по этому пути
func IsCompressed(path string) bool {
	return strings.EqualFold(filepath.Ext(path), CompressedExt)
}

// SaveWorldFile атомарно записывает мир: сначала во временный файл, затем rename
func SaveWorldFile(path string, wf *WorldFile) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("не удалось создать каталог %s: %w", dir, err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("не удалось создать временный файл: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := writeWorld(tmp, path, wf); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("не удалось закрыть временный файл: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("не удалось заменить %s: %w", path, err)
	}
	return nil
}

func writeWorld(w io.Writer, path string, wf *WorldFile) error {
	if !IsCompressed(path) {
		if err := Encode(w, wf); err != nil {
			return fmt.Errorf("ошибка записи мира: %w", err)
		}
		return nil
	}

	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("не удалось создать zstd writer: %w", err)
	}
	if err := Encode(enc, wf); err != nil {
		enc.Close()
		return fmt.Errorf("ошибка записи мира: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("ошибка сжатия мира: %w", err)
	}
	return nil
}

// LoadWorldFile читает мир. Отсутствие файла возвращается как ошибка,
// для которой errors.Is(err, os.ErrNotExist) истинно.
func LoadWorldFile(path string) (*WorldFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть файл мира: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if IsCompressed(path) {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("не удалось создать zstd reader: %w", err)
		}
		defer dec.Close()
		r = dec
	}

	wf, err := Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return wf, nil
}

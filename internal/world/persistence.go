package world

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/annel0/voxel-engine/internal/eventbus"
	"github.com/annel0/voxel-engine/internal/storage"
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world/block"
	"github.com/annel0/voxel-engine/internal/world/terrain"
)

// SaveCurrentWorldToFile сохраняет сид, тип планеты и правки игрока.
// После успешной записи журнал правок очищается.
func (e *Engine) SaveCurrentWorldToFile(path string) error {
	wf := &storage.WorldFile{
		Seed:   e.Seed(),
		Planet: int(e.Planet()),
		Edits:  e.store.UserEdits(),
	}
	if err := storage.SaveWorldFile(path, wf); err != nil {
		return fmt.Errorf("не удалось сохранить мир: %w", err)
	}

	if e.journal != nil {
		if err := e.journal.Reset(); err != nil {
			e.logger.Warn("Мир сохранён, но журнал не очищен: %v", err)
		}
	}

	e.logger.Info("💾 Мир сохранён в %s (правок: %d)", path, len(wf.Edits))
	e.publish(eventbus.NewEnvelope(eventbus.EventWorldSaved, "engine", eventbus.PriorityNormal, []byte(path)))
	return nil
}

// LoadWorldFromFile загружает мир из файла и применяет журнал правок поверх.
// Отсутствующий файл означает первый запуск: создаётся и сохраняется пустой мир
// с текущими сидом и типом планеты.
func (e *Engine) LoadWorldFromFile(path string) error {
	radius := e.Radius()

	wf, err := storage.LoadWorldFile(path)
	if errors.Is(err, os.ErrNotExist) {
		e.logger.Info("📄 Файл мира %s не найден, создаём новый мир", path)
		e.reset(radius, e.Seed(), e.Planet(), false)
		e.replayJournal()
		return e.SaveCurrentWorldToFile(path)
	}
	if err != nil {
		return err
	}

	e.reset(radius, wf.Seed, terrain.PlanetType(wf.Planet), false)
	e.store.ReplaceUserEdits(wf.Edits)
	replayed := e.replayJournal()

	e.logger.Info("📂 Мир загружен из %s: сид=%d правок=%d из журнала=%d",
		path, wf.Seed, len(wf.Edits), replayed)
	return nil
}

// replayJournal применяет правки, записанные после последнего сохранения
func (e *Engine) replayJournal() int {
	if e.journal == nil {
		return 0
	}
	n, err := e.journal.Replay(func(c vec.Vec3, v block.Value) {
		e.store.Set(c, v, true)
	})
	if err != nil {
		e.logger.Error("Ошибка чтения журнала правок: %v", err)
	}
	return n
}

// RunAutoSave периодически сохраняет мир, пока не отменён ctx
func (e *Engine) RunAutoSave(ctx context.Context, path string, every time.Duration) {
	if path == "" || every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := e.SaveCurrentWorldToFile(path); err != nil {
				e.logger.Error("Автосохранение не удалось: %v", err)
			}
		}
	}
}

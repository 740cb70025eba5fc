package main

import (
	"context"
	"time"

	"github.com/annel0/voxel-engine/internal/logging"
	"github.com/annel0/voxel-engine/internal/world"
	"github.com/annel0/voxel-engine/internal/world/chunkpool"
)

// headlessUploader заменяет GPU: считает загруженные байты.
// Вызывается только из цикла рендера.
type headlessUploader struct {
	bytes   int64
	uploads int64
}

func (u *headlessUploader) Upload(slot int, handles chunkpool.GPUHandles, buf *chunkpool.MeshBuffers) error {
	n := int64(len(buf.Solid)*4 + len(buf.SolidAux) + len(buf.Transparent)*4 + len(buf.TransparentAux))
	u.bytes += n
	u.uploads++
	logging.Trace("upload slot=%d vbo=%d bytes=%d", slot, handles.SolidVBO, n)
	return nil
}

// runRenderLoop раз в кадр забирает готовые меши, как это делал бы поток рендера
func runRenderLoop(ctx context.Context, engine *world.Engine, frame time.Duration, limit int) {
	if frame <= 0 {
		frame = 16 * time.Millisecond
	}
	up := &headlessUploader{}
	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	report := time.NewTicker(30 * time.Second)
	defer report.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			engine.DrainReady(up, limit)
		case <-report.C:
			logging.Info("🖼️ Загружено мешей: %d (%.1f MB)", up.uploads, float64(up.bytes)/1024/1024)
		}
	}
}

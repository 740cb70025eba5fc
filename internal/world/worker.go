package world

import (
	"context"
	"time"

	"github.com/annel0/voxel-engine/internal/world/queue"
)

// ProcessOne извлекает самую срочную заявку и перестраивает слот.
// Возвращает false, если все очереди пусты.
func (e *Engine) ProcessOne(ctx context.Context) bool {
	t, ok := e.router.Pop()
	if !ok {
		return false
	}

	e.mu.RLock()
	m := e.mesher
	e.mu.RUnlock()

	if _, built := m.Rebuild(ctx, t.Slot, t.Priority == queue.PriorityUser); built && e.metrics != nil {
		e.metrics.rebuilds.WithLabelValues(t.Priority.String()).Inc()
	}
	return true
}

// RunWorker: цикл фонового воркера: каждую итерацию заново выбирает самую
// срочную очередь, при пустых очередях засыпает на IdleSleep.
// Завершается при отмене ctx; начатая перестройка доводится до конца.
func (e *Engine) RunWorker(ctx context.Context) {
	e.logger.Info("⚙️ Воркер мешера запущен")
	defer e.logger.Info("⚙️ Воркер мешера остановлен")

	timer := time.NewTimer(e.idleSleep)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if e.ProcessOne(ctx) {
			continue
		}

		e.observeQueues()
		timer.Reset(e.idleSleep)
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}
}

// DrainAll синхронно обрабатывает все заявки (инструменты и тесты)
func (e *Engine) DrainAll(ctx context.Context) int {
	n := 0
	for e.ProcessOne(ctx) {
		n++
	}
	return n
}

func (e *Engine) observeQueues() {
	if e.metrics == nil {
		return
	}
	for _, p := range queue.Priorities() {
		e.metrics.queueDepth.WithLabelValues(p.String()).Set(float64(e.router.Len(p)))
	}
	e.metrics.handoffDepth.WithLabelValues("user").Set(float64(e.handoff.User.Len()))
	e.metrics.handoffDepth.WithLabelValues("background").Set(float64(e.handoff.Background.Len()))
}

package world

import "github.com/annel0/voxel-engine/internal/world/queue"

// Stats: снимок состояния движка для API и утилит
type Stats struct {
	Seed            int64          `json:"seed"`
	Planet          string         `json:"planet"`
	Radius          int            `json:"radius"`
	Slots           int            `json:"slots"`
	ClaimedSlots    int            `json:"claimed_slots"`
	UserEdits       int            `json:"user_edits"`
	GeneratedEdits  int            `json:"generated_edits"`
	GeneratedChunks int            `json:"generated_chunks"`
	Pending         map[string]int `json:"pending"`
	ReadyUser       int            `json:"ready_user"`
	ReadyBackground int            `json:"ready_background"`
}

// Stats собирает снимок состояния
func (e *Engine) Stats() Stats {
	pool := e.Pool()
	user, generated := e.store.Counts()

	pending := make(map[string]int, 4)
	for _, p := range queue.Priorities() {
		pending[p.String()] = e.router.Len(p)
	}

	e.genMu.Lock()
	chunks := len(e.generated)
	e.genMu.Unlock()

	return Stats{
		Seed:            e.Seed(),
		Planet:          e.Planet().String(),
		Radius:          pool.Radius,
		Slots:           pool.Len(),
		ClaimedSlots:    pool.Registry.Len(),
		UserEdits:       user,
		GeneratedEdits:  generated,
		GeneratedChunks: chunks,
		Pending:         pending,
		ReadyUser:       e.handoff.User.Len(),
		ReadyBackground: e.handoff.Background.Len(),
	}
}

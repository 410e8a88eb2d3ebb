package tools

import (
	"sync"
	"time"

	"ventureforge/internal/model"
)

// Ticker animates a progress-tracker card on a two-clock model. The
// underlying generation call exposes no progress signal, so a cosmetic
// clock divides a fixed wall-clock budget evenly across the steps and walks
// them active→done on a timer. The real-completion clock is Finish(): it
// cancels the ticker and force-completes every remaining step the instant
// the actual result lands. The animation may visually overrun or lag, but
// it never outlives the real work.
type Ticker struct {
	emit   func(model.ServerEvent)
	cardID string
	steps  []model.ProgressStep

	interval time.Duration

	mu       sync.Mutex
	position int // steps[0:position] are done
	stopped  bool
	stop     chan struct{}
	finished sync.Once
}

// DefaultProgressBudget is the advisory wall-clock budget the cosmetic
// clock spreads across the steps.
const DefaultProgressBudget = 10 * time.Second

func NewTicker(emit func(model.ServerEvent), cardID string, steps []model.ProgressStep, budget time.Duration) *Ticker {
	interval := budget
	if len(steps) > 0 {
		interval = budget / time.Duration(len(steps))
	}
	return &Ticker{
		emit:     emit,
		cardID:   cardID,
		steps:    steps,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start begins the cosmetic clock. The first step goes active immediately.
func (t *Ticker) Start() {
	if len(t.steps) == 0 {
		return
	}
	t.emitStatus(t.steps[0].ID, model.StepActive)

	go func() {
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		for {
			select {
			case <-t.stop:
				return
			case <-ticker.C:
				if !t.advance() {
					return
				}
			}
		}
	}()
}

// advance marks the current step done and the next one active. The last
// step is left active: only the real completion may finish it.
func (t *Ticker) advance() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || t.position >= len(t.steps)-1 {
		return false
	}
	done := t.steps[t.position]
	t.position++
	next := t.steps[t.position]
	t.emitStatus(done.ID, model.StepDone)
	t.emitStatus(next.ID, model.StepActive)
	return true
}

// Finish stops the cosmetic clock and force-completes all remaining steps.
// Safe to call more than once; only the first call emits.
func (t *Ticker) Finish() {
	t.finished.Do(func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.stopped = true
		close(t.stop)
		for ; t.position < len(t.steps); t.position++ {
			t.emitStatus(t.steps[t.position].ID, model.StepDone)
		}
	})
}

func (t *Ticker) emitStatus(stepID string, status model.StepStatus) {
	if t.emit != nil {
		t.emit(model.ServerEvent{
			Type:   model.EventProgress,
			CardID: t.cardID,
			StepID: stepID,
			Status: status,
		})
	}
}

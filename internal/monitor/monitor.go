package monitor

import (
	"context"
	"log"
	"time"

	"lexline/internal/engine"
)

// ActorID identifies deadline escalations in the activity log.
const ActorID = "deadline-monitor"

// Monitor periodically sweeps open executions for missed statutory response
// windows and escalates them.
type Monitor struct {
	Engine   engine.Engine
	Interval time.Duration
}

func New(e engine.Engine) *Monitor {
	return &Monitor{Engine: e, Interval: e.Config.MonitorInterval()}
}

// Start launches the sweep loop. It runs one sweep immediately, then on every
// tick until ctx is canceled.
func (m *Monitor) Start(ctx context.Context) {
	go m.run(ctx)
}

func (m *Monitor) run(ctx context.Context) {
	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()
	for {
		m.Sweep(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Sweep runs one escalation pass. Failures are logged, not fatal; the next
// tick retries.
func (m *Monitor) Sweep(ctx context.Context) []string {
	escalated, err := m.Engine.EscalateOverdue(ctx, ActorID)
	if err != nil {
		log.Printf("monitor: escalation sweep failed: %v", err)
		return escalated
	}
	if len(escalated) > 0 {
		log.Printf("monitor: escalated %d execution(s) to urgent review", len(escalated))
	}
	return escalated
}

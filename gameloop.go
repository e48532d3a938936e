package pbrtracer

import (
	"time"
)

// smoothingFactor is the responsiveness of the UPS/FPS moving averages at
// one update per second. It is scaled by TargetUPS*DtU so that the averages
// react the same way whatever the configured tick rate.
const smoothingFactor = 0.05

// Time is the fixed-timestep clock. Update systems advance Current by exactly
// DtU per run; render systems observe the latest simulated time.
type Time struct {
	TargetUPS float64
	// TargetFPS caps the frame rate. Zero renders on every iteration.
	TargetFPS float64
	// MaxUpdatesPerIteration bounds catch-up after a stall. Zero means no
	// bound, so sustained overload keeps accumulating update work.
	MaxUpdatesPerIteration int

	// DtU is the fixed update delta, DtF the render delta: fixed when
	// TargetFPS is set, the actual time since the last frame otherwise.
	DtU time.Duration
	DtF time.Duration

	// Current is the simulated time since start.
	Current     time.Duration
	UpdateCount uint64
	FrameCount  uint64

	UPS    float64
	FPS    float64
	RawUPS float64
	RawFPS float64

	started       bool
	start         time.Time
	lastIteration time.Time
	lastUpdate    time.Time
	lastRender    time.Time
	updateAcc     time.Duration
	renderAcc     time.Duration
}

func NewTime(targetUPS, targetFPS float64) *Time {
	return &Time{
		TargetUPS: targetUPS,
		TargetFPS: targetFPS,
		DtU:       rateToDuration(targetUPS),
		DtF:       rateToDuration(targetFPS),
	}
}

func rateToDuration(rate float64) time.Duration {
	if rate <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / rate)
}

// UpdateAccumulator returns the wall-clock time not consumed by update runs yet.
func (t *Time) UpdateAccumulator() time.Duration {
	return t.updateAcc
}

func (t *Time) RenderAccumulator() time.Duration {
	return t.renderAcc
}

// Alpha is the fraction of an update step left in the accumulator, useful to
// interpolate rendering between two simulated states.
func (t *Time) Alpha() float64 {
	if t.DtU <= 0 {
		return 0
	}
	return float64(t.updateAcc) / float64(t.DtU)
}

func (t *Time) smooth(smoothed, raw float64) float64 {
	r := smoothingFactor * t.TargetUPS * t.DtU.Seconds()
	return (1-r)*smoothed + r*raw
}

func (t *Time) begin(now time.Time) {
	t.started = true
	t.start = now
	t.lastIteration = now
	t.lastUpdate = now
	t.lastRender = now
}

type GameloopModule struct {
	TargetUPS              float64
	TargetFPS              float64
	MaxUpdatesPerIteration int
}

func (mod GameloopModule) Install(app *App, cmd *Commands) {
	ups := mod.TargetUPS
	if ups <= 0 {
		ups = 60
	}
	t := NewTime(ups, mod.TargetFPS)
	t.MaxUpdatesPerIteration = mod.MaxUpdatesPerIteration
	cmd.AddResources(t)
}

// Iterate runs one loop iteration at wall-clock time now: EventsCore and
// IterStep unconditionally, as many Update runs as the accumulator allows,
// then PreRender and Render when a frame is due.
func (app *App) Iterate(now time.Time) {
	app.start()

	t, ok := Resource[Time](app)
	if !ok {
		t = NewTime(60, 0)
		app.addResources(t)
	}
	if !t.started {
		t.begin(now)
	}

	app.runPhase(PhaseEventsCore)
	app.runPhase(PhaseIterStep)

	delta := now.Sub(t.lastIteration)

	if t.TargetFPS > 0 {
		t.DtF = rateToDuration(t.TargetFPS)
		t.renderAcc += delta
	} else {
		t.DtF = now.Sub(t.lastRender)
	}

	t.DtU = rateToDuration(t.TargetUPS)
	t.updateAcc += delta

	var updates int64
	if t.DtU > 0 {
		updates = int64(t.updateAcc / t.DtU)
	}
	if limit := int64(t.MaxUpdatesPerIteration); limit > 0 && updates > limit {
		dropped := updates - limit
		t.updateAcc -= time.Duration(dropped) * t.DtU
		app.Logger().Warnf("Update loop is falling behind, dropping %d update(s)", dropped)
		updates = limit
	}

	for i := int64(0); i < updates; i++ {
		app.runPhase(PhaseUpdate)
		t.Current += t.DtU
		t.updateAcc -= t.DtU
		t.UpdateCount++
	}

	if updates > 0 {
		if elapsed := now.Sub(t.lastUpdate).Seconds(); elapsed > 0 {
			t.RawUPS = float64(updates) / elapsed
			t.UPS = t.smooth(t.UPS, t.RawUPS)
		}
		t.lastUpdate = now
	}

	t.Current = now.Sub(t.start)

	render := true
	if t.TargetFPS > 0 {
		render = t.renderAcc >= t.DtF
		if render {
			t.renderAcc -= t.DtF
			t.renderAcc = min(t.renderAcc, 2*t.DtF)
		}
	}

	if render {
		app.runPhase(PhasePreRender)
		app.runPhase(PhaseRender)

		if elapsed := now.Sub(t.lastRender).Seconds(); elapsed > 0 {
			t.RawFPS = 1 / elapsed
			t.FPS = t.smooth(t.FPS, t.RawFPS)
		}
		t.lastRender = now
		t.FrameCount++
	}

	t.lastIteration = now
	app.afterIteration()
}

package pbrtracer

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Profiler accumulates CPU time per named scope between two reports.
type Profiler struct {
	Scopes map[string]time.Duration
	Counts map[string]int
	Order  []string

	startTimes map[string]time.Time
	now        func() time.Time
}

func NewProfiler() *Profiler {
	return &Profiler{
		Scopes:     make(map[string]time.Duration),
		Counts:     make(map[string]int),
		startTimes: make(map[string]time.Time),
		now:        time.Now,
	}
}

func (p *Profiler) BeginScope(name string) {
	p.startTimes[name] = p.now()
	if !slices.Contains(p.Order, name) {
		p.Order = append(p.Order, name)
	}
}

// EndScope adds the time since the matching BeginScope. An unmatched end is
// ignored.
func (p *Profiler) EndScope(name string) {
	start, ok := p.startTimes[name]
	if !ok {
		return
	}
	delete(p.startTimes, name)
	p.Scopes[name] += p.now().Sub(start)
	p.Counts[name]++
}

// Average is the mean duration of a scope since the last Reset.
func (p *Profiler) Average(name string) time.Duration {
	n := p.Counts[name]
	if n == 0 {
		return 0
	}
	return p.Scopes[name] / time.Duration(n)
}

// Reset clears the accumulated times but keeps the scope order.
func (p *Profiler) Reset() {
	clear(p.Scopes)
	clear(p.Counts)
}

// Stats formats the average of every scope in first-seen order, e.g.
// "update 0.12ms x60, render 3.40ms x59".
func (p *Profiler) Stats() string {
	parts := make([]string, 0, len(p.Order))
	for _, name := range p.Order {
		ms := float64(p.Average(name).Microseconds()) / 1000
		parts = append(parts, fmt.Sprintf("%s %.2fms x%d", name, ms, p.Counts[name]))
	}
	return strings.Join(parts, ", ")
}

var (
	profileUpdateBegin = Stage{Name: "ProfileUpdateBegin", Phase: PhaseUpdate}
	profileUpdateEnd   = Stage{Name: "ProfileUpdateEnd", Phase: PhaseUpdate}
	profileRenderBegin = Stage{Name: "ProfileRenderBegin", Phase: PhasePreRender}
	profileRenderEnd   = Stage{Name: "ProfileRenderEnd", Phase: PhaseRender}
)

// ProfilerModule measures the update and render phases and logs their
// averages with the current rates every Interval. Install it after the
// modules adding render stages.
type ProfilerModule struct {
	Interval time.Duration
}

func (m ProfilerModule) Install(app *App, cmd *Commands) {
	if _, ok := Resource[Profiler](app); ok {
		return
	}
	interval := m.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	p := NewProfiler()
	app.addResources(p)

	app.UseStage(profileUpdateBegin, BeforeStage(PreUpdate))
	app.UseStage(profileUpdateEnd, AfterStage(PostUpdate))
	app.UseStage(profileRenderBegin, BeforeStage(PreRender))
	app.UseStage(profileRenderEnd, AfterStage(PostRender))

	app.UseSystem(System(func(p *Profiler) { p.BeginScope("update") }).InStage(profileUpdateBegin).RunAlways())
	app.UseSystem(System(func(p *Profiler) { p.EndScope("update") }).InStage(profileUpdateEnd).RunAlways())
	app.UseSystem(System(func(p *Profiler) { p.BeginScope("render") }).InStage(profileRenderBegin).RunAlways())

	throttle := &logThrottle{interval: interval, last: p.now()}
	app.UseSystem(
		System(func(cmd *Commands, p *Profiler, t *Time) {
			p.EndScope("render")
			if !throttle.allow(p.now()) {
				return
			}
			cmd.app.Logger().Infof("%.1f UPS, %.1f FPS: %s", t.UPS, t.FPS, p.Stats())
			p.Reset()
		}).
			InStage(profileRenderEnd).
			RunAlways(),
	)
}

package pbrtracer

import (
	"github.com/go-gl/mathgl/mgl64"
)

type eventInstance[E any] struct {
	id    uint64
	event E
}

// Events is a double-buffered queue of events of one type. Events stay
// readable for two buffer swaps, so every phase gets to see them before they
// are dropped.
type Events[E any] struct {
	a     []eventInstance[E] // older
	b     []eventInstance[E] // newer
	count uint64
}

func (ev *Events[E]) Send(events ...E) {
	for _, e := range events {
		ev.b = append(ev.b, eventInstance[E]{id: ev.count, event: e})
		ev.count++
	}
}

// Update swaps the buffers, dropping the events of the older one.
func (ev *Events[E]) Update() {
	ev.a, ev.b = ev.b, ev.a[:0]
}

func (ev *Events[E]) Len() int {
	return len(ev.a) + len(ev.b)
}

// All returns every event still buffered, oldest first.
func (ev *Events[E]) All() []E {
	res := make([]E, 0, ev.Len())
	for _, e := range ev.a {
		res = append(res, e.event)
	}
	for _, e := range ev.b {
		res = append(res, e.event)
	}
	return res
}

// EventReader tracks what one consumer already saw. Readers are kept by the
// consuming system, usually captured in its closure.
type EventReader[E any] struct {
	last uint64
}

// Read returns the events sent since the previous Read that are still buffered.
func (r *EventReader[E]) Read(ev *Events[E]) []E {
	var res []E
	for _, buf := range [][]eventInstance[E]{ev.a, ev.b} {
		for _, e := range buf {
			if e.id >= r.last {
				res = append(res, e.event)
			}
		}
	}
	r.last = ev.count
	return res
}

// ScheduleSignals counts the runs of the phases that consume events.
type ScheduleSignals struct {
	counters map[Phase]int
}

var signalledPhases = []Phase{PhaseIterStep, PhaseUpdate, PhaseRender}

func (s *ScheduleSignals) signal(phase Phase) {
	s.counters[phase]++
}

func (s *ScheduleSignals) Count(phase Phase) int {
	return s.counters[phase]
}

// ready is true once every signalled phase ran at least twice: one swap only
// rotates the buffers, so events need two to be observed by everyone.
func (s *ScheduleSignals) ready() bool {
	for _, phase := range signalledPhases {
		if s.counters[phase] < 2 {
			return false
		}
	}
	return true
}

func (s *ScheduleSignals) reset() {
	clear(s.counters)
}

// ClearEvents holds the flushers of every registered event type and whether
// the gate is open in the current iteration.
type ClearEvents struct {
	open     bool
	flushers []func()
}

func (c *ClearEvents) Open() bool {
	return c.open
}

type EventsModule struct{}

func (EventsModule) Install(app *App, cmd *Commands) {
	installEventsCore(app)

	AddEvent[KeyboardInputEvent](app)
	AddEvent[MouseInputEvent](app)
	AddEvent[MouseMotionEvent](app)
	AddEvent[MouseWheelEvent](app)
	AddEvent[WindowResizedEvent](app)
	AddEvent[WindowEvent](app)
}

func installEventsCore(app *App) {
	if _, ok := Resource[ClearEvents](app); ok {
		return
	}

	signals := &ScheduleSignals{counters: make(map[Phase]int)}
	app.addResources(signals, &ClearEvents{})

	app.UseSystem(System(func(s *ScheduleSignals) { s.signal(PhaseIterStep) }).InStage(IterStep))
	app.UseSystem(System(func(s *ScheduleSignals) { s.signal(PhaseUpdate) }).InStage(Update))
	app.UseSystem(System(func(s *ScheduleSignals) { s.signal(PhaseRender) }).InStage(Render))

	app.UseSystem(System(checkSignals).InStage(EventsCore))
	app.UseSystem(System(flushEvents).InStage(EventsCore))
	app.UseSystem(System(resetSignals).InStage(EventsCore))
}

func checkSignals(s *ScheduleSignals, c *ClearEvents) {
	c.open = s.ready()
}

func flushEvents(c *ClearEvents) {
	if !c.open {
		return
	}
	for _, flush := range c.flushers {
		flush()
	}
}

// resetSignals also clears the change trackers, so that they are cleared
// exactly once per flush.
func resetSignals(cmd *Commands, s *ScheduleSignals, c *ClearEvents) {
	if !c.open {
		return
	}
	s.reset()
	c.open = false
	cmd.app.ecs.clearTrackers()
}

// AddEvent registers the event type E and returns its queue. Registering the
// same type twice returns the existing queue.
func AddEvent[E any](app *App) *Events[E] {
	if ev, ok := Resource[Events[E]](app); ok {
		return ev
	}
	installEventsCore(app)

	ev := &Events[E]{}
	app.addResources(ev)
	c := MustResource[ClearEvents](app)
	c.flushers = append(c.flushers, ev.Update)
	return ev
}

// SendEvent queues an event of a registered type. It panics if E was never
// registered with AddEvent.
func SendEvent[E any](cmd *Commands, events ...E) {
	MustResource[Events[E]](cmd.app).Send(events...)
}

type ScreenSize struct {
	W, H uint32
}

type KeyboardInputEvent struct {
	Key      Key
	Scancode int
	State    ElementState
	Mods     Modifiers
}

type MouseInputEvent struct {
	Button MouseButton
	State  ElementState
}

// MouseMotionEvent carries a raw cursor delta in screen pixels.
type MouseMotionEvent struct {
	Delta mgl64.Vec2
}

type MouseWheelEvent struct {
	Delta mgl64.Vec2
}

// WindowResizedEvent is only sent for non-empty sizes.
type WindowResizedEvent struct {
	Size ScreenSize
}

type WindowEventKind int

const (
	WindowFocused WindowEventKind = iota
	WindowUnfocused
	WindowCursorEntered
	WindowCursorLeft
	WindowMouseInput
	WindowCloseRequested
)

type WindowEvent struct {
	Kind WindowEventKind
}

// ShaderChangedEvent is sent when a watched shader source changes on disk.
type ShaderChangedEvent struct {
	Path string
}

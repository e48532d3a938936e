package pbrtracer

import (
	"fmt"
	"slices"
)

type State int

// Phase is one step of a loop iteration. Every stage belongs to exactly one
// phase, and Iterate runs the phases in declaration order: EventsCore,
// IterStep, then zero or more Update runs, then PreRender and Render when a
// frame is due.
type Phase int

const (
	PhaseEventsCore Phase = iota
	PhaseIterStep
	PhaseUpdate
	PhasePreRender
	PhaseRender
)

func (p Phase) String() string {
	switch p {
	case PhaseEventsCore:
		return "EventsCore"
	case PhaseIterStep:
		return "IterStep"
	case PhaseUpdate:
		return "Update"
	case PhasePreRender:
		return "PreRender"
	case PhaseRender:
		return "Render"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

type Stage struct {
	Name  string
	Phase Phase
}

var (
	// EventsCore clears event queues and change trackers. It runs at every iteration.
	EventsCore = Stage{Name: "EventsCore", Phase: PhaseEventsCore}
	// IterStep runs at every iteration, possibly thousands of times per second.
	IterStep   = Stage{Name: "IterStep", Phase: PhaseIterStep}
	PreUpdate  = Stage{Name: "PreUpdate", Phase: PhaseUpdate}
	Update     = Stage{Name: "Update", Phase: PhaseUpdate}
	PostUpdate = Stage{Name: "PostUpdate", Phase: PhaseUpdate}
	PreRender  = Stage{Name: "PreRender", Phase: PhasePreRender}
	Render     = Stage{Name: "Render", Phase: PhaseRender}
	PostRender = Stage{Name: "PostRender", Phase: PhaseRender}
)

func defaultStages() []Stage {
	return []Stage{EventsCore, IterStep, PreUpdate, Update, PostUpdate, PreRender, Render, PostRender}
}

type systemScheduleBuilder struct {
	inStage       Stage
	runAlways     bool
	inState       State
	inStatePhase  statePhase
	system        systemFn
	stateProvided bool
}

type stateScheduleBuilder struct {
	state  State
	phase  statePhase
	always bool
}

type statePhase int

const (
	enter   statePhase = 0
	execute statePhase = 1
	exit    statePhase = 2
)

func OnEnter(state State) stateScheduleBuilder {
	return stateScheduleBuilder{state: state, phase: enter, always: false}
}

func OnExecute(state State) stateScheduleBuilder {
	return stateScheduleBuilder{state: state, phase: execute, always: false}
}

func OnExit(state State) stateScheduleBuilder {
	return stateScheduleBuilder{state: state, phase: exit, always: false}
}

func Always() stateScheduleBuilder {
	return stateScheduleBuilder{always: true}
}

func (sched systemScheduleBuilder) InStage(s Stage) systemScheduleBuilder {
	sched.inStage = s
	return sched
}

func (sched systemScheduleBuilder) InState(s stateScheduleBuilder) systemScheduleBuilder {
	sched.runAlways = s.always
	sched.inState = s.state
	sched.inStatePhase = s.phase
	sched.stateProvided = true
	return sched
}

func (sched systemScheduleBuilder) RunAlways() systemScheduleBuilder {
	sched.runAlways = true
	return sched
}

func (sched systemScheduleBuilder) InAnyState() systemScheduleBuilder {
	return sched.RunAlways()
}

// System schedules a function whose parameters are resource pointers or
// *Commands. Systems default to the Update stage.
func System(system systemFn) systemScheduleBuilder {
	return systemScheduleBuilder{
		system:        system,
		inStage:       Update,
		runAlways:     false,
		stateProvided: false,
	}
}

type stagePosition int

const (
	stageBefore stagePosition = iota
	stageAfter
)

type stagePositionBuilder struct {
	position stagePosition
	target   Stage
}

func BeforeStage(s Stage) stagePositionBuilder {
	return stagePositionBuilder{
		position: stageBefore,
		target:   s,
	}
}

func AfterStage(s Stage) stagePositionBuilder {
	return stagePositionBuilder{
		position: stageAfter,
		target:   s,
	}
}

// UseStage inserts a custom stage next to an existing one. The new stage
// keeps its own Phase, so placing it next to a stage of another phase only
// matters for ordering within that phase.
func (app *App) UseStage(stage Stage, where stagePositionBuilder) *App {
	stageIdx := slices.IndexFunc(app.stages, func(s Stage) bool { return s.Name == where.target.Name })
	if -1 == stageIdx {
		panic(fmt.Sprintf("Stage %v not found", where.target.Name))
	}

	var insertAt int
	if stageBefore == where.position {
		insertAt = stageIdx
	} else {
		insertAt = stageIdx + 1
	}

	app.stages = slices.Insert(app.stages, insertAt, stage)
	return app
}

// UseSystem registers a system. A system may target a stage that is not in
// use yet; it simply does not run until the stage is added with UseStage.
func (app *App) UseSystem(system systemScheduleBuilder) *App {
	name := system.inStage.Name

	if system.runAlways || !system.stateProvided {
		app.systemsStateless[name] = append(app.systemsStateless[name], system.system)
		return app
	}

	if !app.stateful {
		panic("Trying to use a stateful system in a stateless app.")
	}
	if system.inState < app.initialState || system.inState > app.finalState {
		panic(fmt.Sprintf("State %v doesn't exist", system.inState))
	}

	systemsInStage, ok := app.systems[name]
	if !ok {
		systemsInStage = make(map[State]map[statePhase][]systemFn)
		app.systems[name] = systemsInStage
	}
	systemsInState, ok := systemsInStage[system.inState]
	if !ok {
		systemsInState = make(map[statePhase][]systemFn)
		systemsInStage[system.inState] = systemsInState
	}
	systemsInState[system.inStatePhase] = append(systemsInState[system.inStatePhase], system.system)
	return app
}

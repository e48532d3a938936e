package pbrtracer

import (
	"fmt"
	"reflect"
	"runtime"
	"time"
)

type systemFn any

// Module groups resources and systems that are installed together.
type Module interface {
	Install(app *App, cmd *Commands)
}

type App struct {
	stateful           bool
	stateTransitioning bool
	initialState       State
	finalState         State
	nextState          State
	state              State
	stages             []Stage
	systems            map[string]map[State]map[statePhase][]systemFn
	systemsStateless   map[string][]systemFn
	resources          map[reflect.Type]any
	ecs                *Ecs

	// runner drives Iterate until an exit is requested. The window module
	// replaces the default busy loop with the OS event loop.
	runner        func(app *App)
	exitRequested bool
	started       bool

	// Command Buffering
	pendingAdditions    []pendingAdd
	pendingRemovals     []EntityId
	pendingCompAdds     []pendingCompAdd
	pendingCompRemovals []pendingCompRemoval
}

type pendingAdd struct {
	eid        EntityId
	components []any
}

type pendingCompAdd struct {
	eid        EntityId
	components []any
}

type pendingCompRemoval struct {
	eid        EntityId
	components []any
}

func (app *App) Commands() *Commands {
	return &Commands{
		app: app,
	}
}

// UseModules installs modules right away, in order.
func (app *App) UseModules(modules ...Module) *App {
	cmd := app.Commands()
	for _, module := range modules {
		module.Install(app, cmd)
	}
	return app
}

// SetRunner replaces the function driving the loop.
func (app *App) SetRunner(runner func(app *App)) {
	app.runner = runner
}

// Exit asks the runner to stop. The iteration in flight always completes.
func (app *App) Exit() {
	app.exitRequested = true
}

func (app *App) ExitRequested() bool {
	return app.exitRequested
}

// Run enters the initial state, hands control to the runner and leaves the
// current state once the runner returns.
func (app *App) Run() {
	app.start()

	runner := app.runner
	if runner == nil {
		runner = busyLoop
	}
	runner(app)

	if app.stateful {
		app.callSystems(app.state, exit)
	}
}

func busyLoop(app *App) {
	for !app.exitRequested {
		app.Iterate(time.Now())
	}
}

func (app *App) start() {
	if app.started {
		return
	}
	app.started = true

	if app.stateful {
		app.Logger().Debugf("Running in stateful mode...")
		app.state = app.initialState
		app.callSystems(app.state, enter)
	} else {
		app.Logger().Debugf("Running in stateless mode...")
	}
}

// afterIteration applies a pending state change and stops the app once the
// final state is reached.
func (app *App) afterIteration() {
	if !app.stateful {
		return
	}
	if app.stateTransitioning {
		app.stateTransitioning = false
		app.executeChangeState(app.nextState)
	}
	if app.state == app.finalState {
		app.exitRequested = true
	}
}

// runPhase executes every stage belonging to phase. A phase without stages
// or systems is a no-op.
func (app *App) runPhase(phase Phase) {
	for _, stage := range app.stages {
		if stage.Phase == phase {
			app.runStage(stage, app.state, execute)
		}
	}
}

func (app *App) callSystems(state State, phase statePhase) {
	for _, stage := range app.stages {
		app.runStage(stage, state, phase)
	}
}

func (app *App) runStage(stage Stage, state State, phase statePhase) {
	// On execute, call stateless/always run systems first
	if execute == phase {
		for _, system := range app.systemsStateless[stage.Name] {
			app.callSystem(system)
		}
	}

	// Call stateful systems, if required
	if app.stateful {
		if systemsInStage, ok := app.systems[stage.Name]; ok {
			if systemsInState, ok := systemsInStage[state]; ok {
				for _, system := range systemsInState[phase] {
					app.callSystem(system)
				}
			}
		}
	}
	app.FlushCommands()
}

func (app *App) changeState(newState State) {
	app.nextState = newState
	app.stateTransitioning = true
}

func (app *App) executeChangeState(newState State) {
	app.callSystems(app.state, exit)
	app.state = newState
	app.callSystems(app.state, enter)
}

func (app *App) addResources(resources ...any) *App {
	for _, resource := range resources {
		resourceType := reflect.TypeOf(resource)
		if resourceType.Kind() != reflect.Pointer {
			panic(fmt.Sprintf("resource %s must be a pointer", resourceType))
		}
		if _, ok := app.resources[resourceType.Elem()]; ok {
			panic(fmt.Sprintf("%s is already in resources", resourceType))
		}

		app.resources[resourceType.Elem()] = resource
	}
	return app
}

// Resource returns the resource of type T, if installed.
func Resource[T any](app *App) (*T, bool) {
	r, ok := app.resources[reflect.TypeFor[T]()]
	if !ok {
		return nil, false
	}
	return r.(*T), true
}

// MustResource is Resource for resources a module cannot work without.
func MustResource[T any](app *App) *T {
	r, ok := Resource[T](app)
	if !ok {
		panic(fmt.Sprintf("missing resource %s", reflect.TypeFor[T]()))
	}
	return r
}

func (app *App) callSystem(system systemFn) {
	app.callSystemInternal(system)
}

var typeOfCommands = reflect.TypeOf(Commands{})

func (app *App) callSystemInternal(system systemFn) {
	systemType := reflect.TypeOf(system)
	systemValue := reflect.ValueOf(system)

	args := make([]reflect.Value, systemType.NumIn())

	for i := 0; i < systemType.NumIn(); i++ {
		argType := systemType.In(i)
		if argType.Kind() != reflect.Pointer {
			app.panicUnresolved(systemType, systemValue, argType)
		}
		underlyingType := argType.Elem()

		if underlyingType == typeOfCommands {
			args[i] = reflect.ValueOf(&Commands{app: app})
		} else if resource, argIsResource := app.resources[underlyingType]; argIsResource {
			args[i] = reflect.ValueOf(resource)
		} else {
			app.panicUnresolved(systemType, systemValue, argType)
		}
	}
	systemValue.Call(args)
}

func (app *App) panicUnresolved(systemType reflect.Type, systemValue reflect.Value, argType reflect.Type) {
	msg := fmt.Sprintf("Unable to resolve System dependency.\nSystem: %s\nSystem type: %s\nDependency: %s",
		runtime.FuncForPC(systemValue.Pointer()).Name(),
		fmt.Sprint(systemType),
		fmt.Sprint(argType),
	)
	app.Logger().Errorf("%s", msg)
	panic(msg)
}

func (app *App) FlushCommands() {
	if len(app.pendingAdditions) == 0 && len(app.pendingRemovals) == 0 &&
		len(app.pendingCompAdds) == 0 && len(app.pendingCompRemovals) == 0 {
		return
	}

	// 1. Process Removals first (so we don't add to dead entities)
	for _, eid := range app.pendingRemovals {
		if app.ecs.hasEntity(eid) {
			app.ecs.removeEntity(eid)
		}
	}
	app.pendingRemovals = app.pendingRemovals[:0]

	// 2. Process Additions
	for _, add := range app.pendingAdditions {
		app.ecs.insertEntity(add.eid, add.components...)
	}
	app.pendingAdditions = app.pendingAdditions[:0]

	// 3. Process Component Additions
	for _, add := range app.pendingCompAdds {
		if app.ecs.hasEntity(add.eid) {
			app.ecs.addComponents(add.eid, add.components...)
		}
	}
	app.pendingCompAdds = app.pendingCompAdds[:0]

	// 4. Process Component Removals
	for _, rm := range app.pendingCompRemovals {
		if app.ecs.hasEntity(rm.eid) {
			app.ecs.removeComponents(rm.eid, rm.components...)
		}
	}
	app.pendingCompRemovals = app.pendingCompRemovals[:0]
}

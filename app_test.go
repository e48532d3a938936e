package pbrtracer

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockResource1 struct {
	name string
}
type MockResource2 struct {
	name string
}

func NewMockResource1(name string) *MockResource1 {
	return &MockResource1{name: name}
}
func NewMockResource2(name string) *MockResource2 {
	return &MockResource2{name: name}
}

func TestApp_changeState(t *testing.T) {
	app := &App{
		stateful:     true,
		initialState: 1,
		state:        1,
		finalState:   2,
	}

	app.changeState(2)
	assert.Equal(t, State(2), app.nextState)
	assert.True(t, app.stateTransitioning)

	app.executeChangeState(2)
	assert.Equal(t, State(2), app.state)
}

func TestApp_addResources(t *testing.T) {
	app := &App{
		resources: make(map[reflect.Type]any),
	}

	resource1 := NewMockResource1("Resource1")
	app.addResources(resource1)
	assert.Contains(t, app.resources, reflect.TypeOf(resource1).Elem(), "Resource1 should be in resources map.")

	// Expect panic when trying to add the same type of resource again
	require.PanicsWithValue(t, fmt.Sprintf("%s is already in resources", reflect.TypeOf(resource1)), func() {
		app.addResources(resource1)
	})

	resource2 := NewMockResource2("Resource2")
	app.addResources(resource2)
	assert.Contains(t, app.resources, reflect.TypeOf(resource2).Elem(), "Resource2 should be in resources map.")

	require.Panics(t, func() {
		app.addResources(MockResource2{})
	}, "resources must be pointers")
}

func TestApp_Resource(t *testing.T) {
	app := NewAppBuilder().Build()

	_, ok := Resource[MockResource1](app)
	assert.False(t, ok)
	assert.PanicsWithValue(t, "missing resource pbrtracer.MockResource1", func() {
		MustResource[MockResource1](app)
	})

	r := NewMockResource1("r")
	app.addResources(r)
	got, ok := Resource[MockResource1](app)
	require.True(t, ok)
	assert.Same(t, r, got)
	assert.Same(t, r, MustResource[MockResource1](app))
}

func TestApp_SystemInjection(t *testing.T) {
	app := NewAppBuilder().Build()
	r := NewMockResource1("injected")
	app.addResources(r)

	var gotName string
	var gotCmd *Commands
	app.UseSystem(System(func(cmd *Commands, res *MockResource1) {
		gotCmd = cmd
		gotName = res.name
	}))
	app.runPhase(PhaseUpdate)

	assert.Equal(t, "injected", gotName)
	require.NotNil(t, gotCmd)
	assert.Same(t, app, gotCmd.App())
}

func TestApp_UnresolvedSystemDependency(t *testing.T) {
	app := NewAppBuilder().Build()
	app.UseSystem(System(func(res *MockResource2) {}))

	msg := func() (msg any) {
		defer func() { msg = recover() }()
		app.runPhase(PhaseUpdate)
		return nil
	}()

	require.IsType(t, "", msg)
	assert.Contains(t, msg.(string), "Unable to resolve System dependency")
	assert.Contains(t, msg.(string), "*pbrtracer.MockResource2")
}

func TestApp_StatelessSystemsRunBeforeStateful(t *testing.T) {
	app := NewAppBuilder().UseStates(0, 1).Build()
	app.start()

	var order []string
	app.UseSystem(System(func() { order = append(order, "stateful") }).InState(OnExecute(0)))
	app.UseSystem(System(func() { order = append(order, "stateless") }).RunAlways())

	app.runPhase(PhaseUpdate)
	assert.Equal(t, []string{"stateless", "stateful"}, order)
}

func TestApp_CommandsAreFlushedAfterEachStage(t *testing.T) {
	type Marker struct{}
	app := NewAppBuilder().Build()

	var seenInUpdate int
	app.UseSystem(System(func(cmd *Commands) {
		cmd.AddEntity(Marker{})
	}).InStage(PreUpdate))
	app.UseSystem(System(func(cmd *Commands) {
		MakeQuery1[Marker](cmd).Map(func(EntityId, *Marker) bool {
			seenInUpdate++
			return true
		})
	}).InStage(Update))

	app.runPhase(PhaseUpdate)
	assert.Equal(t, 1, seenInUpdate)
}

func TestApp_RunStopsOnExit(t *testing.T) {
	app := NewAppBuilder().Build()
	iterations := 0
	app.UseSystem(System(func(cmd *Commands) {
		iterations++
		if iterations == 3 {
			cmd.Exit()
		}
	}).InStage(IterStep))

	now := time.Unix(0, 0)
	app.SetRunner(func(app *App) {
		for !app.ExitRequested() {
			now = now.Add(time.Millisecond)
			app.Iterate(now)
		}
	})
	app.Run()

	assert.Equal(t, 3, iterations)
	assert.True(t, app.ExitRequested())
}

func TestApp_FinalStateExits(t *testing.T) {
	app := NewAppBuilder().UseStates(0, 2).Build()

	var entered []State
	for s := State(0); s <= 2; s++ {
		app.UseSystem(System(func() { entered = append(entered, s) }).InState(OnEnter(s)))
	}
	app.UseSystem(System(func(cmd *Commands) {
		cmd.ChangeState(cmd.App().state + 1)
	}).InState(Always()).InStage(IterStep))

	now := time.Unix(0, 0)
	for i := 0; i < 10 && !app.ExitRequested(); i++ {
		now = now.Add(time.Millisecond)
		app.Iterate(now)
	}

	assert.Equal(t, []State{0, 1, 2}, entered)
	assert.True(t, app.ExitRequested())
}

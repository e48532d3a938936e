package pbrtracer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPausableApp(t *testing.T, m PauseModule) (*App, *recordingLogger) {
	t.Helper()
	logger := &recordingLogger{}
	app := NewAppBuilder().
		UseStates(StateRunning, StateQuit).
		UseModule(GameloopModule{TargetUPS: 60}, EventsModule{}, m).
		Build()
	app.addResources(logger)
	app.start()
	return app, logger
}

func press(app *App, key Key) {
	SendEvent(app.Commands(), KeyboardInputEvent{Key: key, State: Pressed})
	app.runPhase(PhaseUpdate)
	app.afterIteration()
}

func TestPauseModule_Toggle(t *testing.T) {
	app, logger := newPausableApp(t, PauseModule{})
	runs := 0
	app.UseSystem(WhileRunning(app, System(func() { runs++ })))

	app.runPhase(PhaseUpdate)
	assert.Equal(t, 1, runs)

	press(app, KeyP)
	assert.Equal(t, StatePaused, app.state)
	assert.Equal(t, 2, runs, "the state changes after the iteration")

	app.runPhase(PhaseUpdate)
	assert.Equal(t, 2, runs, "skipped while paused")

	press(app, KeyP)
	assert.Equal(t, StateRunning, app.state)
	app.runPhase(PhaseUpdate)
	assert.Equal(t, 3, runs)

	assert.Equal(t, []string{"Paused", "Resumed"}, logger.infos)
	assert.False(t, app.ExitRequested())
}

func TestPauseModule_Quit(t *testing.T) {
	app, logger := newPausableApp(t, PauseModule{Key: KeyF1, QuitKey: KeyEscape})

	press(app, KeyP)
	assert.Equal(t, StateRunning, app.state, "P is not the configured key")

	press(app, KeyF1)
	require.Equal(t, StatePaused, app.state)

	press(app, KeyEscape)
	assert.Equal(t, StateQuit, app.state)
	assert.True(t, app.ExitRequested())
	assert.Equal(t, []string{"Paused", "Resumed", "Quitting"}, logger.infos)
}

func TestPauseModule_NeedsStates(t *testing.T) {
	assert.PanicsWithValue(t, "PauseModule needs an app built with UseStates(StateRunning, StateQuit)", func() {
		NewAppBuilder().UseModule(PauseModule{}).Build()
	})
	assert.Panics(t, func() {
		NewAppBuilder().UseStates(StateRunning, StatePaused).UseModule(PauseModule{}).Build()
	})
}

func TestWhileRunning_StatelessApp(t *testing.T) {
	app := NewAppBuilder().Build()
	runs := 0
	app.UseSystem(WhileRunning(app, System(func() { runs++ })))

	app.runPhase(PhaseUpdate)
	assert.Equal(t, 1, runs)
}

package pbrtracer

// States of an app built with UseStates(StateRunning, StateQuit). Entering
// StateQuit ends the run.
const (
	StateRunning State = iota
	StatePaused
	StateQuit
)

// PauseControl is the resource of PauseModule.
type PauseControl struct {
	Key     Key
	QuitKey Key
}

// PauseModule switches between StateRunning and StatePaused when Key (P by
// default) is pressed and moves to StateQuit on QuitKey (Q by default).
// Systems scheduled with WhileRunning are skipped while paused, rendering
// goes on. Install it before the modules using WhileRunning.
type PauseModule struct {
	Key     Key
	QuitKey Key
}

func (m PauseModule) Install(app *App, cmd *Commands) {
	if _, ok := Resource[PauseControl](app); ok {
		return
	}
	if !app.stateful || app.initialState != StateRunning || app.finalState != StateQuit {
		panic("PauseModule needs an app built with UseStates(StateRunning, StateQuit)")
	}

	ctl := &PauseControl{Key: m.Key, QuitKey: m.QuitKey}
	if ctl.Key == KeyUnknown {
		ctl.Key = KeyP
	}
	if ctl.QuitKey == KeyUnknown {
		ctl.QuitKey = KeyQ
	}
	app.addResources(ctl)

	keys := AddEvent[KeyboardInputEvent](app)
	reader := &EventReader[KeyboardInputEvent]{}
	app.UseSystem(
		System(func(cmd *Commands, ctl *PauseControl) {
			batch := ReadKeyboard(reader, keys)
			switch {
			case batch.HasPressed(ctl.QuitKey):
				cmd.ChangeState(StateQuit)
			case batch.HasPressed(ctl.Key) && cmd.State() == StateRunning:
				cmd.ChangeState(StatePaused)
			case batch.HasPressed(ctl.Key) && cmd.State() == StatePaused:
				cmd.ChangeState(StateRunning)
			}
		}).
			InStage(Update).
			InState(Always()),
	)

	app.UseSystem(System(func(cmd *Commands) { cmd.app.Logger().Infof("Paused") }).InState(OnEnter(StatePaused)))
	app.UseSystem(System(func(cmd *Commands) { cmd.app.Logger().Infof("Resumed") }).InState(OnExit(StatePaused)))
	app.UseSystem(System(func(cmd *Commands) { cmd.app.Logger().Infof("Quitting") }).InState(OnEnter(StateQuit)))
}

// WhileRunning schedules sched in StateRunning only when PauseModule is
// installed. Otherwise the system always runs.
func WhileRunning(app *App, sched systemScheduleBuilder) systemScheduleBuilder {
	if _, ok := Resource[PauseControl](app); ok {
		return sched.InState(OnExecute(StateRunning))
	}
	return sched.RunAlways()
}

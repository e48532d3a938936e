package pbrtracer

type Commands struct {
	app *App
}

func (cmd *Commands) App() *App {
	return cmd.app
}

func (cmd *Commands) ChangeState(newState State) *Commands {
	cmd.app.changeState(newState)
	return cmd
}

// State is the current state of a stateful app.
func (cmd *Commands) State() State {
	return cmd.app.state
}

func (cmd *Commands) AddResources(resources ...any) *Commands {
	cmd.app.addResources(resources...)
	return cmd
}

// Exit requests the runner to stop after the current iteration.
func (cmd *Commands) Exit() {
	cmd.app.Exit()
}

func (cmd *Commands) AddEntity(components ...any) EntityId {
	eid := cmd.app.ecs.nextEntityId()
	cmd.app.pendingAdditions = append(cmd.app.pendingAdditions, pendingAdd{
		eid:        eid,
		components: components,
	})
	return eid
}

func (cmd *Commands) AddComponents(entityId EntityId, components ...any) {
	cmd.app.pendingCompAdds = append(cmd.app.pendingCompAdds, pendingCompAdd{
		eid:        entityId,
		components: components,
	})
}

func (cmd *Commands) RemoveComponents(entityId EntityId, components ...any) {
	cmd.app.pendingCompRemovals = append(cmd.app.pendingCompRemovals, pendingCompRemoval{
		eid:        entityId,
		components: components,
	})
}

func (cmd *Commands) RemoveEntity(entityId EntityId) {
	cmd.app.pendingRemovals = append(cmd.app.pendingRemovals, entityId)
}

// GetAllComponents returns copies of every component of entityId, or nil
// when the entity doesn't exist.
func (cmd *Commands) GetAllComponents(entityId EntityId) []any {
	return cmd.app.ecs.componentsOf(entityId)
}

// MarkChanged flags component T of entityId as changed until the event gate
// next clears the trackers. Systems mutating components through queries call
// it so that change-driven systems notice.
func MarkChanged[T any](cmd *Commands, entityId EntityId) {
	ecs := cmd.app.ecs
	ecs.markChanged(entityId, ecs.getComponentId(typeOf[T]()))
}

// IsAdded reports whether component T was added to entityId since the last
// tracker clear.
func IsAdded[T any](cmd *Commands, entityId EntityId) bool {
	ecs := cmd.app.ecs
	return ecs.trackers.added.has(ecs.getComponentId(typeOf[T]()), entityId)
}

// IsChanged reports whether component T of entityId was added or marked
// changed since the last tracker clear.
func IsChanged[T any](cmd *Commands, entityId EntityId) bool {
	ecs := cmd.app.ecs
	id := ecs.getComponentId(typeOf[T]())
	return ecs.trackers.added.has(id, entityId) || ecs.trackers.changed.has(id, entityId)
}

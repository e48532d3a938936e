package pbrtracer

import "reflect"

// tracked records, per component, the entities touched since the last clear.
type tracked map[componentId]set[EntityId]

func (t tracked) add(id componentId, eid EntityId) {
	entities, ok := t[id]
	if !ok {
		entities = make(set[EntityId])
		t[id] = entities
	}
	entities[eid] = struct{}{}
}

func (t tracked) has(id componentId, eid EntityId) bool {
	_, ok := t[id][eid]
	return ok
}

// changeTrackers are cleared together with the event queues, once every
// tracked phase had a chance to observe them.
type changeTrackers struct {
	added   tracked
	changed tracked
}

func makeChangeTrackers() changeTrackers {
	return changeTrackers{
		added:   make(tracked),
		changed: make(tracked),
	}
}

func (t *changeTrackers) forget(eid EntityId) {
	for _, entities := range t.added {
		delete(entities, eid)
	}
	for _, entities := range t.changed {
		delete(entities, eid)
	}
}

func (t *changeTrackers) clear() {
	clear(t.added)
	clear(t.changed)
}

func (ecs *Ecs) markChanged(eid EntityId, id componentId) {
	if !ecs.hasEntity(eid) {
		return
	}
	ecs.trackers.changed.add(id, eid)
}

func (ecs *Ecs) clearTrackers() {
	ecs.trackers.clear()
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}

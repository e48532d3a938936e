package pbrtracer

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

type EntityId uint64
type componentId uint32
type row int
type set[T comparable] = map[T]struct{}

// archetypeKey is the sorted, deduplicated list of the components an
// archetype stores.
type archetypeKey []componentId

func makeArchetypeKey(ids ...componentId) archetypeKey {
	key := slices.Clone(ids)
	slices.Sort(key)
	return slices.Compact(key)
}

func (k archetypeKey) union(other archetypeKey) archetypeKey {
	return makeArchetypeKey(append(slices.Clone(k), other...)...)
}

func (k archetypeKey) without(removed set[componentId]) archetypeKey {
	return slices.DeleteFunc(slices.Clone(k), func(id componentId) bool {
		_, ok := removed[id]
		return ok
	})
}

// signature identifies the archetype in the Ecs map. Unlike a hash of the
// key it cannot collide.
func (k archetypeKey) signature() string {
	var sb strings.Builder
	for i, id := range k {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatUint(uint64(id), 10))
	}
	return sb.String()
}

// archetype stores every entity with exactly the components of its key, one
// typed slice per component. Rows of removed entities are reused.
type archetype struct {
	key           archetypeKey
	entities      map[EntityId]row
	componentData map[componentId]any
	recycled      []row
	rows          int
}

// Ecs is the entity store. It is only touched from the thread running the
// App, so it has no locking.
type Ecs struct {
	archetypes  map[string]*archetype
	entityIndex map[EntityId]*archetype
	nextEntity  EntityId
	components  componentRegistry
	trackers    changeTrackers
}

func MakeEcs() Ecs {
	return Ecs{
		archetypes:  make(map[string]*archetype),
		entityIndex: make(map[EntityId]*archetype),
		components:  makeComponentRegistry(),
		trackers:    makeChangeTrackers(),
	}
}

func (ecs *Ecs) nextEntityId() EntityId {
	id := ecs.nextEntity
	ecs.nextEntity++
	return id
}

func (ecs *Ecs) addEntity(components ...any) EntityId {
	return ecs.insertEntity(ecs.nextEntityId(), components...)
}

func (ecs *Ecs) insertEntity(entityId EntityId, components ...any) EntityId {
	arch := ecs.archetypeFor(ecs.keyOf(components...))
	r := ecs.reserveRow(arch)
	for _, component := range components {
		ecs.trackers.added.add(ecs.writeComponent(arch, r, component), entityId)
	}
	ecs.place(entityId, arch, r)
	return entityId
}

func (ecs *Ecs) hasEntity(entityId EntityId) bool {
	_, ok := ecs.entityIndex[entityId]
	return ok
}

func (ecs *Ecs) removeEntity(entityId EntityId) {
	ecs.recycleEntity(entityId)
	ecs.trackers.forget(entityId)
}

// addComponents moves the entity to the archetype also holding components.
// Components it already has are overwritten.
func (ecs *Ecs) addComponents(entityId EntityId, components ...any) {
	src := ecs.entityIndex[entityId]
	srcRow := src.entities[entityId]

	dst := ecs.archetypeFor(src.key.union(ecs.keyOf(components...)))
	dstRow := ecs.reserveRow(dst)
	ecs.moveComponents(src, srcRow, dst, dstRow, src.key)
	for _, component := range components {
		ecs.trackers.added.add(ecs.writeComponent(dst, dstRow, component), entityId)
	}

	ecs.recycleEntity(entityId)
	ecs.place(entityId, dst, dstRow)
}

// removeComponents takes component values or pointers to them; only their
// types matter.
func (ecs *Ecs) removeComponents(entityId EntityId, components ...any) {
	src := ecs.entityIndex[entityId]
	srcRow := src.entities[entityId]

	removed := make(set[componentId])
	for _, c := range components {
		removed[ecs.components.id(componentType(c))] = struct{}{}
	}

	dst := ecs.archetypeFor(src.key.without(removed))
	dstRow := ecs.reserveRow(dst)
	ecs.moveComponents(src, srcRow, dst, dstRow, dst.key)

	ecs.recycleEntity(entityId)
	ecs.place(entityId, dst, dstRow)
}

// componentsOf returns a copy of every component of the entity.
func (ecs *Ecs) componentsOf(entityId EntityId) []any {
	arch, ok := ecs.entityIndex[entityId]
	if !ok {
		return nil
	}
	r := arch.entities[entityId]
	res := make([]any, 0, len(arch.key))
	for _, id := range arch.key {
		res = append(res, reflectSliceGet(arch.componentData[id], int(r)).Interface())
	}
	return res
}

func (ecs *Ecs) place(entityId EntityId, arch *archetype, r row) {
	arch.entities[entityId] = r
	ecs.entityIndex[entityId] = arch
}

func (ecs *Ecs) recycleEntity(entityId EntityId) {
	arch, ok := ecs.entityIndex[entityId]
	if !ok {
		return
	}
	arch.recycled = append(arch.recycled, arch.entities[entityId])
	delete(arch.entities, entityId)
	delete(ecs.entityIndex, entityId)
}

func (ecs *Ecs) moveComponents(src *archetype, srcRow row, dst *archetype, dstRow row, key archetypeKey) {
	for _, id := range key {
		value := reflectSliceGet(src.componentData[id], int(srcRow))
		reflectSliceSet(dst.componentData[id], int(dstRow), value)
	}
}

func (ecs *Ecs) writeComponent(arch *archetype, r row, component any) componentId {
	value := reflect.ValueOf(component)
	if value.Kind() == reflect.Pointer {
		value = value.Elem()
	}
	id := ecs.components.id(componentType(component))
	reflectSliceSet(arch.componentData[id], int(r), value)
	return id
}

func (ecs *Ecs) keyOf(components ...any) archetypeKey {
	ids := make([]componentId, 0, len(components))
	for _, c := range components {
		ids = append(ids, ecs.components.id(componentType(c)))
	}
	return makeArchetypeKey(ids...)
}

func (ecs *Ecs) archetypeFor(key archetypeKey) *archetype {
	sig := key.signature()
	if arch, ok := ecs.archetypes[sig]; ok {
		return arch
	}

	arch := &archetype{
		key:           key,
		entities:      make(map[EntityId]row),
		componentData: make(map[componentId]any, len(key)),
	}
	for _, id := range key {
		arch.componentData[id] = reflectSliceMake(ecs.components.typeOf(id))
	}
	ecs.archetypes[sig] = arch
	return arch
}

func (ecs *Ecs) reserveRow(arch *archetype) row {
	if n := len(arch.recycled); n > 0 {
		r := arch.recycled[n-1]
		arch.recycled = arch.recycled[:n-1]
		return r
	}

	r := row(arch.rows)
	arch.rows++
	for _, id := range arch.key {
		arch.componentData[id] = reflectSliceAppend(arch.componentData[id], reflect.Zero(ecs.components.typeOf(id)))
	}
	return r
}

// componentType is the struct type of a component given by value or pointer.
func componentType(component any) reflect.Type {
	t := reflect.TypeOf(component)
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		panic(fmt.Sprintf("component should be a struct or a pointer to a struct, got %v", reflect.TypeOf(component)))
	}
	return t
}

// componentRegistry hands out dense ids to component types in order of first use.
type componentRegistry struct {
	ids   map[reflect.Type]componentId
	types []reflect.Type
}

func makeComponentRegistry() componentRegistry {
	return componentRegistry{ids: make(map[reflect.Type]componentId)}
}

func (r *componentRegistry) id(t reflect.Type) componentId {
	if id, ok := r.ids[t]; ok {
		return id
	}
	id := componentId(len(r.types))
	r.ids[t] = id
	r.types = append(r.types, t)
	return id
}

func (r *componentRegistry) typeOf(id componentId) reflect.Type {
	if int(id) >= len(r.types) {
		panic(fmt.Sprintf("component id %d is not registered", id))
	}
	return r.types[id]
}

// getComponentId registers t on first use.
func (ecs *Ecs) getComponentId(t reflect.Type) componentId {
	return ecs.components.id(t)
}

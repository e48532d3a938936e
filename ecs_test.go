package pbrtracer

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEcs_MakeEcs(t *testing.T) {
	ecs := MakeEcs()

	assert.Empty(t, ecs.archetypes)
	assert.Empty(t, ecs.entityIndex)
	assert.Zero(t, ecs.nextEntity)
	assert.Empty(t, ecs.components.types)
}

func TestEcs_AddEntity(t *testing.T) {
	type TestComponent struct{ x string }

	ecs := MakeEcs()
	empty := ecs.addEntity()
	withComp := ecs.addEntity(TestComponent{x: "test"})

	require.True(t, ecs.hasEntity(empty))
	require.True(t, ecs.hasEntity(withComp))
	assert.NotSame(t, ecs.entityIndex[empty], ecs.entityIndex[withComp],
		"entities with different components share an archetype")
	assert.Equal(t, []any{TestComponent{x: "test"}}, ecs.componentsOf(withComp))

	again := ecs.addEntity(&TestComponent{x: "pointer"})
	assert.Same(t, ecs.entityIndex[withComp], ecs.entityIndex[again])
}

func TestEcs_AddComponents(t *testing.T) {
	type TestComponent0 struct{ a int }
	type TestComponent1 struct{ x string }
	type TestComponent2 struct{ y string }

	ecs := MakeEcs()
	eid := ecs.addEntity(TestComponent0{a: 1337})
	ecs.addComponents(eid, TestComponent1{x: "test"}, &TestComponent2{y: "hello"})

	arch := ecs.entityIndex[eid]
	assert.Len(t, arch.key, 3)
	assert.ElementsMatch(t, []any{
		TestComponent0{a: 1337}, TestComponent1{x: "test"}, TestComponent2{y: "hello"},
	}, ecs.componentsOf(eid))

	ecs.addComponents(eid, TestComponent1{x: "overwritten"})
	assert.Same(t, arch, ecs.entityIndex[eid], "adding a present component keeps the archetype")
	assert.Contains(t, ecs.componentsOf(eid), TestComponent1{x: "overwritten"})
}

func TestEcs_RemoveComponents(t *testing.T) {
	type Position struct{ X, Y float64 }
	type Velocity struct{ X, Y float64 }

	ecs := MakeEcs()
	other := ecs.addEntity(Position{5, 5})
	eid := ecs.addEntity(Position{1, 2}, Velocity{3, 4})

	ecs.removeComponents(eid, &Velocity{})
	assert.Equal(t, []any{Position{1, 2}}, ecs.componentsOf(eid))
	assert.Same(t, ecs.entityIndex[other], ecs.entityIndex[eid])
	assert.Equal(t, []any{Position{5, 5}}, ecs.componentsOf(other))
}

func TestEcs_InvalidComponentPanics(t *testing.T) {
	ecs := MakeEcs()
	assert.Panics(t, func() { ecs.addEntity(123) })
	assert.Panics(t, func() { ecs.addEntity(nil) })
}

func TestEcs_ComponentRegistration(t *testing.T) {
	type Position struct{ x, y float64 }
	type Rotation struct{ angle float64 }

	ecs := MakeEcs()
	id1 := ecs.getComponentId(reflect.TypeFor[Position]())
	id2 := ecs.getComponentId(reflect.TypeFor[Rotation]())

	assert.Equal(t, id1, ecs.getComponentId(reflect.TypeFor[Position]()))
	assert.NotEqual(t, id1, id2)
	assert.Equal(t, reflect.TypeFor[Position](), ecs.components.typeOf(id1))
	assert.Panics(t, func() { ecs.components.typeOf(42) })
}

func TestArchetypeKey(t *testing.T) {
	key := makeArchetypeKey(3, 1, 2, 1, 3)
	assert.Equal(t, archetypeKey{1, 2, 3}, key)

	assert.Equal(t, archetypeKey{1, 2, 3, 4}, key.union(archetypeKey{4, 3, 2, 1}))
	assert.Equal(t, archetypeKey{1, 3}, key.without(set[componentId]{2: {}}))
	assert.Equal(t, archetypeKey{1, 2, 3}, key, "operations don't alias the receiver")

	assert.Equal(t, "1,2,3", key.signature())
	assert.NotEqual(t, archetypeKey{1, 23}.signature(), archetypeKey{12, 3}.signature())
}

func TestEcs_RemoveEntityRecyclesRows(t *testing.T) {
	type Position struct{ X, Y float64 }

	ecs := MakeEcs()
	first := ecs.addEntity(Position{1, 2})
	arch := ecs.entityIndex[first]
	r := arch.entities[first]

	ecs.removeEntity(first)
	assert.False(t, ecs.hasEntity(first))
	assert.Nil(t, ecs.componentsOf(first))
	assert.Equal(t, []row{r}, arch.recycled)

	second := ecs.addEntity(Position{3, 4})
	assert.NotEqual(t, first, second, "entity ids are not reused")
	assert.Equal(t, r, arch.entities[second])
	assert.Empty(t, arch.recycled)
	assert.Equal(t, 1, arch.rows)

	assert.NotPanics(t, func() { ecs.recycleEntity(first) }, "unknown entities are ignored")
}

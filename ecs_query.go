package pbrtracer

// Queries visit every entity holding all of their component types. A type
// listed in optionals matches entities without it too, which then get a nil
// pointer for it. Map stops as soon as the callback returns false. The
// visiting order is unspecified.
type Query1[A any] struct{ ecs *Ecs }
type Query2[A, B any] struct{ ecs *Ecs }
type Query3[A, B, C any] struct{ ecs *Ecs }
type Query4[A, B, C, D any] struct{ ecs *Ecs }
type Query5[A, B, C, D, E any] struct{ ecs *Ecs }

func MakeQuery1[A any](cmd *Commands) Query1[A]             { return Query1[A]{ecs: cmd.app.ecs} }
func MakeQuery2[A, B any](cmd *Commands) Query2[A, B]       { return Query2[A, B]{ecs: cmd.app.ecs} }
func MakeQuery3[A, B, C any](cmd *Commands) Query3[A, B, C] { return Query3[A, B, C]{ecs: cmd.app.ecs} }
func MakeQuery4[A, B, C, D any](cmd *Commands) Query4[A, B, C, D] {
	return Query4[A, B, C, D]{ecs: cmd.app.ecs}
}
func MakeQuery5[A, B, C, D, E any](cmd *Commands) Query5[A, B, C, D, E] {
	return Query5[A, B, C, D, E]{ecs: cmd.app.ecs}
}

// column is the storage of one queried component inside an archetype. A nil
// data slice stands for an optional component the archetype lacks.
type column[T any] struct {
	data []T
}

func (c column[T]) at(r row) *T {
	if c.data == nil {
		return nil
	}
	return &c.data[r]
}

// columnOf reports false when the archetype lacks a required component.
func columnOf[T any](arch *archetype, id componentId, optional set[componentId]) (column[T], bool) {
	if data, ok := arch.componentData[id]; ok {
		return column[T]{data: data.([]T)}, true
	}
	_, isOptional := optional[id]
	return column[T]{}, isOptional
}

func queryIds(ecs *Ecs, optionals []any) set[componentId] {
	res := make(set[componentId], len(optionals))
	for _, c := range optionals {
		res[ecs.components.id(componentType(c))] = struct{}{}
	}
	return res
}

func queryId[T any](ecs *Ecs) componentId {
	return ecs.components.id(typeOf[T]())
}

func (q Query1[A]) Map(m func(EntityId, *A) bool, optionals ...any) {
	opt := queryIds(q.ecs, optionals)
	idA := queryId[A](q.ecs)

	for _, arch := range q.ecs.archetypes {
		a, ok := columnOf[A](arch, idA, opt)
		if !ok {
			continue
		}
		for eid, r := range arch.entities {
			if !m(eid, a.at(r)) {
				return
			}
		}
	}
}

func (q Query2[A, B]) Map(m func(EntityId, *A, *B) bool, optionals ...any) {
	opt := queryIds(q.ecs, optionals)
	idA, idB := queryId[A](q.ecs), queryId[B](q.ecs)

	for _, arch := range q.ecs.archetypes {
		a, okA := columnOf[A](arch, idA, opt)
		b, okB := columnOf[B](arch, idB, opt)
		if !okA || !okB {
			continue
		}
		for eid, r := range arch.entities {
			if !m(eid, a.at(r), b.at(r)) {
				return
			}
		}
	}
}

func (q Query3[A, B, C]) Map(m func(EntityId, *A, *B, *C) bool, optionals ...any) {
	opt := queryIds(q.ecs, optionals)
	idA, idB, idC := queryId[A](q.ecs), queryId[B](q.ecs), queryId[C](q.ecs)

	for _, arch := range q.ecs.archetypes {
		a, okA := columnOf[A](arch, idA, opt)
		b, okB := columnOf[B](arch, idB, opt)
		c, okC := columnOf[C](arch, idC, opt)
		if !okA || !okB || !okC {
			continue
		}
		for eid, r := range arch.entities {
			if !m(eid, a.at(r), b.at(r), c.at(r)) {
				return
			}
		}
	}
}

func (q Query4[A, B, C, D]) Map(m func(EntityId, *A, *B, *C, *D) bool, optionals ...any) {
	opt := queryIds(q.ecs, optionals)
	idA, idB, idC, idD := queryId[A](q.ecs), queryId[B](q.ecs), queryId[C](q.ecs), queryId[D](q.ecs)

	for _, arch := range q.ecs.archetypes {
		a, okA := columnOf[A](arch, idA, opt)
		b, okB := columnOf[B](arch, idB, opt)
		c, okC := columnOf[C](arch, idC, opt)
		d, okD := columnOf[D](arch, idD, opt)
		if !okA || !okB || !okC || !okD {
			continue
		}
		for eid, r := range arch.entities {
			if !m(eid, a.at(r), b.at(r), c.at(r), d.at(r)) {
				return
			}
		}
	}
}

func (q Query5[A, B, C, D, E]) Map(m func(EntityId, *A, *B, *C, *D, *E) bool, optionals ...any) {
	opt := queryIds(q.ecs, optionals)
	idA, idB, idC, idD, idE := queryId[A](q.ecs), queryId[B](q.ecs), queryId[C](q.ecs), queryId[D](q.ecs), queryId[E](q.ecs)

	for _, arch := range q.ecs.archetypes {
		a, okA := columnOf[A](arch, idA, opt)
		b, okB := columnOf[B](arch, idB, opt)
		c, okC := columnOf[C](arch, idC, opt)
		d, okD := columnOf[D](arch, idD, opt)
		e, okE := columnOf[E](arch, idE, opt)
		if !okA || !okB || !okC || !okD || !okE {
			continue
		}
		for eid, r := range arch.entities {
			if !m(eid, a.at(r), b.at(r), c.at(r), d.at(r), e.at(r)) {
				return
			}
		}
	}
}

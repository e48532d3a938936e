package pbrtracer

import (
	"github.com/go-gl/mathgl/mgl64"
)

type inputItem[K comparable] struct {
	key   K
	state ElementState
}

// InputBatch is a materialized batch of button events. It is built by
// consuming a reader once, then queried as often as needed.
type InputBatch[K comparable] struct {
	items []inputItem[K]
}

// ReadKeyboard consumes the unread keyboard events of r.
func ReadKeyboard(r *EventReader[KeyboardInputEvent], ev *Events[KeyboardInputEvent]) InputBatch[Key] {
	var batch InputBatch[Key]
	for _, e := range r.Read(ev) {
		batch.items = append(batch.items, inputItem[Key]{key: e.Key, state: e.State})
	}
	return batch
}

// ReadMouseButtons consumes the unread mouse button events of r.
func ReadMouseButtons(r *EventReader[MouseInputEvent], ev *Events[MouseInputEvent]) InputBatch[MouseButton] {
	var batch InputBatch[MouseButton]
	for _, e := range r.Read(ev) {
		batch.items = append(batch.items, inputItem[MouseButton]{key: e.Button, state: e.State})
	}
	return batch
}

func (b InputBatch[K]) Len() int {
	return len(b.items)
}

func (b InputBatch[K]) HasPressed(key K) bool {
	for _, it := range b.items {
		if it.key == key && it.state.IsPressed() {
			return true
		}
	}
	return false
}

func (b InputBatch[K]) HasReleased(key K) bool {
	for _, it := range b.items {
		if it.key == key && !it.state.IsPressed() {
			return true
		}
	}
	return false
}

func (b InputBatch[K]) HasInteracted(key K) bool {
	for _, it := range b.items {
		if it.key == key {
			return true
		}
	}
	return false
}

// States returns every state seen for key, in order.
func (b InputBatch[K]) States(key K) []ElementState {
	var res []ElementState
	for _, it := range b.items {
		if it.key == key {
			res = append(res, it.state)
		}
	}
	return res
}

func (b InputBatch[K]) LatestState(key K) (ElementState, bool) {
	for i := len(b.items) - 1; i >= 0; i-- {
		if b.items[i].key == key {
			return b.items[i].state, true
		}
	}
	return Released, false
}

// PressedKeys lists the keys of press events in order, with repetitions.
func (b InputBatch[K]) PressedKeys() []K {
	return b.keys(func(s ElementState) bool { return s == Pressed })
}

func (b InputBatch[K]) ReleasedKeys() []K {
	return b.keys(func(s ElementState) bool { return s == Released })
}

func (b InputBatch[K]) InteractedKeys() []K {
	return b.keys(func(ElementState) bool { return true })
}

func (b InputBatch[K]) keys(match func(ElementState) bool) []K {
	var res []K
	for _, it := range b.items {
		if match(it.state) {
			res = append(res, it.key)
		}
	}
	return res
}

// LatestResize consumes the unread resize events of r and returns the last size.
func LatestResize(r *EventReader[WindowResizedEvent], ev *Events[WindowResizedEvent]) (ScreenSize, bool) {
	events := r.Read(ev)
	if len(events) == 0 {
		return ScreenSize{}, false
	}
	return events[len(events)-1].Size, true
}

// MotionDeltaSum consumes the unread motion events of r and sums their deltas.
func MotionDeltaSum(r *EventReader[MouseMotionEvent], ev *Events[MouseMotionEvent]) mgl64.Vec2 {
	var sum mgl64.Vec2
	for _, e := range r.Read(ev) {
		sum = sum.Add(e.Delta)
	}
	return sum
}

package pbrtracer

import (
	"github.com/go-gl/glfw/v3.3/glfw"
)

type Key int

const (
	KeyUnknown Key = iota
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ
	Key0
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeySpace
	KeyEnter
	KeyEscape
	KeyTab
	KeyBackspace
	KeyInsert
	KeyDelete
	KeyRight
	KeyLeft
	KeyDown
	KeyUp
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
	KeyMinus
	KeyEqual
	KeyKPPlus
	KeyKPMinus
	KeyShift
	KeyControl
	KeyLeftAlt
)

type MouseButton int

const (
	MouseButtonLeft MouseButton = iota
	MouseButtonRight
	MouseButtonMiddle
	MouseButtonOther
)

type ElementState int

const (
	Released ElementState = iota
	Pressed
)

func (s ElementState) IsPressed() bool {
	return s == Pressed
}

func (s ElementState) String() string {
	if s == Pressed {
		return "Pressed"
	}
	return "Released"
}

type Modifiers int

const (
	ModShift Modifiers = 1 << iota
	ModControl
	ModAlt
	ModSuper
)

var keyToGlfw = map[Key]glfw.Key{
	KeyA:         glfw.KeyA,
	KeyB:         glfw.KeyB,
	KeyC:         glfw.KeyC,
	KeyD:         glfw.KeyD,
	KeyE:         glfw.KeyE,
	KeyF:         glfw.KeyF,
	KeyG:         glfw.KeyG,
	KeyH:         glfw.KeyH,
	KeyI:         glfw.KeyI,
	KeyJ:         glfw.KeyJ,
	KeyK:         glfw.KeyK,
	KeyL:         glfw.KeyL,
	KeyM:         glfw.KeyM,
	KeyN:         glfw.KeyN,
	KeyO:         glfw.KeyO,
	KeyP:         glfw.KeyP,
	KeyQ:         glfw.KeyQ,
	KeyR:         glfw.KeyR,
	KeyS:         glfw.KeyS,
	KeyT:         glfw.KeyT,
	KeyU:         glfw.KeyU,
	KeyV:         glfw.KeyV,
	KeyW:         glfw.KeyW,
	KeyX:         glfw.KeyX,
	KeyY:         glfw.KeyY,
	KeyZ:         glfw.KeyZ,
	Key0:         glfw.Key0,
	Key1:         glfw.Key1,
	Key2:         glfw.Key2,
	Key3:         glfw.Key3,
	Key4:         glfw.Key4,
	Key5:         glfw.Key5,
	Key6:         glfw.Key6,
	Key7:         glfw.Key7,
	Key8:         glfw.Key8,
	Key9:         glfw.Key9,
	KeySpace:     glfw.KeySpace,
	KeyEnter:     glfw.KeyEnter,
	KeyEscape:    glfw.KeyEscape,
	KeyTab:       glfw.KeyTab,
	KeyBackspace: glfw.KeyBackspace,
	KeyInsert:    glfw.KeyInsert,
	KeyDelete:    glfw.KeyDelete,
	KeyRight:     glfw.KeyRight,
	KeyLeft:      glfw.KeyLeft,
	KeyDown:      glfw.KeyDown,
	KeyUp:        glfw.KeyUp,
	KeyF1:        glfw.KeyF1,
	KeyF2:        glfw.KeyF2,
	KeyF3:        glfw.KeyF3,
	KeyF4:        glfw.KeyF4,
	KeyF5:        glfw.KeyF5,
	KeyF6:        glfw.KeyF6,
	KeyF7:        glfw.KeyF7,
	KeyF8:        glfw.KeyF8,
	KeyF9:        glfw.KeyF9,
	KeyF10:       glfw.KeyF10,
	KeyF11:       glfw.KeyF11,
	KeyF12:       glfw.KeyF12,
	KeyMinus:     glfw.KeyMinus,
	KeyEqual:     glfw.KeyEqual,
	KeyKPPlus:    glfw.KeyKPAdd,
	KeyKPMinus:   glfw.KeyKPSubtract,
	KeyShift:     glfw.KeyLeftShift,
	KeyControl:   glfw.KeyLeftControl,
	KeyLeftAlt:   glfw.KeyLeftAlt,
}

var glfwToKey = func() map[glfw.Key]Key {
	m := make(map[glfw.Key]Key, len(keyToGlfw)+2)
	for key, glfwKey := range keyToGlfw {
		m[glfwKey] = key
	}
	m[glfw.KeyRightShift] = KeyShift
	m[glfw.KeyRightControl] = KeyControl
	return m
}()

func keyFromGlfw(k glfw.Key) Key {
	if key, ok := glfwToKey[k]; ok {
		return key
	}
	return KeyUnknown
}

func mouseButtonFromGlfw(b glfw.MouseButton) MouseButton {
	switch b {
	case glfw.MouseButtonLeft:
		return MouseButtonLeft
	case glfw.MouseButtonRight:
		return MouseButtonRight
	case glfw.MouseButtonMiddle:
		return MouseButtonMiddle
	}
	return MouseButtonOther
}

func modifiersFromGlfw(m glfw.ModifierKey) Modifiers {
	var mods Modifiers
	if m&glfw.ModShift != 0 {
		mods |= ModShift
	}
	if m&glfw.ModControl != 0 {
		mods |= ModControl
	}
	if m&glfw.ModAlt != 0 {
		mods |= ModAlt
	}
	if m&glfw.ModSuper != 0 {
		mods |= ModSuper
	}
	return mods
}

// Input is the held state of keys and buttons, rebuilt from input events at
// every iteration.
type Input struct {
	Pressed       map[Key]bool
	ButtonPressed map[MouseButton]bool

	JustPressed  map[Key]bool
	JustReleased map[Key]bool

	// MouseCaptured mirrors the cursor attachment of the window.
	MouseCaptured bool
}

func NewInput() *Input {
	return &Input{
		Pressed:       make(map[Key]bool),
		ButtonPressed: make(map[MouseButton]bool),
		JustPressed:   make(map[Key]bool),
		JustReleased:  make(map[Key]bool),
	}
}

type InputModule struct{}

func (mod InputModule) Install(app *App, cmd *Commands) {
	keys := AddEvent[KeyboardInputEvent](app)
	buttons := AddEvent[MouseInputEvent](app)
	cmd.AddResources(NewInput())

	keyReader := &EventReader[KeyboardInputEvent]{}
	buttonReader := &EventReader[MouseInputEvent]{}
	app.UseSystem(
		System(func(input *Input) {
			input.apply(ReadKeyboard(keyReader, keys), ReadMouseButtons(buttonReader, buttons))
		}).
			InStage(IterStep).
			RunAlways(),
	)
}

func (input *Input) apply(keys InputBatch[Key], buttons InputBatch[MouseButton]) {
	clear(input.JustPressed)
	clear(input.JustReleased)

	for _, key := range keys.InteractedKeys() {
		state, _ := keys.LatestState(key)
		if state.IsPressed() && !input.Pressed[key] {
			input.JustPressed[key] = true
		}
		if !state.IsPressed() && input.Pressed[key] {
			input.JustReleased[key] = true
		}
		input.Pressed[key] = state.IsPressed()
	}
	for _, button := range buttons.InteractedKeys() {
		state, _ := buttons.LatestState(button)
		input.ButtonPressed[button] = state.IsPressed()
	}
}

package pbrtracer

import (
	"runtime"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl64"
)

// Window is the single OS window of the app. Its framebuffer size is kept in
// sync with WindowResizedEvent.
type Window struct {
	handle *glfw.Window
	Title  string
	Width  int
	Height int

	// CursorAttached hides and locks the cursor so that mouse motion steers
	// the camera. Escape toggles it.
	CursorAttached bool

	lastCursor    mgl64.Vec2
	hasLastCursor bool
}

func (w *Window) Handle() *glfw.Window {
	return w.handle
}

func (w *Window) Size() ScreenSize {
	return ScreenSize{W: uint32(w.Width), H: uint32(w.Height)}
}

func (w *Window) attachCursor() {
	if w.handle == nil {
		return
	}
	w.handle.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	if glfw.RawMouseMotionSupported() {
		w.handle.SetInputMode(glfw.RawMouseMotion, glfw.True)
	}
}

// detachCursor shows the cursor again. With reset it reappears in the middle
// of the window.
func (w *Window) detachCursor(reset bool) {
	if w.handle == nil {
		return
	}
	w.handle.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	if reset {
		width, height := w.handle.GetSize()
		w.handle.SetCursorPos(float64(width)/2, float64(height)/2)
	}
	// The next position report is relative to the reset cursor.
	w.hasLastCursor = false
}

func (w *Window) cursorMoved(pos mgl64.Vec2) (mgl64.Vec2, bool) {
	if !w.hasLastCursor {
		w.lastCursor = pos
		w.hasLastCursor = true
		return mgl64.Vec2{}, false
	}
	delta := pos.Sub(w.lastCursor)
	w.lastCursor = pos
	return delta, true
}

type WindowModule struct {
	Title  string
	Width  int
	Height int
}

func (m WindowModule) withDefaults() WindowModule {
	if m.Width <= 0 {
		m.Width = 1600
	}
	if m.Height <= 0 {
		m.Height = 900
	}
	if m.Title == "" {
		m.Title = "pbrtracer"
	}
	return m
}

// Install creates the window and drives the app from the OS event loop.
// It is a no-op when a Window resource exists already.
func (m WindowModule) Install(app *App, cmd *Commands) {
	if _, ok := Resource[Window](app); ok {
		return
	}
	m = m.withDefaults()

	win := createWindow(m.Width, m.Height, m.Title)
	app.addResources(win)
	installWindowEvents(app, win)

	app.Logger().Infof("Created window %q (%dx%d)", win.Title, win.Width, win.Height)
	app.SetRunner(win.run)
}

func createWindow(width, height int, title string) *Window {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		panic(err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	handle, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		panic(err)
	}

	if monitor := glfw.GetPrimaryMonitor(); monitor != nil {
		if mode := monitor.GetVideoMode(); mode != nil {
			mx, my := monitor.GetPos()
			handle.SetPos(mx+max(mode.Width-width, 0)/2, my+max(mode.Height-height, 0)/2)
		}
	}

	fbWidth, fbHeight := handle.GetFramebufferSize()
	win := &Window{
		handle:         handle,
		Title:          title,
		Width:          fbWidth,
		Height:         fbHeight,
		CursorAttached: true,
	}
	win.attachCursor()
	return win
}

// installWindowEvents registers the window's event types and the cursor
// toggle. Callbacks are only wired when there is a real window.
func installWindowEvents(app *App, win *Window) {
	keys := AddEvent[KeyboardInputEvent](app)
	buttons := AddEvent[MouseInputEvent](app)
	motion := AddEvent[MouseMotionEvent](app)
	wheel := AddEvent[MouseWheelEvent](app)
	resized := AddEvent[WindowResizedEvent](app)
	windowEvents := AddEvent[WindowEvent](app)

	keyReader := &EventReader[KeyboardInputEvent]{}
	windowReader := &EventReader[WindowEvent]{}
	app.UseSystem(
		System(func(w *Window) {
			toggleCursorAttached(w, ReadKeyboard(keyReader, keys), windowReader.Read(windowEvents))
		}).
			InStage(Update).
			RunAlways(),
	)

	if win.handle == nil {
		return
	}
	h := win.handle

	h.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action == glfw.Repeat {
			return
		}
		state := Released
		if action == glfw.Press {
			state = Pressed
		}
		keys.Send(KeyboardInputEvent{Key: keyFromGlfw(key), Scancode: scancode, State: state, Mods: modifiersFromGlfw(mods)})
	})
	h.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		state := Released
		if action == glfw.Press {
			state = Pressed
		}
		buttons.Send(MouseInputEvent{Button: mouseButtonFromGlfw(button), State: state})
		windowEvents.Send(WindowEvent{Kind: WindowMouseInput})
	})
	h.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		if delta, ok := win.cursorMoved(mgl64.Vec2{x, y}); ok {
			motion.Send(MouseMotionEvent{Delta: delta})
		}
	})
	h.SetScrollCallback(func(_ *glfw.Window, x, y float64) {
		wheel.Send(MouseWheelEvent{Delta: mgl64.Vec2{x, y}})
	})
	h.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		if width <= 0 || height <= 0 {
			return
		}
		win.Width, win.Height = width, height
		resized.Send(WindowResizedEvent{Size: win.Size()})
	})
	h.SetFocusCallback(func(_ *glfw.Window, focused bool) {
		kind := WindowUnfocused
		if focused {
			kind = WindowFocused
		}
		windowEvents.Send(WindowEvent{Kind: kind})
	})
	h.SetCursorEnterCallback(func(_ *glfw.Window, entered bool) {
		kind := WindowCursorLeft
		if entered {
			kind = WindowCursorEntered
		}
		windowEvents.Send(WindowEvent{Kind: kind})
	})
	h.SetCloseCallback(func(_ *glfw.Window) {
		windowEvents.Send(WindowEvent{Kind: WindowCloseRequested})
		app.Exit()
	})
}

// toggleCursorAttached flips the attachment on Escape and re-applies it
// whenever focus or cursor presence changed, since the OS may have released
// the grab meanwhile.
func toggleCursorAttached(w *Window, keys InputBatch[Key], windowEvents []WindowEvent) {
	needsUpdate := false
	needsReset := false

	if keys.HasPressed(KeyEscape) {
		w.CursorAttached = !w.CursorAttached
		needsUpdate = true
		needsReset = true
	}

	for _, e := range windowEvents {
		switch e.Kind {
		case WindowFocused, WindowUnfocused, WindowCursorEntered, WindowCursorLeft, WindowMouseInput:
			needsUpdate = true
		}
	}

	if !needsUpdate {
		return
	}
	if w.CursorAttached {
		w.attachCursor()
	} else {
		w.detachCursor(needsReset)
	}
}

// run polls OS events and iterates the app until the window is closed or an
// exit is requested.
func (w *Window) run(app *App) {
	defer glfw.Terminate()
	defer w.handle.Destroy()

	for !w.handle.ShouldClose() && !app.ExitRequested() {
		glfw.PollEvents()
		app.Iterate(time.Now())
	}
}

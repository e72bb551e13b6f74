package system

// Logger is the subset of the app logger used by this package.
type Logger interface {
	Infof(component, format string, args ...any)
	Errorf(component, format string, args ...any)
}

// Console takes over the active virtual terminal for full-screen drawing
// and gives it back afterwards. Failures are logged, never fatal: the
// framebuffer still works with a text console underneath.
type Console struct {
	Logger Logger

	graphics bool
	hidden   bool
}

// Acquire hides the cursor and switches the VT to graphics mode.
func (c *Console) Acquire() {
	c.hidden = c.run(HideCursor, "cursor hidden", "hide cursor failed")
	c.graphics = c.run(SetGraphicsMode, "KD_GRAPHICS set", "KD_GRAPHICS failed")
}

// Release undoes whatever Acquire managed to change.
func (c *Console) Release() {
	if c.graphics {
		c.run(RestoreTextMode, "KD_TEXT set", "KD_TEXT failed")
		c.graphics = false
	}
	if c.hidden {
		c.run(ShowCursor, "cursor shown", "show cursor failed")
		c.hidden = false
	}
}

func (c *Console) run(fn func() error, okMsg, failMsg string) bool {
	if err := fn(); err != nil {
		if c.Logger != nil {
			c.Logger.Errorf("tty", "%s: %v", failMsg, err)
		}
		return false
	}
	if c.Logger != nil {
		c.Logger.Infof("tty", "%s", okMsg)
	}
	return true
}

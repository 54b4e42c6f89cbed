package selection

import "time"

// DefaultDoubleClickWindow matches common desktop double-click timing.
const DefaultDoubleClickWindow = 400 * time.Millisecond

// ClickCounter numbers consecutive clicks on the same target, the way a
// browser reports click detail. A second click inside the window returns 2.
type ClickCounter struct {
	Window time.Duration

	lastID string
	lastAt time.Time
	count  int
}

// Register records a click on id at time at and returns its click number.
func (c *ClickCounter) Register(id string, at time.Time) int {
	window := c.Window
	if window <= 0 {
		window = DefaultDoubleClickWindow
	}
	if id != "" && id == c.lastID && !c.lastAt.IsZero() && at.Sub(c.lastAt) <= window {
		c.count++
	} else {
		c.count = 1
	}
	c.lastID = id
	c.lastAt = at
	return c.count
}

func (c *ClickCounter) Reset() {
	c.lastID = ""
	c.lastAt = time.Time{}
	c.count = 0
}

package idle

// Countdown is the drop-check timer, in whole seconds.
// A disabled countdown never reports expiry, so re-arming it cannot fire a stale check.
type Countdown struct {
	left    int
	enabled bool
}

// Arm enables the countdown with the given number of seconds, clamped to [0, MaxCountdownSeconds].
func (c *Countdown) Arm(seconds int) {
	if seconds < 0 {
		seconds = 0
	}
	if seconds > MaxCountdownSeconds {
		seconds = MaxCountdownSeconds
	}
	c.left = seconds
	c.enabled = seconds > 0
}

// Disable stops the countdown and drops any pending expiry.
func (c *Countdown) Disable() {
	c.enabled = false
	c.left = 0
}

// Enabled reports whether the countdown is running.
func (c *Countdown) Enabled() bool { return c.enabled }

// Remaining returns the seconds left.
func (c *Countdown) Remaining() int { return c.left }

// Tick advances the countdown by one second and reports whether it just expired.
// Expiry disables the countdown until it is armed again.
func (c *Countdown) Tick() bool {
	if !c.enabled {
		return false
	}
	if c.left > 0 {
		c.left--
	}
	if c.left == 0 {
		c.enabled = false
		return true
	}
	return false
}

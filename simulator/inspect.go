package simulator

import "time"

// Trace returns the recorded frames, oldest first.
func (t *Target) Trace() []Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	records := make([]Record, t.trace.Len())
	for i := range records {
		records[i] = t.trace.At(i)
	}
	return records
}

// ClearTrace drops the recorded frames and poll times.
func (t *Target) ClearTrace() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.trace.Clear()
	t.pollTimes = nil
}

// PollTimes returns the virtual times at which RDY/BSY polls completed.
func (t *Target) PollTimes() []time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]time.Duration(nil), t.pollTimes...)
}

// Now returns the virtual time.
func (t *Target) Now() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.now
}

// ResetPulses counts the transitions of RESET into its active (low) level.
func (t *Target) ResetPulses() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.resetPulses
}

// EnableAttempts counts the Programming Enable frames received.
func (t *Target) EnableAttempts() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.attempts
}

func (t *Target) Inits() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inits
}

// InReset reports whether RESET is held low.
func (t *Target) InReset() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.reset
}

func (t *Target) Engaged() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.engaged
}

// BusyViolations counts instructions other than polls received while the
// target was busy.
func (t *Target) BusyViolations() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.violations
}

// Flash returns a copy of the flash contents.
func (t *Target) Flash() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]byte(nil), t.flash...)
}

// LoadFlash copies data into flash at address, as if written earlier.
func (t *Target) LoadFlash(address int, data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	copy(t.flash[address:], data)
}

// Fuses returns low, high and extended fuse.
func (t *Target) Fuses() (low, high, extended byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fuses[fuseLow], t.fuses[fuseHigh], t.fuses[fuseExtended]
}

// LockBits returns the lock byte.
func (t *Target) LockBits() byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lock
}

// Extended returns the extended address byte the target holds.
func (t *Target) Extended() byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.extended
}

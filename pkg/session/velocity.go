package session

import (
	"sync"
	"time"
)

// Velocity reasons.
const (
	ReasonSustained = "sustained_high_velocity"
	ReasonBurst     = "burst_pattern"
)

// VelocityCheck is the result of a rate inspection for one session.
type VelocityCheck struct {
	Violation bool   `json:"violation"`
	Reason    string `json:"reason,omitempty"`
	Count     int    `json:"count"`
	Threshold int    `json:"threshold,omitempty"`
}

// VelocityMonitor tracks message arrival instants per session and flags
// abnormal rates. Auxiliary state only: it is rebuildable from traffic and
// purged together with its session.
type VelocityMonitor struct {
	mu       sync.Mutex
	arrivals map[string][]time.Time

	window         time.Duration // sustained-rate window
	threshold      int           // max messages in window
	burstWindow    time.Duration
	burstThreshold int
}

// NewVelocityMonitor creates a monitor with the given thresholds.
func NewVelocityMonitor(window time.Duration, threshold int, burstWindow time.Duration, burstThreshold int) *VelocityMonitor {
	return &VelocityMonitor{
		arrivals:       make(map[string][]time.Time),
		window:         window,
		threshold:      threshold,
		burstWindow:    burstWindow,
		burstThreshold: burstThreshold,
	}
}

// NewDefaultVelocityMonitor uses the canonical thresholds: more than 10
// messages in 5 minutes, or more than 5 in 30 seconds.
func NewDefaultVelocityMonitor() *VelocityMonitor {
	return NewVelocityMonitor(5*time.Minute, 10, 30*time.Second, 5)
}

// Record appends an arrival instant and prunes entries older than the
// sustained window.
func (v *VelocityMonitor) Record(sessionID string, now time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()

	cutoff := now.Add(-v.window)
	kept := v.arrivals[sessionID][:0]
	for _, ts := range v.arrivals[sessionID] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	v.arrivals[sessionID] = append(kept, now)
}

// Check inspects the recorded arrivals for rate violations. The sustained
// check runs first; the burst check only fires when sustained does not.
func (v *VelocityMonitor) Check(sessionID string, now time.Time) VelocityCheck {
	v.mu.Lock()
	defer v.mu.Unlock()

	timestamps := v.arrivals[sessionID]
	if len(timestamps) == 0 {
		return VelocityCheck{}
	}

	windowCutoff := now.Add(-v.window)
	windowCount := 0
	for _, ts := range timestamps {
		if ts.After(windowCutoff) {
			windowCount++
		}
	}
	if windowCount > v.threshold {
		return VelocityCheck{
			Violation: true,
			Reason:    ReasonSustained,
			Count:     windowCount,
			Threshold: v.threshold,
		}
	}

	burstCutoff := now.Add(-v.burstWindow)
	burstCount := 0
	for _, ts := range timestamps {
		if ts.After(burstCutoff) {
			burstCount++
		}
	}
	if burstCount > v.burstThreshold {
		return VelocityCheck{
			Violation: true,
			Reason:    ReasonBurst,
			Count:     burstCount,
			Threshold: v.burstThreshold,
		}
	}

	return VelocityCheck{Count: windowCount}
}

// Purge drops all recorded arrivals for a session. Called when the session
// itself is deleted.
func (v *VelocityMonitor) Purge(sessionID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.arrivals, sessionID)
}

package snapshot

// Trigger counts consecutive violating frames and decides when an evidence
// snapshot should be captured. One Trigger belongs to exactly one stream; it
// is not safe for concurrent use and does not need to be.
type Trigger struct {
	threshold   int
	consecutive int
}

func NewTrigger(threshold int) *Trigger {
	return &Trigger{threshold: threshold}
}

// OnFrame advances the counter with the frame's violation count and reports
// whether a capture should fire now. A zero-violation frame resets the
// counter; firing resets it as well, so a sustained streak captures once per
// threshold crossing. Whether the capture itself succeeds is the caller's
// concern.
func (t *Trigger) OnFrame(violationCount int) bool {
	if violationCount == 0 {
		t.consecutive = 0
		return false
	}

	t.consecutive++
	if t.consecutive >= t.threshold {
		t.consecutive = 0
		return true
	}

	return false
}

// Consecutive returns the current streak length.
func (t *Trigger) Consecutive() int {
	return t.consecutive
}

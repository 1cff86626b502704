package offsets

import "fmt"

// DiscoveryError reports an anchor whose search space was exhausted.
type DiscoveryError struct {
	Anchor          string
	CandidatesTried int
	Reason          string
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovery failed for %s after %d candidates: %s",
		e.Anchor, e.CandidatesTried, e.Reason)
}

func discoveryFailed(anchor string, tried int, reason string) error {
	return &DiscoveryError{Anchor: anchor, CandidatesTried: tried, Reason: reason}
}

package topic

// Status is the result of a proposal.
type Status string

const (
	StatusSelected          Status = "selected"
	StatusNoFreshCandidates Status = "no_fresh_candidates"
	StatusNoCandidates      Status = "no_candidates"
)

// Outcome describes one discovery decision.
type Outcome struct {
	Status    Status     `json:"status"`
	Threshold float64    `json:"threshold"`
	Selected  *Candidate `json:"selected,omitempty"`

	// Verdicts holds every candidate's classification, in input order.
	Verdicts []Verdict `json:"verdicts"`

	// Fresh holds the surviving candidates ranked by score.
	Fresh []Candidate `json:"fresh"`
}

// Err is nil when a topic was selected and otherwise the matching
// ErrNoTopicAvailable child.
func (o *Outcome) Err() error {
	switch o.Status {
	case StatusSelected:
		return nil
	case StatusNoCandidates:
		return ErrEmptyCandidateInput
	default:
		return ErrNoFreshCandidates
	}
}

func decide(verdicts []Verdict, threshold float64) *Outcome {
	out := &Outcome{
		Threshold: threshold,
		Verdicts:  verdicts,
		Fresh:     Rank(FreshCandidates(verdicts)),
	}

	switch {
	case len(verdicts) == 0:
		out.Status = StatusNoCandidates
	case len(out.Fresh) == 0:
		out.Status = StatusNoFreshCandidates
	default:
		out.Status = StatusSelected
		selected := out.Fresh[0]
		out.Selected = &selected
	}

	return out
}

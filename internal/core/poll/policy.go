package poll

import (
	"time"

	perr "metaview/internal/platform/errors"
)

// Policy is the timing contract for one kind of remote work
// Timeout is measured from the moment Run starts; zero disables it.
// MaxAttempts counts status fetches; zero disables it.
// At least one of the two must be set
type Policy struct {
	Name         string
	InitialDelay time.Duration
	Interval     time.Duration
	Timeout      time.Duration
	MaxAttempts  int
}

// PreviewGenerationPolicy polls an image-generation job: quick cadence, wall-clock ceiling
var PreviewGenerationPolicy = Policy{
	Name:     "preview_generation",
	Interval: 1500 * time.Millisecond,
	Timeout:  2 * time.Minute,
}

// DomainVerificationPolicy polls DNS/HTML evidence: slow cadence, attempt ceiling, short warm-up
var DomainVerificationPolicy = Policy{
	Name:         "domain_verification",
	InitialDelay: time.Second,
	Interval:     15 * time.Second,
	MaxAttempts:  24,
}

// Validate rejects policies that would spin or never stop
func (p Policy) Validate() error {
	if p.Interval <= 0 {
		return perr.InvalidArgf("poll policy %q: interval must be positive", p.Name)
	}
	if p.InitialDelay < 0 || p.Timeout < 0 || p.MaxAttempts < 0 {
		return perr.InvalidArgf("poll policy %q: negative limits", p.Name)
	}
	if p.Timeout == 0 && p.MaxAttempts == 0 {
		return perr.InvalidArgf("poll policy %q: needs a timeout or an attempt cap", p.Name)
	}
	return nil
}

// AttemptBudget is the nominal number of fetches the policy allows, assuming instant fetches
func (p Policy) AttemptBudget() int {
	budget, capped := 0, false
	if p.Timeout > 0 && p.Interval > 0 {
		span := p.Timeout - p.InitialDelay
		if span < 0 {
			span = 0
		}
		// ticks land at InitialDelay + k*Interval strictly before Timeout
		budget = int((span + p.Interval - 1) / p.Interval)
		capped = true
	}
	if p.MaxAttempts > 0 && (!capped || p.MaxAttempts < budget) {
		budget = p.MaxAttempts
	}
	return budget
}

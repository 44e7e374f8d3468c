package ports

import "github.com/aretw0/homeward/pkg/domain"

// AdvisorySink accepts operator advisories. It is fire-and-forget: the
// guidance loop never inspects the outcome.
type AdvisorySink interface {
	Advise(severity domain.Severity, message string)
}

// AdvisoryFunc adapts a function into an AdvisorySink.
type AdvisoryFunc func(severity domain.Severity, message string)

// Advise calls f(severity, message).
func (f AdvisoryFunc) Advise(severity domain.Severity, message string) {
	f(severity, message)
}

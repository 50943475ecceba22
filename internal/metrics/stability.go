package metrics

import "github.com/san-kum/couplersim/internal/train"

// SlackViolations counts coupler observations outside the dynamic limits,
// allowing tol metres of rounding. A healthy run reports zero.
type SlackViolations struct {
	name       string
	tol        float64
	violations int
}

func NewSlackViolations(tol float64) *SlackViolations {
	return &SlackViolations{
		name: "slack_violations",
		tol:  tol,
	}
}

func (s *SlackViolations) Name() string {
	return s.name
}

func (s *SlackViolations) Observe(tr *train.Train, t float64) {
	for _, c := range tr.Couplers {
		if c.Slack > c.TensionLimit+s.tol || c.Slack < c.CompressionLimit-s.tol {
			s.violations++
		}
	}
}

func (s *SlackViolations) Value() float64 {
	return float64(s.violations)
}

func (s *SlackViolations) Reset() {
	s.violations = 0
}

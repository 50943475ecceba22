package coupler

import (
	"fmt"
	"math"
)

// Zone is the region of the force/slack curve a coupler occupies.
type Zone int

const (
	DeadBand    Zone = iota // faces apart, no force
	Spring                  // zone 2, first linear spring
	StiffSpring             // zone 3, stiffer spring (advanced only)
	Stop                    // hard limit: rigid coupler or fully compressed draft gear
)

func (z Zone) String() string {
	switch z {
	case DeadBand:
		return "dead-band"
	case Spring:
		return "zone-2"
	case StiffSpring:
		return "zone-3"
	case Stop:
		return "rigid-limit"
	}
	return fmt.Sprintf("zone(%d)", int(z))
}

// Response describes the curve at one operating point. Lower and Upper
// bound the slack magnitudes of Zone on the evaluated side.
type Response struct {
	Zone      Zone
	Force     float64 // magnitude, N
	Stiffness float64 // N/m, +Inf at a hard stop
	Lower     float64
	Upper     float64
}

type model struct {
	evaluate func(p *Params, side Side, absSlack float64) Response
	target   func(p *Params, side Side, absForce float64) (float64, Response)
	rest     func(p *Params, side Side, margin float64) float64
}

var models = [...]model{
	Simple: {
		evaluate: func(p *Params, _ Side, x float64) Response {
			return evaluateSimple(p.Simple, x)
		},
		target: func(p *Params, _ Side, f float64) (float64, Response) {
			return targetSimple(p.Simple, f)
		},
		rest: func(p *Params, _ Side, margin float64) float64 {
			return math.Min(p.Simple.Slack1*(1+margin), p.Simple.Slack2)
		},
	},
	Advanced: {
		evaluate: func(p *Params, side Side, x float64) Response {
			return evaluateCurve(p.Advanced.curve(side), x)
		},
		target: func(p *Params, side Side, f float64) (float64, Response) {
			return targetCurve(p.Advanced.curve(side), f)
		},
		rest: func(p *Params, side Side, margin float64) float64 {
			c := p.Advanced.curve(side)
			return math.Min(c.Zone1*(1+margin), c.Zone2)
		},
	},
	Rigid: {
		evaluate: func(p *Params, side Side, x float64) Response {
			return evaluateRigid(p.Advanced.curve(side).Zone1, x)
		},
		target: func(p *Params, side Side, _ float64) (float64, Response) {
			z1 := p.Advanced.curve(side).Zone1
			return z1, Response{Zone: Stop, Stiffness: math.Inf(1), Lower: z1, Upper: z1}
		},
		rest: func(p *Params, side Side, _ float64) float64 {
			return p.Advanced.curve(side).Zone1
		},
	},
}

func lookup(kind Kind) model {
	if kind < 0 || int(kind) >= len(models) {
		panic(fmt.Sprintf("coupler: unknown kind %d", int(kind)))
	}
	return models[kind]
}

// Evaluate returns the zone and spring force for a slack magnitude on the
// given side.
func Evaluate(kind Kind, p *Params, side Side, absSlack float64) Response {
	return lookup(kind).evaluate(p, side, math.Abs(absSlack))
}

// TargetSlack inverts the curve: it returns the slack magnitude at which the
// coupler would carry absForce, together with the zone that slack lies in.
func TargetSlack(kind Kind, p *Params, side Side, absForce float64) (float64, Response) {
	return lookup(kind).target(p, side, math.Abs(absForce))
}

// RestLimit is the slack bound used while the coupler carries no force: just
// outside the dead-band so the faces can re-engage.
func RestLimit(kind Kind, p *Params, side Side, margin float64) float64 {
	return lookup(kind).rest(p, side, margin)
}

func evaluateSimple(s SimpleParams, x float64) Response {
	if x < s.Slack1 {
		return Response{Zone: DeadBand, Lower: 0, Upper: s.Slack1}
	}
	x = math.Min(x, s.Slack2)
	return Response{
		Zone:      Spring,
		Force:     s.Stiffness * (x - s.Slack1),
		Stiffness: s.Stiffness,
		Lower:     s.Slack1,
		Upper:     s.Slack2,
	}
}

func targetSimple(s SimpleParams, f float64) (float64, Response) {
	r := Response{Zone: Spring, Stiffness: s.Stiffness, Lower: s.Slack1, Upper: s.Slack2}
	x := math.Min(s.Slack1+f/s.Stiffness, s.Slack2)
	r.Force = s.Stiffness * (x - s.Slack1)
	return x, r
}

func evaluateCurve(c Curve, x float64) Response {
	f2 := c.Stiffness2 * (c.Zone2 - c.Zone1)
	switch {
	case x < c.Zone1:
		return Response{Zone: DeadBand, Lower: 0, Upper: c.Zone1}
	case x < c.Zone2:
		return Response{Zone: Spring, Force: c.Stiffness2 * (x - c.Zone1), Stiffness: c.Stiffness2, Lower: c.Zone1, Upper: c.Zone2}
	case x < c.Zone3:
		return Response{Zone: StiffSpring, Force: f2 + c.Stiffness3*(x-c.Zone2), Stiffness: c.Stiffness3, Lower: c.Zone2, Upper: c.Zone3}
	}
	return Response{Zone: Stop, Force: f2 + c.Stiffness3*(c.Zone3-c.Zone2), Stiffness: math.Inf(1), Lower: c.Zone3, Upper: c.Zone3}
}

func targetCurve(c Curve, f float64) (float64, Response) {
	f2 := c.Stiffness2 * (c.Zone2 - c.Zone1)
	f3 := f2 + c.Stiffness3*(c.Zone3-c.Zone2)
	switch {
	case f <= f2:
		return c.Zone1 + f/c.Stiffness2, Response{Zone: Spring, Force: f, Stiffness: c.Stiffness2, Lower: c.Zone1, Upper: c.Zone2}
	case f < f3:
		return c.Zone2 + (f-f2)/c.Stiffness3, Response{Zone: StiffSpring, Force: f, Stiffness: c.Stiffness3, Lower: c.Zone2, Upper: c.Zone3}
	}
	return c.Zone3, Response{Zone: Stop, Force: f3, Stiffness: math.Inf(1), Lower: c.Zone3, Upper: c.Zone3}
}

func evaluateRigid(z1, x float64) Response {
	if x < z1 {
		return Response{Zone: DeadBand, Lower: 0, Upper: z1}
	}
	return Response{Zone: Stop, Stiffness: math.Inf(1), Lower: z1, Upper: z1}
}

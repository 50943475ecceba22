package train_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/couplersim/internal/train"
)

var _ = Describe("Impulse pass", func() {
	var (
		s  *train.Solver
		tr *train.Train
	)

	BeforeEach(func() {
		s = mustSolver(train.DefaultPhysicsConfig())
		tr = mustTrain(vehicles(3, 1000, simpleParams(1e7)), train.Neutral)
	})

	momentum := func() float64 {
		p := 0.0
		for _, v := range tr.Vehicles {
			p += v.Mass * v.Velocity
		}
		return p
	}

	It("carries a jerk at the head through the whole taut chain", func() {
		tr.SetSlack(0, 1)
		tr.SetSlack(1, 1)
		tr.Vehicles[0].Velocity = 3
		before := momentum()

		s.ApplyCouplerImpulseForces(tr, dt)

		for i := range tr.Vehicles {
			Expect(tr.Vehicles[i].Velocity).To(BeNumerically("~", 1, 1e-9), "vehicle %d", i)
		}
		Expect(momentum()).To(BeNumerically("~", before, 1e-9))
		Expect(tr.Couplers[0].ImpulseForce).To(BeNumerically("<", tr.Couplers[1].ImpulseForce))
		Expect(tr.Couplers[1].ImpulseForce).To(BeNumerically("<", 0))

		s.UpdateCouplerSlack(tr, dt)
		expectWithinLimits(tr)
		Expect(tr.Couplers[1].Slack).To(Equal(tr.Couplers[1].TensionLimit))
	})

	It("equalises a single taut pair behind a slack coupler", func() {
		tr.SetSlack(0, 1)
		tr.Vehicles[0].Velocity = 3

		s.ApplyCouplerImpulseForces(tr, dt)

		Expect(tr.Vehicles[0].Velocity).To(BeNumerically("~", 1.5, 1e-9))
		Expect(tr.Vehicles[1].Velocity).To(BeNumerically("~", 1.5, 1e-9))
		Expect(tr.Vehicles[2].Velocity).To(Equal(0.0))
	})

	It("leaves dead-band couplers alone", func() {
		tr.Vehicles[0].Velocity = 2
		tr.Vehicles[2].Velocity = -1

		s.ApplyCouplerImpulseForces(tr, dt)

		Expect(tr.Vehicles[0].Velocity).To(Equal(2.0))
		Expect(tr.Vehicles[1].Velocity).To(Equal(0.0))
		Expect(tr.Vehicles[2].Velocity).To(Equal(-1.0))
		Expect(tr.Couplers[0].ImpulseForce).To(Equal(0.0))
	})

	It("ignores taut couplers that are already closing", func() {
		tr.SetSlack(0, 1)
		tr.Vehicles[1].Velocity = 1

		s.ApplyCouplerImpulseForces(tr, dt)

		Expect(tr.Vehicles[0].Velocity).To(Equal(0.0))
		Expect(tr.Vehicles[1].Velocity).To(Equal(1.0))
	})

	It("pushes a compressed pair together", func() {
		tr.SetSlack(1, -1)
		tr.Vehicles[1].Velocity = -1
		tr.Vehicles[2].Velocity = 1

		s.ApplyCouplerImpulseForces(tr, dt)

		Expect(tr.Vehicles[1].Velocity).To(BeNumerically("~", 0, 1e-12))
		Expect(tr.Vehicles[2].Velocity).To(BeNumerically("~", 0, 1e-12))
		Expect(tr.Couplers[1].ImpulseForce).To(BeNumerically(">", 0))
	})

	It("stops the tail instead of reversing it against the lead", func() {
		tr.SetSlack(1, -1)
		tr.Vehicles[0].Velocity = 1
		tr.Vehicles[1].Velocity = -2
		tr.Vehicles[2].Velocity = 0.1

		s.ApplyCouplerImpulseForces(tr, dt)

		Expect(tr.Vehicles[1].Velocity).To(BeNumerically("~", -0.95, 1e-9))
		Expect(tr.Vehicles[2].Velocity).To(Equal(0.0))
	})

	It("does not touch a tail that was already reversed", func() {
		tr.SetSlack(1, -1)
		tr.Vehicles[0].Velocity = 1
		tr.Vehicles[1].Velocity = -2
		tr.Vehicles[2].Velocity = -0.1

		s.ApplyCouplerImpulseForces(tr, dt)

		Expect(tr.Vehicles[2].Velocity).To(BeNumerically("~", -1.05, 1e-9))
	})
})

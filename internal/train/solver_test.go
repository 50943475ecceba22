package train_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/couplersim/internal/coupler"
	"github.com/san-kum/couplersim/internal/train"
)

var _ = Describe("Solver", func() {
	var s *train.Solver

	BeforeEach(func() {
		s = mustSolver(train.DefaultPhysicsConfig())
	})

	It("rejects invalid physics configuration", func() {
		cfg := train.DefaultPhysicsConfig()
		cfg.DampingSettled = 1.2
		_, err := train.NewSolver(cfg)
		Expect(errors.Is(err, train.ErrInvalidPhysics)).To(BeTrue())
	})

	Context("with a single vehicle", func() {
		It("only folds resistance", func() {
			tr := mustTrain(vehicles(1, 1000, simpleParams(1e7)), train.Forward)
			tr.Vehicles[0].TotalForce = 500
			tr.Vehicles[0].Resistance = train.Resistance{Friction: 100, Brake: 100}

			s.ComputeCouplerForces(tr, dt)
			s.ApplyCouplerImpulseForces(tr, dt)
			s.UpdateCouplerSlack(tr, dt)

			Expect(tr.Vehicles[0].TotalForce).To(Equal(300.0))
			Expect(tr.Couplers).To(BeEmpty())
			Expect(s.SolveStatic(tr).Converged).To(BeTrue())
		})
	})

	Context("with a standing wagon behind a locomotive", func() {
		DescribeTable("lets static friction resist the coupler pull",
			func(friction, loco, wagon float64) {
				tr := mustTrain(vehicles(2, 1000, simpleParams(1e9)), train.Forward)
				tr.SetSlack(0, 1)
				tr.Vehicles[0].TotalForce = 8000
				tr.Vehicles[1].Resistance = train.Resistance{Friction: friction}

				s.ComputeCouplerForces(tr, dt)

				Expect(tr.Couplers[0].Force).To(BeNumerically("~", -4000, 1e-6))
				Expect(tr.Vehicles[0].TotalForce).To(BeNumerically("~", loco, 1e-6))
				Expect(tr.Vehicles[1].TotalForce).To(BeNumerically("~", wagon, 1e-6))
			},
			Entry("pull below breakaway", 5000.0, 4000.0, 0.0),
			Entry("pull above breakaway", 1000.0, 4000.0, 3000.0),
			Entry("no friction", 0.0, 4000.0, 4000.0),
		)
	})

	Context("with three equal vehicles and taut couplers", func() {
		var tr *train.Train
		const force = 1e4

		BeforeEach(func() {
			tr = mustTrain(vehicles(3, 1000, simpleParams(1e9)), train.Forward)
			tr.SetSlack(0, 1)
			tr.SetSlack(1, 1)
		})

		It("gives every vehicle the same acceleration", func() {
			tr.Vehicles[0].TotalForce = force
			s.ComputeCouplerForces(tr, dt)

			want := force / tr.Mass()
			for _, v := range tr.Vehicles {
				Expect(v.TotalForce / v.Mass).To(BeNumerically("~", want, 1e-9))
			}
			Expect(tr.Couplers[0].Force).To(BeNumerically("~", -2*force/3, 1e-6))
			Expect(tr.Couplers[1].Force).To(BeNumerically("~", -force/3, 1e-6))
		})

		It("keeps the tail moving with the lead", func() {
			for n := 0; n < 50; n++ {
				tick(s, tr, map[int]float64{0: force})
				Expect(tr.Vehicles[0].Velocity).To(BeNumerically(">", 0))
				Expect(tr.Vehicles[2].Velocity).To(BeNumerically(">=", 0))
				expectWithinLimits(tr)
			}
			Expect(tr.Pulling).To(Equal(2))
			Expect(tr.Pushing).To(Equal(0))
			Expect(tr.MaxCouplerForce).To(BeNumerically(">", 0))
		})

		It("reaches the same fixed point when solved twice", func() {
			tr.Vehicles[0].TotalForce = force
			tr.Vehicles[2].TotalForce = -force / 2
			first := s.SolveStatic(tr)
			second := s.SolveStatic(tr)

			Expect(first.Converged).To(BeTrue())
			Expect(second.Forces).To(Equal(first.Forces))
			Expect(second.Passes).To(Equal(first.Passes))
		})
	})

	Context("with couplers in the dead-band", func() {
		It("transmits exactly zero force", func() {
			tr := mustTrain(vehicles(4, 2000, simpleParams(1e7)), train.Forward)
			tr.Vehicles[0].TotalForce = 5e4
			tr.Vehicles[3].TotalForce = -5e4
			s.ComputeCouplerForces(tr, dt)

			for _, c := range tr.Couplers {
				Expect(c.Zone).To(Equal(coupler.DeadBand))
				Expect(c.Force).To(Equal(0.0))
			}
			Expect(tr.Vehicles[0].TotalForce).To(Equal(5e4))
		})
	})

	Context("when a force contradicts the slack", func() {
		It("drops the coupler from the system", func() {
			tr := mustTrain(vehicles(3, 1000, simpleParams(1e7)), train.Neutral)
			tr.SetSlack(0, 1)
			tr.SetSlack(1, -1)
			// Pulling the front vehicle away loads coupler 0 in tension and
			// coupler 1 would have to pull too, but its faces are compressed.
			tr.Vehicles[0].TotalForce = 3e4

			sol := s.SolveStatic(tr)
			Expect(sol.Converged).To(BeTrue())
			Expect(sol.Passes).To(Equal(2))
			Expect(sol.Forces[1]).To(Equal(0.0))
			Expect(sol.Forces[0]).To(BeNumerically("~", -1.5e4, 1e-6))
		})

		It("settles within one pass per coupler", func() {
			vs := vehicles(12, 1000, simpleParams(1e7))
			tr := mustTrain(vs, train.Neutral)
			for i := range tr.Couplers {
				tr.SetSlack(i, math.Pow(-1, float64(i)))
			}
			for i := range tr.Vehicles {
				tr.Vehicles[i].TotalForce = 1e4 * math.Sin(float64(i))
			}

			sol := s.SolveStatic(tr)
			Expect(sol.Converged).To(BeTrue())
			Expect(sol.Passes).To(BeNumerically("<=", len(tr.Couplers)+1))
			for i, u := range sol.Forces {
				if u != 0 {
					Expect(tr.Couplers[i].Taut(u)).To(BeTrue(), "coupler %d", i)
				}
			}
		})
	})

	Context("with rigid couplers", func() {
		It("never lets slack past the dead-band", func() {
			tr := mustTrain(playerVehicles(4, 5e4, advancedParams(coupler.Rigid)), train.Forward)
			for n := 0; n < 400; n++ {
				f := 1e7
				if n > 200 {
					f = -1e7
				}
				tick(s, tr, map[int]float64{0: f})
				for _, c := range tr.Couplers {
					Expect(c.Slack).To(BeNumerically("<=", 0.05))
					Expect(c.Slack).To(BeNumerically(">=", -0.03))
				}
			}
		})
	})

	Context("in simple mode", func() {
		run := func(cfg train.PhysicsConfig, vs []train.Vehicle) {
			tr := mustTrain(vs, train.Forward)
			for i := range tr.Vehicles {
				tr.Vehicles[i].Coupler.Advanced = nil
			}
			solver := mustSolver(cfg)
			Expect(func() {
				for n := 0; n < 300; n++ {
					tick(solver, tr, map[int]float64{0: 2e5})
				}
			}).NotTo(Panic())
			expectWithinLimits(tr)
		}

		It("ignores advanced curves under simplified physics", func() {
			cfg := train.DefaultPhysicsConfig()
			cfg.Simplified = true
			run(cfg, playerVehicles(5, 4e4, advancedParams(coupler.Advanced)))
		})

		It("ignores rigid and advanced curves on non-player trains", func() {
			vs := playerVehicles(5, 4e4, advancedParams(coupler.Rigid))
			vs[0].IsLeadPlayer = false
			run(train.DefaultPhysicsConfig(), vs)
		})
	})

	Context("when starting a loose train", func() {
		var tr *train.Train

		BeforeEach(func() {
			vs := playerVehicles(6, 4e4, advancedParams(coupler.Advanced))
			vs[0].Mass = 1.2e5
			tr = mustTrain(vs, train.Forward)
		})

		It("takes up the slack and moves every vehicle forward", func() {
			for n := 0; n < 1500; n++ {
				tick(s, tr, map[int]float64{0: 2.5e5})
				expectWithinLimits(tr)
			}
			for _, v := range tr.Vehicles {
				Expect(v.Velocity).To(BeNumerically(">", 0))
				Expect(v.DistanceTravelled).To(BeNumerically(">", 0))
			}
			for i, c := range tr.Couplers {
				Expect(c.Slack).To(BeNumerically(">", 0), "coupler %d", i)
				Expect(tr.Vehicles[i].RearSlack).To(Equal(c.Slack / 2))
				Expect(tr.Vehicles[i+1].FrontSlack).To(Equal(c.Slack / 2))
			}
			Expect(s.Stats().Unconverged).To(Equal(0))
		})

		It("does not let slack run back while only the lead has moved", func() {
			tr.Vehicles[0].Velocity = 0.05
			tr.Vehicles[1].Velocity = 0.09
			tr.SetSlack(0, 0)
			s.ComputeCouplerForces(tr, dt)
			Expect(tr.Couplers[0].CompressionLimit).To(Equal(0.0))

			s.UpdateCouplerSlack(tr, dt)
			Expect(tr.Couplers[0].Slack).To(BeNumerically(">=", 0))
		})
	})

	DescribeTable("classifies couplers with the train's effective kind",
		func(simplified bool, want coupler.Kind) {
			cfg := train.DefaultPhysicsConfig()
			cfg.Simplified = simplified
			solver := mustSolver(cfg)
			tr := mustTrain(playerVehicles(3, 1e4, advancedParams(coupler.Rigid)), train.Forward)
			tr.SetSlack(0, 1)
			tr.SetSlack(1, -1)

			solver.ComputeCouplerForces(tr, dt)

			for i, c := range tr.Couplers {
				Expect(tr.Kind(i, simplified)).To(Equal(want))
				p := &tr.Vehicles[i].Coupler
				Expect(c.Zone).To(Equal(coupler.Evaluate(want, p, coupler.SideOf(c.Slack), c.Slack).Zone), "coupler %d", i)
			}
		},
		Entry("full physics", false, coupler.Rigid),
		Entry("simplified physics", true, coupler.Simple),
	)

	Context("with loaded advanced couplers", func() {
		It("stretches the tension limit towards the loaded slack", func() {
			tr := mustTrain(playerVehicles(2, 1e4, advancedParams(coupler.Advanced)), train.Forward)
			c := &tr.Couplers[0]
			c.SmoothedForce = -1e5 // zone 2 target at 0.07 m
			rest := c.TensionLimit

			for n := 0; n < 3; n++ {
				s.ComputeCouplerForces(tr, dt)
				c.SmoothedForce = -1e5
			}
			Expect(c.TensionLimit).To(BeNumerically(">", rest))
			Expect(c.TensionLimit).To(BeNumerically("<", 0.07))
			Expect(c.CompressionLimit).To(BeNumerically("~", -0.0315, 1e-12))
		})
	})
})

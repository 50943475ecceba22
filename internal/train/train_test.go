package train_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/couplersim/internal/coupler"
	"github.com/san-kum/couplersim/internal/train"
)

var _ = Describe("Train", func() {
	Describe("New", func() {
		It("rejects an empty consist", func() {
			_, err := train.New("t", nil, train.Forward)
			Expect(err).To(MatchError(train.ErrNoVehicles))
		})

		It("rejects non-positive masses", func() {
			vs := vehicles(3, 1000, simpleParams(1e7))
			vs[1].Mass = 0
			_, err := train.New("t", vs, train.Forward)
			Expect(errors.Is(err, train.ErrInvalidMass)).To(BeTrue())

			var ve *train.VehicleError
			Expect(errors.As(err, &ve)).To(BeTrue())
			Expect(ve.Index).To(Equal(1))
		})

		It("rejects advanced couplers without curves", func() {
			vs := playerVehicles(2, 1000, advancedParams(coupler.Advanced))
			vs[0].Coupler.Advanced = nil
			_, err := train.New("t", vs, train.Forward)
			Expect(errors.Is(err, train.ErrInvalidCoupler)).To(BeTrue())
			Expect(errors.Is(err, coupler.ErrMissingCurves)).To(BeTrue())
		})

		It("does not validate the unused rear coupler", func() {
			vs := vehicles(2, 1000, simpleParams(1e7))
			vs[1].Coupler = coupler.Params{}
			_, err := train.New("t", vs, train.Forward)
			Expect(err).NotTo(HaveOccurred())
		})

		It("starts with one coupler per vehicle pair at rest", func() {
			tr := mustTrain(vehicles(4, 1000, simpleParams(1e7)), train.Forward)
			Expect(tr.Couplers).To(HaveLen(3))
			for _, c := range tr.Couplers {
				Expect(c.Slack).To(Equal(0.0))
				Expect(c.TensionLimit).To(BeNumerically(">", 0))
				Expect(c.CompressionLimit).To(BeNumerically("<", 0))
			}
		})
	})

	Describe("Kind", func() {
		It("only uses advanced curves on player trains with full physics", func() {
			vs := playerVehicles(3, 1000, advancedParams(coupler.Advanced))
			vs[1].UsesAdvancedCoupler = false
			tr := mustTrain(vs, train.Forward)

			Expect(tr.Kind(0, false)).To(Equal(coupler.Advanced))
			Expect(tr.Kind(1, false)).To(Equal(coupler.Simple))
			Expect(tr.Kind(0, true)).To(Equal(coupler.Simple))

			tr.Vehicles[0].IsLeadPlayer = false
			Expect(tr.Kind(0, false)).To(Equal(coupler.Simple))
		})
	})

	Describe("Attach", func() {
		It("appends vehicles behind a new junction coupler", func() {
			a := mustTrain(vehicles(2, 1000, simpleParams(1e7)), train.Forward)
			b := mustTrain(vehicles(3, 2000, simpleParams(2e7)), train.Forward)
			b.SetSlack(0, 1)

			Expect(a.Attach(b, false)).To(Succeed())
			Expect(a.Vehicles).To(HaveLen(5))
			Expect(a.Couplers).To(HaveLen(4))
			Expect(a.Couplers[1].Slack).To(Equal(0.0))
			Expect(a.Couplers[2].Slack).To(BeNumerically(">", 0))
			Expect(b.Vehicles).To(BeEmpty())
		})

		It("turns a reversed train around", func() {
			a := mustTrain(vehicles(1, 1000, simpleParams(1e7)), train.Forward)
			vs := vehicles(3, 2000, simpleParams(1e7))
			vs[0].Coupler.Simple.Stiffness = 1
			vs[1].Coupler.Simple.Stiffness = 2
			b := mustTrain(vs, train.Forward)
			b.SetSlack(0, -1)

			Expect(a.Attach(b, true)).To(Succeed())
			ids := []string{}
			for _, v := range a.Vehicles {
				ids = append(ids, v.ID)
			}
			Expect(ids).To(Equal([]string{"a", "c", "b", "a"}))
			Expect(a.Vehicles[1].Flipped).To(BeTrue())
			// The coupler between c and b keeps b's parameters.
			Expect(a.Vehicles[1].Coupler.Simple.Stiffness).To(Equal(2.0))
			Expect(a.Vehicles[2].Coupler.Simple.Stiffness).To(Equal(1.0))
			Expect(a.Couplers).To(HaveLen(3))
			Expect(a.Couplers[2].Slack).To(BeNumerically("<", 0))
		})

		It("rejects an empty train", func() {
			a := mustTrain(vehicles(1, 1000, simpleParams(1e7)), train.Forward)
			Expect(a.Attach(&train.Train{}, false)).To(MatchError(train.ErrNoVehicles))
		})
	})

	Describe("Direction", func() {
		It("parses configuration names", func() {
			for _, d := range []train.Direction{train.Forward, train.Reverse, train.Neutral} {
				got, err := train.ParseDirection(d.String())
				Expect(err).NotTo(HaveOccurred())
				Expect(got).To(Equal(d))
			}
			_, err := train.ParseDirection("sideways")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Vehicle", func() {
		It("reports speed in its own frame", func() {
			v := train.Vehicle{Velocity: 2, Flipped: true}
			Expect(v.OwnSpeed()).To(Equal(-2.0))
		})
	})
})

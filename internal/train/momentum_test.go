package train_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/couplersim/internal/train"
)

var _ = Describe("ConserveMomentumOnCoupling", func() {
	single := func(mass, velocity float64) *train.Train {
		vs := vehicles(1, mass, simpleParams(1e7))
		vs[0].Velocity = velocity
		return mustTrain(vs, train.Forward)
	}

	DescribeTable("two single vehicles",
		func(m1, v1, m2, v2 float64) {
			a, b := single(m1, v1), single(m2, v2)
			want := (m1*v1 + m2*v2) / (m1 + m2)

			got := train.ConserveMomentumOnCoupling(a, b, 1)

			Expect(got).To(BeNumerically("~", want, 1e-6))
			Expect(a.Vehicles[0].Velocity).To(BeNumerically("~", want, 1e-6))
			Expect(b.Vehicles[0].Velocity).To(BeNumerically("~", want, 1e-6))
		},
		Entry("one at rest", 8e4, 2.0, 4e4, 0.0),
		Entry("head on", 5e4, 1.5, 5e4, -1.5),
		Entry("both moving", 1.2e5, 3.0, 3e4, 1.0),
	)

	It("sets every vehicle of longer trains", func() {
		va := vehicles(3, 2e4, simpleParams(1e7))
		for i := range va {
			va[i].Velocity = 1
		}
		a := mustTrain(va, train.Forward)
		b := mustTrain(vehicles(2, 3e4, simpleParams(1e7)), train.Neutral)

		got := train.ConserveMomentumOnCoupling(a, b, 1)

		Expect(got).To(BeNumerically("~", 6e4/1.2e5, 1e-9))
		for _, v := range append(a.Vehicles, b.Vehicles...) {
			Expect(v.Velocity).To(BeNumerically("~", got, 1e-9))
		}
	})

	It("flips the contribution of a train facing the other way", func() {
		a := single(1e4, 1)
		b := single(1e4, 1) // moving towards a in its own frame

		got := train.ConserveMomentumOnCoupling(a, b, -1)
		Expect(got).To(BeNumerically("~", 0, 1e-12))

		a = single(1e4, 2)
		b = single(1e4, 0)
		got = train.ConserveMomentumOnCoupling(a, b, -1)
		Expect(got).To(BeNumerically("~", 1, 1e-12))
		Expect(b.Vehicles[0].Velocity).To(BeNumerically("~", -1, 1e-12))

		Expect(a.Attach(b, true)).To(Succeed())
		for _, v := range a.Vehicles {
			Expect(v.Velocity).To(BeNumerically("~", 1, 1e-12))
		}
		Expect(a.Vehicles[1].Flipped).To(BeTrue())
		Expect(a.Vehicles[1].OwnSpeed()).To(BeNumerically("~", -1, 1e-12))
	})
})

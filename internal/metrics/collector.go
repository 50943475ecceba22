package metrics

import (
	"fmt"
	"math"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/san-kum/couplersim/internal/train"
)

// Collector exports the live state of a simulated train as Prometheus
// metrics. It is a sim.Observer.
type Collector struct {
	gatherer prometheus.Gatherer

	MaxForce prometheus.Gauge
	Pulling  prometheus.Gauge
	Pushing  prometheus.Gauge
	Speed    prometheus.Gauge
	Ticks    prometheus.Counter
}

// NewCollector registers the train metrics against reg, defaulting to the
// global registry when nil. Registering twice against the same registry
// returns the existing metrics.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{gatherer: gatherer}
	var err error
	if c.MaxForce, err = registerGauge(reg, "couplersim_coupler_force_max_newtons",
		"Largest static coupler force magnitude in the last tick."); err != nil {
		return nil, err
	}
	if c.Pulling, err = registerGauge(reg, "couplersim_couplers_pulling",
		"Couplers carrying tension in the last tick."); err != nil {
		return nil, err
	}
	if c.Pushing, err = registerGauge(reg, "couplersim_couplers_pushing",
		"Couplers carrying compression in the last tick."); err != nil {
		return nil, err
	}
	if c.Speed, err = registerGauge(reg, "couplersim_train_speed_mps",
		"Speed of the lead vehicle in metres per second."); err != nil {
		return nil, err
	}

	ticks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "couplersim_ticks_total",
		Help: "Simulation ticks observed.",
	})
	if err := reg.Register(ticks); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(prometheus.Counter)
		if !ok {
			return nil, fmt.Errorf("collector couplersim_ticks_total already registered with incompatible type")
		}
		ticks = existing
	}
	c.Ticks = ticks
	return c, nil
}

func (c *Collector) OnTick(tr *train.Train, t float64) {
	if c == nil {
		return
	}
	c.MaxForce.Set(tr.MaxCouplerForce)
	c.Pulling.Set(float64(tr.Pulling))
	c.Pushing.Set(float64(tr.Pushing))
	if len(tr.Vehicles) > 0 {
		c.Speed.Set(math.Abs(tr.Vehicles[tr.LeadIndex()].Velocity))
	}
	c.Ticks.Inc()
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// WriteTextfile dumps the current metrics in the text exposition format,
// for the node exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.gatherer)
}

func registerGauge(reg prometheus.Registerer, name, help string) (prometheus.Gauge, error) {
	g := prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
	if err := reg.Register(g); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return g, nil
}

package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/couplersim/internal/sim"
	"github.com/san-kum/couplersim/internal/train"
)

const (
	barWidth    = 41
	maxCouplers = 24
	historyLen  = 60
)

// Scenario builds a fresh train and run configuration. It is called at
// start and on every reset.
type Scenario func() (*train.Train, sim.Config, error)

type Model struct {
	sim      *sim.Simulator
	scenario Scenario
	fps      int

	tr      *train.Train
	cfg     sim.Config
	t       float64
	steps   int
	paused  bool
	err     error
	history []float64
}

func New(s *sim.Simulator, scenario Scenario, fps int) (*Model, error) {
	if fps <= 0 {
		fps = 30
	}
	m := &Model{sim: s, scenario: scenario, fps: fps}
	if err := m.reset(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Model) reset() error {
	tr, cfg, err := m.scenario()
	if err != nil {
		return err
	}
	m.tr, m.cfg = tr, cfg
	m.t = 0
	m.err = nil
	m.history = m.history[:0]
	// Advance in real time: one frame covers 1/fps seconds of simulation.
	m.steps = max(1, int(math.Round(1/(float64(m.fps)*cfg.Dt))))
	return nil
}

// Train returns the train being simulated.
func (m *Model) Train() *train.Train { return m.tr }

// Time returns the simulated time in seconds.
func (m *Model) Time() float64 { return m.t }

type tickMsg time.Time

func (m *Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) Init() tea.Cmd { return m.tick() }

func (m *Model) done() bool { return m.t >= m.cfg.Duration-1e-9 }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ", "space":
			m.paused = !m.paused
		case "r":
			if err := m.reset(); err != nil {
				m.err = err
			}
		}
		return m, nil
	case tickMsg:
		if !m.paused && m.err == nil {
			m.advance()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) advance() {
	for i := 0; i < m.steps && !m.done(); i++ {
		t, err := m.sim.Advance(m.tr, m.t, m.cfg)
		if err != nil {
			m.err = err
			return
		}
		m.t = t
	}
	m.history = append(m.history, m.speed())
	if len(m.history) > historyLen {
		m.history = m.history[1:]
	}
}

func (m *Model) speed() float64 {
	if len(m.tr.Vehicles) == 0 {
		return 0
	}
	return m.tr.Vehicles[m.tr.LeadIndex()].Velocity
}

func (m *Model) View() string {
	var b strings.Builder

	status := running.Render("running")
	switch {
	case m.err != nil:
		status = failed.Render("error: " + m.err.Error())
	case m.done():
		status = subtle.Render("finished")
	case m.paused:
		status = paused.Render("paused")
	}
	b.WriteString(title.Render(m.tr.ID) + "  " + status + "\n\n")

	b.WriteString(stat("t", fmt.Sprintf("%.2f s", m.t)))
	b.WriteString(stat("speed", fmt.Sprintf("%.2f m/s", m.speed())))
	b.WriteString(stat("vehicles", fmt.Sprint(len(m.tr.Vehicles))))
	b.WriteString(stat("pulling", fmt.Sprint(m.tr.Pulling)))
	b.WriteString(stat("pushing", fmt.Sprint(m.tr.Pushing)))
	b.WriteString(stat("max force", fmt.Sprintf("%.1f kN", m.tr.MaxCouplerForce/1000)))
	b.WriteString("\n" + label.Render("speed ") + sparkline(m.history) + "\n\n")

	b.WriteString(panel.Render(m.couplers()))
	b.WriteString("\n" + subtle.Render("space pause  r reset  q quit") + "\n")
	return b.String()
}

func stat(name, v string) string {
	return label.Render(name+" ") + value.Render(v) + "  "
}

// couplers draws each coupler's slack as a bar centred on zero, scaled to
// the widest limit in the train.
func (m *Model) couplers() string {
	scale := 0.0
	for _, c := range m.tr.Couplers {
		scale = math.Max(scale, math.Max(c.TensionLimit, -c.CompressionLimit))
	}
	if scale == 0 {
		return subtle.Render("no couplers")
	}

	var b strings.Builder
	n := min(len(m.tr.Couplers), maxCouplers)
	for i := 0; i < n; i++ {
		c := m.tr.Couplers[i]
		style := zoneStyles[c.Zone]
		fmt.Fprintf(&b, "%3d %s %s %s\n", i,
			style.Render(slackBar(c.Slack, c.CompressionLimit, c.TensionLimit, scale)),
			label.Render(fmt.Sprintf("%+7.1f mm", c.Slack*1000)),
			style.Render(c.Zone.String()))
	}
	if rest := len(m.tr.Couplers) - n; rest > 0 {
		b.WriteString(subtle.Render(fmt.Sprintf("    ... %d more", rest)))
	}
	return strings.TrimRight(b.String(), "\n")
}

// slackBar renders limits as brackets and the slack as a filled run from the
// centre.
func slackBar(slack, lower, upper, scale float64) string {
	half := barWidth / 2
	pos := func(x float64) int {
		p := half + int(math.Round(x/scale*float64(half)))
		return max(0, min(barWidth-1, p))
	}
	cells := []rune(strings.Repeat(" ", barWidth))
	s := pos(slack)
	for i := min(s, half); i <= max(s, half); i++ {
		cells[i] = '='
	}
	cells[half] = '|'
	cells[pos(lower)] = '['
	cells[pos(upper)] = ']'
	return string(cells)
}

var sparks = []rune("▁▂▃▄▅▆▇█")

func sparkline(vals []float64) string {
	if len(vals) == 0 {
		return ""
	}
	lo, hi := vals[0], vals[0]
	for _, v := range vals {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	out := make([]rune, len(vals))
	for i, v := range vals {
		k := 0
		if hi > lo {
			k = int((v - lo) / (hi - lo) * float64(len(sparks)-1))
		}
		out[i] = sparks[k]
	}
	return string(out)
}

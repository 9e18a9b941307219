package sim

import (
	"github.com/sirupsen/logrus"

	"github.com/queuenet-sim/queuenet-sim/sim/rngs"
)

// ArrivalsGenerator is a self-renewing Poisson source of external jobs.
// Each external arrival it observes at its entry node schedules the next one
// an exponential inter-arrival time later.
type ArrivalsGenerator struct {
	sched   *Scheduler
	sampler rngs.Sampler
	rate    float64
	entry   Key

	active    bool
	generated int64
	next      *Event
}

// NewArrivalsGenerator schedules the first external arrival at the current
// time and subscribes to arrivals. Register it after the domain arrival handler.
func NewArrivalsGenerator(sched *Scheduler, sampler rngs.Sampler, rate float64, entry Key) *ArrivalsGenerator {
	g := &ArrivalsGenerator{
		sched:   sched,
		sampler: sampler,
		rate:    rate,
		entry:   entry,
		active:  true,
	}
	sched.Subscribe(Arrival, g.onArrival)
	g.schedule(0)
	return g
}

func (g *ArrivalsGenerator) schedule(delay float64) {
	ev := g.sched.NewEvent(Arrival, g.entry.Node, NoJob, g.entry.Class)
	ev.External = true
	g.sched.Schedule(ev, delay)
	g.next = ev
	g.generated++
}

func (g *ArrivalsGenerator) onArrival(ev *Event) {
	if !g.active || !ev.External || ev.Node != g.entry.Node {
		return
	}
	g.schedule(g.sampler.Exponential(1 / g.rate))
}

// Stop halts admissions. The already scheduled external arrival is cancelled
// so only resident jobs remain to drain.
func (g *ArrivalsGenerator) Stop() {
	if !g.active {
		return
	}
	g.active = false
	if g.next != nil && !g.next.Cancelled() && g.next.queued {
		g.sched.Cancel(g.next)
		g.generated--
	}
	logrus.Infof("Arrivals stopped at t=%.4f after %d external arrivals", g.sched.Now(), g.generated)
}

// Active reports whether new arrivals are still being generated.
func (g *ArrivalsGenerator) Active() bool { return g.active }

// Generated returns the number of external arrivals scheduled and not cancelled.
func (g *ArrivalsGenerator) Generated() int64 { return g.generated }

// Command replay runs a scenario on simulated time and prints every world
// change, without sleeping.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/signalsfoundry/railsim/internal/controller"
	"github.com/signalsfoundry/railsim/internal/logging"
	"github.com/signalsfoundry/railsim/internal/scenario"
	"github.com/signalsfoundry/railsim/internal/sim/state"
	"github.com/signalsfoundry/railsim/internal/timeline"
)

func main() {
	id := flag.String("scenario", scenario.ConflictID, "scenario id to replay")
	format := flag.String("format", "text", "output format: text or json")
	list := flag.Bool("list", false, "list scenarios and exit")
	switchTo := flag.String("switch-to", "", "scenario to activate part way through")
	switchAt := flag.Duration("switch-at", 0, "simulated time of the -switch-to activation")
	flag.Parse()

	if *list {
		listScenarios(os.Stdout, scenario.MustDefaultRegistry())
		return
	}

	opts := options{
		ScenarioID: *id,
		Format:     *format,
		SwitchTo:   *switchTo,
		SwitchAt:   *switchAt,
	}
	if err := replay(os.Stdout, opts); err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	ScenarioID string
	Format     string
	SwitchTo   string
	SwitchAt   time.Duration
}

// event is one line of replay output.
type event struct {
	At       time.Duration  `json:"atMs"`
	Snapshot state.Snapshot `json:"snapshot"`
	Notes    []string       `json:"notifications"`
}

func (e event) MarshalJSON() ([]byte, error) {
	type wire event
	w := wire(e)
	w.At = e.At / time.Millisecond
	return json.Marshal(w)
}

// replay activates opts.ScenarioID at t=0 and drains its timeline.
func replay(w io.Writer, opts options) error {
	if opts.Format != "text" && opts.Format != "json" {
		return fmt.Errorf("unknown format %q", opts.Format)
	}

	registry := scenario.MustDefaultRegistry()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	sched := timeline.NewFakeEventScheduler(start)
	store := state.NewStore(registry.Baseline(), state.NewNotificationLog(0, sched.Now))
	ctrl := controller.New(registry, store, timeline.New(sched),
		controller.WithLogger(logging.Noop()),
		controller.WithStrict(true),
	)

	updates, unsubscribe := ctrl.Subscribe(64)
	defer unsubscribe()

	lastNote := uint64(0)
	if seeded := ctrl.Notifications(); len(seeded) > 0 {
		lastNote = seeded[0].ID
	}

	out := newPrinter(w, opts.Format)
	ctx := context.Background()
	if err := ctrl.Activate(ctx, opts.ScenarioID); err != nil {
		return err
	}
	// emit drains the queued updates. Updates that only add notifications
	// to an unchanged world fold into the event for that world.
	emit := func() error {
		var pending *event
		for {
			select {
			case u := <-updates:
				var notes []string
				for _, n := range reverse(u.Notifications) {
					if n.ID > lastNote {
						notes = append(notes, fmt.Sprintf("[%s/%s] %s", n.Type, n.Priority, n.Message))
						lastNote = n.ID
					}
				}
				if pending != nil && pending.Snapshot.Version == u.Snapshot.Version {
					pending.Notes = append(pending.Notes, notes...)
					continue
				}
				if pending != nil {
					if err := out.print(*pending); err != nil {
						return err
					}
				}
				pending = &event{At: sched.Now().Sub(start), Snapshot: u.Snapshot, Notes: notes}
			default:
				if pending == nil {
					return nil
				}
				return out.print(*pending)
			}
		}
	}
	if err := emit(); err != nil {
		return err
	}

	switched := opts.SwitchTo == ""
	for {
		next, ok := sched.NextAt()
		if !switched && (!ok || !next.Before(start.Add(opts.SwitchAt))) {
			sched.AdvanceTo(start.Add(opts.SwitchAt))
			if err := emit(); err != nil {
				return err
			}
			if err := ctrl.Activate(ctx, opts.SwitchTo); err != nil {
				return err
			}
			switched = true
			if err := emit(); err != nil {
				return err
			}
			continue
		}
		if !ok {
			break
		}
		sched.AdvanceTo(next)
		if err := emit(); err != nil {
			return err
		}
	}
	return out.flush()
}

type printer struct {
	format string
	enc    *json.Encoder
	tw     *tabwriter.Writer
}

// Text output keeps notes in the trailing column so they never widen the
// aligned ones.

func newPrinter(w io.Writer, format string) *printer {
	p := &printer{format: format}
	if format == "json" {
		p.enc = json.NewEncoder(w)
	} else {
		p.tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(p.tw, "T+\tPHASE\tSIGNALS\tEFF\tPUNC\tSAFE\tUTIL\tTRAINS\tNOTES")
	}
	return p
}

func (p *printer) print(e event) error {
	if p.enc != nil {
		return p.enc.Encode(e)
	}
	s := e.Snapshot
	phase := s.Phase
	if phase == "" {
		phase = "baseline"
	}
	trains := make([]string, 0, len(s.Trains))
	for _, t := range s.Trains {
		trains = append(trains, fmt.Sprintf("%s:%s@%.0fkm/h", t.ID, t.Status, t.SpeedKmh))
	}
	_, err := fmt.Fprintf(p.tw, "%5.1fs\t%s\t%s\t%.1f\t%.1f\t%.1f\t%.1f\t%s\t%s\n",
		e.At.Seconds(), phase, signals(s), s.Metrics.Efficiency, s.Metrics.Punctuality,
		s.Metrics.Safety, s.Metrics.Utilization, strings.Join(trains, " "), strings.Join(e.Notes, " | "))
	return err
}

func (p *printer) flush() error {
	if p.tw != nil {
		return p.tw.Flush()
	}
	return nil
}

func signals(s state.Snapshot) string {
	parts := make([]string, 0, len(s.Signals))
	for _, id := range s.Signals.IDs() {
		parts = append(parts, fmt.Sprintf("%s=%s", id, s.Signals[id]))
	}
	return strings.Join(parts, ",")
}

func listScenarios(w io.Writer, reg *scenario.Registry) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTEPS\tDURATION")
	for _, s := range reg.List() {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", s.ID, s.Name, len(s.Steps), s.Duration())
	}
	tw.Flush()
}

func reverse[T any](in []T) []T {
	out := make([]T, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}

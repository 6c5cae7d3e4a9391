package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/Carmen-Shannon/oxy-animgraph/common"
	"github.com/Carmen-Shannon/oxy-animgraph/engine"
	"github.com/Carmen-Shannon/oxy-animgraph/engine/animation/compiler"
	"github.com/Carmen-Shannon/oxy-animgraph/engine/animation/graph"
	"github.com/Carmen-Shannon/oxy-animgraph/engine/animation/sampler"
	"github.com/Carmen-Shannon/oxy-animgraph/engine/animator"
	"github.com/Carmen-Shannon/oxy-animgraph/engine/metrics"
	"github.com/Carmen-Shannon/oxy-animgraph/internal/config"
)

func newSimulateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate <scenario>",
		Short: "Play a scenario and print per-frame animation state",
		Long: `Compiles the scenario's graph, binds its clips and runs the scenario's frames,
applying parameter writes before their frame. The first instance's state weights,
samplers, events and root motion are printed every frame.

With --realtime the frames are driven by the engine tick loop at the configured tick
rate instead of as fast as possible.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			realtime, _ := cmd.Flags().GetBool("realtime")
			every, _ := cmd.Flags().GetInt("every")
			addr, _ := cmd.Flags().GetString("metrics-addr")
			addr = common.Coalesce(addr, a.cfg.MetricsAddr)

			s, err := config.LoadScenario(args[0])
			if err != nil {
				return err
			}
			sim, err := newSimulation(a, s)
			if err != nil {
				return err
			}
			defer sim.anim.Release()

			if addr != "" {
				_, stop, err := serveMetrics(addr, sim.registry, a.logger)
				if err != nil {
					return err
				}
				defer stop()
			}

			sim.out = cmd.OutOrStdout()
			sim.every = max(every, 1)
			if realtime {
				return sim.runRealtime(cmd.Context(), a)
			}
			return sim.run(cmd.Context())
		},
	}

	cmd.Flags().Bool("realtime", false, "Drive frames from the engine tick loop")
	cmd.Flags().Int("every", 1, "Print every Nth frame")
	cmd.Flags().String("metrics-addr", "", "Serve prometheus metrics on this address, e.g. :9090")
	return cmd
}

// simulation plays one scenario.
type simulation struct {
	scenario *config.Scenario
	graph    *graph.Graph
	anim     animator.Animator
	registry *prometheus.Registry
	ids      []animator.InstanceID

	out    io.Writer
	every  int
	dt     float32
	events int
}

func newSimulation(a *app, s *config.Scenario) (*simulation, error) {
	asset, err := compiler.LoadAsset(s.Graph)
	if err != nil {
		return nil, err
	}
	g, err := compiler.NewCompiler(compiler.WithLogger(a.logger)).Compile(asset)
	if err != nil {
		return nil, err
	}
	skeleton, err := s.BuildSkeleton()
	if err != nil {
		return nil, fmt.Errorf("scenario skeleton: %w", err)
	}
	clips, err := animator.ClipSetForGraph(g, skeleton, s.ClipsByName())
	if err != nil {
		return nil, err
	}
	mode, ok := sampler.ParseRootMotionMode(s.RootMotion)
	if !ok {
		return nil, fmt.Errorf("unknown root motion mode %q", s.RootMotion)
	}

	reg := prometheus.NewRegistry()
	anim := animator.NewAnimator(
		animator.WithWorkers(a.cfg.Workers),
		animator.WithMaxInstances(a.cfg.MaxInstances),
		animator.WithLogger(a.logger),
		animator.WithMetrics(metrics.New(reg)),
	)

	sim := &simulation{scenario: s, graph: g, anim: anim, registry: reg, dt: s.DeltaTime}
	for range s.Instances {
		id, err := anim.AddInstance(g, clips,
			animator.WithRootMotionMode(mode),
			animator.WithEvents(!s.DisableEvents),
		)
		if err != nil {
			anim.Release()
			return nil, err
		}
		sim.ids = append(sim.ids, id)
	}
	return sim, nil
}

// run plays every frame back to back.
func (s *simulation) run(ctx context.Context) error {
	for frame := range s.scenario.Frames {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.applyWrites(frame); err != nil {
			return err
		}
		s.anim.Update(s.dt)
		if err := s.report(frame); err != nil {
			return err
		}
	}
	return s.summary()
}

// runRealtime plays the frames from an engine tick loop at the configured tick rate,
// stepping 1/tick_rate per frame. The engine updates the animator before each
// callback, so the callback applies the next frame's writes.
func (s *simulation) runRealtime(ctx context.Context, a *app) error {
	s.dt = float32(1 / a.cfg.TickRate)
	eng := engine.NewEngine(
		engine.WithAnimator(s.anim),
		engine.WithTickRate(a.cfg.TickRate),
		engine.WithFixedDelta(true),
		engine.WithMaxTicks(s.scenario.Frames),
		engine.WithProfiling(a.cfg.Profiling),
		engine.WithLogger(a.logger),
	)

	var runErr error
	frame := 0
	eng.SetTickCallback(func(deltaTime float32) {
		if runErr == nil {
			runErr = s.report(frame)
		}
		frame++
		if runErr == nil {
			runErr = s.applyWrites(frame)
		}
		if runErr != nil {
			eng.Quit()
		}
	})

	if err := s.applyWrites(0); err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, eng.Quit)
	defer stop()
	eng.Run()

	if runErr != nil {
		return runErr
	}
	if frame < s.scenario.Frames {
		return fmt.Errorf("simulation stopped after %d of %d frames", frame, s.scenario.Frames)
	}
	return s.summary()
}

// applyWrites sets the parameters scheduled for frame on every instance.
func (s *simulation) applyWrites(frame int) error {
	for _, w := range s.scenario.WritesAt(frame) {
		for _, id := range s.ids {
			var err error
			switch w.Type {
			case "bool":
				err = s.anim.SetBoolByName(id, w.Name, w.Bool())
			case "int":
				err = s.anim.SetIntByName(id, w.Name, w.Int())
			case "float":
				err = s.anim.SetFloatByName(id, w.Name, w.Float())
			}
			if err != nil {
				return fmt.Errorf("frame %d: %w", frame, err)
			}
		}
	}
	return nil
}

// report prints the first instance's state after frame.
func (s *simulation) report(frame int) error {
	id := s.ids[0]
	events, err := s.anim.Events(id)
	if err != nil {
		return err
	}
	s.events += len(events)

	if frame%s.every != 0 && frame != s.scenario.Frames-1 {
		return nil
	}

	w := s.out
	fmt.Fprintf(w, "frame %d t=%.4f\n", frame, float32(frame+1)*s.dt)
	for i := range s.graph.StateMachines {
		v, err := s.anim.StateMachine(id, uint8(i))
		if err != nil {
			return err
		}
		printMachine(w, v)
	}

	samplers, err := s.anim.Samplers(id)
	if err != nil {
		return err
	}
	for _, sm := range samplers {
		fmt.Fprintf(w, "  sampler %-12s weight %.3f time %.4f/%g\n",
			s.graph.Clips[sm.ClipIndex].Name, sm.Weight, sm.Time, sm.TotalTime)
	}
	for _, ev := range events {
		fmt.Fprintf(w, "  event %s clip %s at %g weight %.3f\n",
			ev.Event.FunctionName, s.graph.Clips[ev.ClipIndex].Name, ev.Event.Time, ev.Weight)
	}

	rm, err := s.anim.RootMotion(id)
	if err != nil {
		return err
	}
	if rm != sampler.IdentityRootMotion() {
		fmt.Fprintf(w, "  root motion translation %v rotation %v\n", rm.Translation, rm.Rotation)
	}
	return nil
}

func printMachine(w io.Writer, v animator.StateMachineView) {
	fmt.Fprintf(w, "  sm[%d] %s weight %.3f", v.Index, v.Name, v.Weight)
	if v.Dormant {
		fmt.Fprint(w, " dormant")
	}
	if v.HasCurrent {
		fmt.Fprintf(w, " current %d", v.Current)
	}
	if v.HasTarget {
		fmt.Fprintf(w, " target %d", v.Target)
	}
	fmt.Fprintln(w)
	for _, st := range v.States {
		fmt.Fprintf(w, "    state %d %-12s weight %.3f time %.4f\n", st.Index, st.Name, st.Weight, st.Time)
	}
}

func (s *simulation) summary() error {
	t, err := s.anim.Transform(s.ids[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "done: %d frames, %d instances, %d events, root translation %v\n",
		s.scenario.Frames, len(s.ids), s.events, t.Translation)
	return nil
}

// serveMetrics serves reg on addr until the returned stop function is called.
// It returns the bound address, which differs from addr when addr uses port 0.
func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) (string, func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", ln.Addr().String())

	return ln.Addr().String(), func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/Schwaller/graphlens/pkg/config"
	"github.com/Schwaller/graphlens/pkg/engine"
	"github.com/Schwaller/graphlens/pkg/graph"
	"github.com/Schwaller/graphlens/pkg/host"
	"github.com/Schwaller/graphlens/pkg/layout"
	"github.com/Schwaller/graphlens/pkg/logging"
	"github.com/Schwaller/graphlens/pkg/output"
	"github.com/Schwaller/graphlens/pkg/pubsub"
	"github.com/Schwaller/graphlens/pkg/source"
	"github.com/Schwaller/graphlens/pkg/watcher"
	"github.com/Schwaller/graphlens/pkg/web"
)

func main() {
	f := pflag.NewFlagSet("graphlens", pflag.ExitOnError)
	f.String("dataset", "graph.json", "Path to the graph dataset file")
	f.String("positions", "positions.json", "Path to the stored node positions")
	f.Bool("web", false, "Start the web server instead of printing a report")
	f.Int("port", 8080, "HTTP port")
	f.Bool("watch", false, "Reload when the dataset file changes")
	f.Int("tick", 30, "Simulation tick interval in milliseconds")
	f.StringSlice("hubs", nil, "Node kinds treated as hubs by the focus lens")
	f.String("treekind", "parent", "Edge kind defining the tree hierarchy")
	f.String("layout", "spring", "Initial layout mode (manual, spring, tree)")
	f.Bool("json", false, "Log as JSON instead of console format")
	f.CountP("verbose", "v", "Increase log verbosity (-v debug, -vv trace)")
	if err := f.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	logging.SetVerbosity(cfg.Verbose)
	if cfg.JSONLogs {
		logging.SetJSONOutput()
	}

	if err := run(cfg); err != nil {
		logging.Fatal("startup failed", "error", err)
	}
}

func run(cfg *config.Config) error {
	mode, err := layout.ParseMode(cfg.Layout)
	if err != nil {
		return err
	}

	if !cfg.Web {
		return runReport(cfg, mode)
	}

	pub := pubsub.NewSSEPublisher()
	defer pub.Close()
	pub.ConfigureTopic(pubsub.TopicFrame, pubsub.TopicConfig{BufferSize: 1})
	pub.ConfigureTopic(pubsub.TopicSelection, pubsub.TopicConfig{BufferSize: 1})
	pub.ConfigureTopic(pubsub.TopicDataset, pubsub.TopicConfig{BufferSize: 5, ReplayAll: false})

	eng := engine.New(engineOptions(cfg), engine.Hooks{
		OnSelect: func(id string) {
			pub.Publish(pubsub.TopicSelection, "selected", map[string]string{"id": id})
		},
		OnPositions: func(positions []engine.Position) {
			if err := source.SavePositions(cfg.Positions, positions); err != nil {
				logging.Warn("position save failed", "error", err)
			}
		},
	})

	nodes, edges, err := loadGraph(cfg.Dataset, cfg.Positions)
	if err != nil {
		return err
	}
	eng.SetData(nodes, edges)
	eng.SetLayoutMode(mode)
	eng.FitToBounds()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := host.New(eng, pub, time.Duration(cfg.TickMS)*time.Millisecond)
	go h.Run(ctx)

	if cfg.Watch {
		if err := startWatcher(ctx, cfg, h, pub); err != nil {
			return err
		}
	}

	server := web.NewServer(h, pub)
	errs := make(chan error, 1)
	go func() { errs <- server.Start(cfg.Port) }()

	select {
	case <-ctx.Done():
		logging.Info("shutting down")
		return nil
	case err := <-errs:
		return err
	}
}

// maxSettleSteps bounds the offline layout run in report mode.
const maxSettleSteps = 2000

func runReport(cfg *config.Config, mode layout.Mode) error {
	eng := engine.New(engineOptions(cfg), engine.Hooks{})

	nodes, edges, err := loadGraph(cfg.Dataset, cfg.Positions)
	if err != nil {
		return err
	}
	eng.SetData(nodes, edges)
	eng.SetLayoutMode(mode)

	steps := 0
	for eng.Active() && steps < maxSettleSteps {
		eng.Tick()
		steps++
	}

	if err := source.SavePositions(cfg.Positions, eng.Positions()); err != nil {
		logging.Warn("position save failed", "error", err)
	}

	output.PrintGraphReport(cfg.Dataset, eng.Model(), &output.LayoutResult{
		Steps:   steps,
		Settled: !eng.Active(),
	})
	return nil
}

func engineOptions(cfg *config.Config) engine.Options {
	opts := engine.DefaultOptions()
	opts.HubKinds = cfg.HubKinds
	opts.Layout.TreeEdgeKind = cfg.TreeKind

	p := cfg.Physics
	opts.Physics.Repulsion = p.Repulsion
	opts.Physics.Attraction = p.Attraction
	opts.Physics.Damping = p.Damping
	opts.Physics.CenterPull = p.CenterPull
	opts.Physics.MaxVelocity = p.MaxSpeed
	opts.Physics.SleepVelocity = p.SleepBelow
	opts.Physics.RepulsionCutoff = p.Cutoff
	opts.Physics.MinSpringDistance = p.MinSpring

	v := cfg.View
	opts.MinZoom = v.MinZoom
	opts.MaxZoom = v.MaxZoom
	if v.Width > 0 {
		opts.ScreenW = v.Width
	}
	if v.Height > 0 {
		opts.ScreenH = v.Height
	}
	return opts
}

func loadGraph(datasetPath, positionsPath string) ([]graph.Node, []graph.Edge, error) {
	ds, err := source.LoadDataset(datasetPath)
	if err != nil {
		return nil, nil, err
	}
	restored, err := source.LoadPositions(positionsPath)
	if err != nil {
		logging.Warn("stored positions unreadable, starting fresh", "error", err)
		restored = nil
	}
	nodes, edges := ds.Build(restored)
	return nodes, edges, nil
}

func startWatcher(ctx context.Context, cfg *config.Config, h *host.Host, pub pubsub.Publisher) error {
	fw, err := watcher.NewFileWatcher(cfg.Dataset, cfg.Positions)
	if err != nil {
		return err
	}
	if err := fw.Start(ctx); err != nil {
		return err
	}

	deb := watcher.NewDebouncer(fw.Events(), 200*time.Millisecond, 2*time.Second)
	deb.Start(ctx)

	go func() {
		for event := range deb.Output() {
			plan := watcher.PlanReload(event)
			if !plan.ReloadDataset {
				// Position file writes are usually our own saves.
				continue
			}
			nodes, edges, err := loadGraph(cfg.Dataset, cfg.Positions)
			if err != nil {
				logging.Warn("dataset reload failed", "error", err)
				continue
			}
			h.Do(func(e *engine.Engine) {
				e.SetData(nodes, edges)
			})
			pub.Publish(pubsub.TopicDataset, "reloaded", map[string]int{
				"nodes": len(nodes),
				"edges": len(edges),
			})
			logging.Info("dataset reloaded", "nodes", len(nodes), "edges", len(edges))
		}
	}()
	return nil
}

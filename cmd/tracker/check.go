package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/kr/pretty"
	"github.com/urfave/cli/v2"

	"transport-tracker/internal/config"
	"transport-tracker/internal/fleet"
	"transport-tracker/internal/mapview"
	"transport-tracker/internal/session"
)

func checkCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "load routes and fleet, run a few dry frames and print a summary",
		Flags: []cli.Flag{
			scenarioFlag(),
			&cli.IntFlag{
				Name:  "frames",
				Value: 1,
				Usage: "number of frames to simulate",
			},
			&cli.BoolFlag{
				Name:  "dump",
				Usage: "pretty-print the generated fleet",
			},
		},
		Action: func(c *cli.Context) error {
			scenarioFile := cfg.ScenarioFile
			if c.IsSet("scenario") {
				scenarioFile = c.String("scenario")
			}
			return check(c.Context, c.App.Writer, cfg, scenarioFile, c.Int("frames"), c.Bool("dump"))
		},
	}
}

func check(ctx context.Context, out io.Writer, cfg *config.Config, scenarioFile string, frames int, dump bool) error {
	w, err := loadWorld(ctx, cfg, scenarioFile)
	if err != nil {
		return err
	}

	rec := &mapview.Recorder{}
	sess, err := session.New(session.Options{
		ID:      "check",
		Adapter: rec,
		Routes:  w.routes,
		Fleet:   w.fleet,
		Visible: w.scenario.Visibility(),
		// The loop must not tick on its own; frames are driven below.
		FrameInterval: time.Hour,
		FollowZoom:    cfg.FollowZoom,
		Center:        w.scenario.Center,
		Zoom:          w.scenario.Zoom,
	})
	if err != nil {
		return err
	}
	sess.Start(ctx)
	defer sess.Close()
	for i := 0; i < frames; i++ {
		sess.Tick()
	}

	fmt.Fprintf(out, "scenario %q seed %d\n", w.scenario.Name, w.seed)
	fmt.Fprintf(out, "routes: %d\n", w.routes.Len())
	for _, id := range w.routes.IDs() {
		r, _ := w.routes.Get(id)
		fmt.Fprintf(out, "  %-16s %3d segments %3d stops %8.2f km\n", id, r.SegmentCount(), len(r.Stops), r.Length()/1000)
	}

	vis := sess.Visibility()
	fmt.Fprintf(out, "vehicles: %d\n", w.fleet.Len())
	for _, c := range fleet.Categories() {
		fmt.Fprintf(out, "  %-8s %3d visible=%t\n", c, len(w.fleet.ByCategory(c)), vis[c.String()])
	}

	counts := map[string]int{}
	for _, call := range rec.Calls() {
		counts[call.Op]++
	}
	ops := make([]string, 0, len(counts))
	for op := range counts {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	fmt.Fprintf(out, "adapter calls after %d frame(s):\n", frames)
	for _, op := range ops {
		fmt.Fprintf(out, "  %-14s %d\n", op, counts[op])
	}

	if dump {
		for _, v := range w.fleet.All() {
			fmt.Fprintf(out, "%# v\n", pretty.Formatter(v))
		}
	}
	return nil
}

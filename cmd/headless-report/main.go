package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/brefaltsimon/AI-MazeGame/internal/game"
	"github.com/brefaltsimon/AI-MazeGame/internal/persistence/eventlog"
	"github.com/brefaltsimon/AI-MazeGame/internal/persistence/rundb"
	"github.com/brefaltsimon/AI-MazeGame/internal/tuning"
)

type runStats struct {
	runIndex int
	runID    string
	seed     int64
	ticks    int
	guards   int

	firstDetectionTick int
	firstPursueTick    int
	firstSearchTick    int
	firstCatchTick     int

	detections   int
	broadcasts   int
	ignored      int
	resets       int
	catches      int
	stateChanges int
	routeChanges int
	contacts     int
	coverage     float64

	involved map[string]struct{} // guards that saw or were told about the target
	summary  string
}

type options struct {
	runs       int
	ticks      int
	seedBase   int64
	seedStep   int64
	tuningPath string
	outDir     string
	dbPath     string
	verbose    bool
}

func main() {
	var opt options
	flag.IntVar(&opt.runs, "runs", 5, "number of headless simulation runs")
	flag.IntVar(&opt.ticks, "ticks", 3600, "ticks per run")
	flag.Int64Var(&opt.seedBase, "seed-base", 42, "base RNG seed for run 1")
	flag.Int64Var(&opt.seedStep, "seed-step", 1, "seed increment between runs")
	flag.StringVar(&opt.tuningPath, "tuning", "", "path to tuning.yaml (default: built-in tuning)")
	flag.StringVar(&opt.outDir, "out", "", "write each run's event log as <out>/run-<id>.jsonl.zst")
	flag.StringVar(&opt.dbPath, "db", "", "index runs into this sqlite file")
	flag.BoolVar(&opt.verbose, "v", false, "print a guard summary after each run")
	flag.Parse()

	logger := log.New(os.Stdout, "[report] ", log.LstdFlags)
	if err := run(context.Background(), opt); err != nil {
		logger.Fatal(err)
	}
}

// run executes every simulation and prints the report. Resources it opens
// are closed before it returns.
func run(ctx context.Context, opt options) (err error) {
	if opt.runs <= 0 {
		return errors.New("-runs must be > 0")
	}
	if opt.ticks <= 0 {
		return errors.New("-ticks must be > 0")
	}

	tune := tuning.Default()
	if opt.tuningPath != "" {
		if tune, err = tuning.Load(opt.tuningPath); err != nil {
			return fmt.Errorf("load tuning: %w", err)
		}
	}
	cfg := tune.Config()

	var idx *rundb.Index
	if opt.dbPath != "" {
		if idx, err = rundb.Open(opt.dbPath); err != nil {
			return fmt.Errorf("open run index: %w", err)
		}
		defer func() {
			if cerr := idx.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close run index: %w", cerr)
			}
		}()
	}

	fmt.Printf("=== Headless Guard Report ===\n")
	fmt.Printf("runs=%d ticks=%d seed_base=%d seed_step=%d maze=%dx%d guards=%d\n\n",
		opt.runs, opt.ticks, opt.seedBase, opt.seedStep, cfg.Maze.Cols, cfg.Maze.Rows, cfg.Guards)

	all := make([]runStats, 0, opt.runs)
	for i := 0; i < opt.runs; i++ {
		seed := opt.seedBase + int64(i)*opt.seedStep
		sim, err := newRun(cfg, seed)
		if err != nil {
			return fmt.Errorf("run %d: %w", i+1, err)
		}
		sim.RunTicks(opt.ticks)
		rs := collect(i+1, uuid.NewString(), sim)
		if err := persist(ctx, rs, sim, opt.outDir, idx); err != nil {
			return fmt.Errorf("run %d: %w", i+1, err)
		}
		all = append(all, rs)
		printRun(rs, opt.verbose)
	}
	printAggregate(all)
	return nil
}

func newRun(cfg game.Config, seed int64) (*game.Sim, error) {
	return game.NewSim(
		game.WithConfig(cfg),
		game.WithSeed(seed),
		game.WithGeneratedMaze(),
	)
}

// collect turns a finished simulation into a report row.
func collect(runIndex int, runID string, sim *game.Sim) runStats {
	entries := sim.SimLog.Entries()
	st := sim.Stats()
	involved := map[string]struct{}{}
	for _, e := range entries {
		switch {
		case e.Category == "detect":
			involved[e.Guard] = struct{}{}
		case e.Category == "radio" && (e.Key == "spotted" || e.Key == "spotted_dir"):
			involved[e.Guard] = struct{}{}
		}
	}
	return runStats{
		runIndex:           runIndex,
		runID:              runID,
		seed:               sim.Seed(),
		ticks:              sim.CurrentTick(),
		guards:             len(sim.Guards),
		firstDetectionTick: st.FirstDetectionTick,
		firstPursueTick:    firstTick(entries, "state", "change", "-> pursue"),
		firstSearchTick:    firstTick(entries, "state", "change", "-> search"),
		firstCatchTick:     firstOf(sim.SimLog, "catch", ""),
		detections:         st.Detections,
		broadcasts:         st.Radio.Broadcasts,
		ignored:            st.Radio.Ignored,
		resets:             st.Radio.Resets,
		catches:            st.Catches,
		stateChanges:       sim.SimLog.CountCategory("state", "change"),
		routeChanges:       sim.SimLog.CountCategory("goal", "set"),
		contacts:           sim.SimLog.CountCategory("contact", ""),
		coverage:           sim.Coverage(),
		involved:           involved,
		summary:            sim.SimLog.Summary(sim.CurrentTick(), sim.Guards),
	}
}

// persist writes the run's event log and index row when enabled.
func persist(ctx context.Context, rs runStats, sim *game.Sim, outDir string, idx *rundb.Index) error {
	if outDir != "" {
		w, err := eventlog.Create(outDir, "run", rs.runID)
		if err != nil {
			return err
		}
		if err := w.WriteLog(sim.SimLog); err != nil {
			_ = w.Close()
			return err
		}
		if err := w.Close(); err != nil {
			return err
		}
	}
	if idx != nil {
		_, err := idx.RecordRun(ctx, rundb.Run{
			ID:                 rs.runID,
			Seed:               rs.seed,
			Ticks:              rs.ticks,
			Guards:             rs.guards,
			Detections:         rs.detections,
			Broadcasts:         rs.broadcasts,
			Catches:            rs.catches,
			Coverage:           rs.coverage,
			FirstDetectionTick: rs.firstDetectionTick,
		})
		if err != nil {
			return fmt.Errorf("record run %s: %w", rs.runID, err)
		}
	}
	return nil
}

// firstOf returns the tick of the first entry for category and key, or -1.
func firstOf(sl *game.SimLog, category, key string) int {
	if e, ok := sl.FirstOf(category, key); ok {
		return e.Tick
	}
	return -1
}

func firstTick(entries []game.SimLogEntry, category, key, contains string) int {
	for _, e := range entries {
		if e.Category != category || (key != "" && e.Key != key) {
			continue
		}
		if contains == "" || strings.Contains(e.Value, contains) {
			return e.Tick
		}
	}
	return -1
}

func printRun(rs runStats, verbose bool) {
	fmt.Printf("--- Run %d (seed=%d id=%s) ---\n", rs.runIndex, rs.seed, rs.runID)
	fmt.Printf("phase_markers: first_detection=%d first_pursue=%d first_search=%d first_catch=%d\n",
		rs.firstDetectionTick, rs.firstPursueTick, rs.firstSearchTick, rs.firstCatchTick)
	fmt.Printf("event_totals: detections=%d broadcasts=%d ignored=%d resets=%d catches=%d\n",
		rs.detections, rs.broadcasts, rs.ignored, rs.resets, rs.catches)
	fmt.Printf("movement: state_change=%d route_step=%d contacts=%d coverage=%.1f%%\n",
		rs.stateChanges, rs.routeChanges, rs.contacts, 100*rs.coverage)
	fmt.Printf("involved_guards: %s\n", joinSet(rs.involved))
	if verbose {
		fmt.Print(rs.summary)
	}
	fmt.Println()
}

func printAggregate(all []runStats) {
	var totalDetect, totalBroadcast, totalIgnored, totalCatch, totalState, totalContacts int
	var coverage float64
	detectTicks := make([]int, 0, len(all))
	catchTicks := make([]int, 0, len(all))
	involved := map[string]struct{}{}
	caught := 0

	for _, rs := range all {
		totalDetect += rs.detections
		totalBroadcast += rs.broadcasts
		totalIgnored += rs.ignored
		totalCatch += rs.catches
		totalState += rs.stateChanges
		totalContacts += rs.contacts
		coverage += rs.coverage
		if rs.firstDetectionTick >= 0 {
			detectTicks = append(detectTicks, rs.firstDetectionTick)
		}
		if rs.firstCatchTick >= 0 {
			catchTicks = append(catchTicks, rs.firstCatchTick)
			caught++
		}
		for label := range rs.involved {
			involved[label] = struct{}{}
		}
	}

	fmt.Println("=== Aggregate ===")
	fmt.Printf("runs=%d runs_with_catch=%d\n", len(all), caught)
	fmt.Printf("avg_events_per_run: detections=%.1f broadcasts=%.1f ignored=%.1f catches=%.1f state_change=%.1f contacts=%.1f\n",
		avg(totalDetect, len(all)), avg(totalBroadcast, len(all)), avg(totalIgnored, len(all)),
		avg(totalCatch, len(all)), avg(totalState, len(all)), avg(totalContacts, len(all)))
	fmt.Printf("phase_marker_avg_ticks: first_detection=%s first_catch=%s\n",
		avgTickString(detectTicks), avgTickString(catchTicks))
	if len(all) > 0 {
		fmt.Printf("avg_coverage=%.1f%%\n", 100*coverage/float64(len(all)))
	}
	fmt.Printf("involved_labels=%d [%s]\n", len(involved), joinSet(involved))
}

func avg(sum int, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func avgTickString(vals []int) string {
	if len(vals) == 0 {
		return "n/a"
	}
	sum := 0
	for _, v := range vals {
		sum += v
	}
	return fmt.Sprintf("%.1f", float64(sum)/float64(len(vals)))
}

func joinSet(s map[string]struct{}) string {
	if len(s) == 0 {
		return "none"
	}
	labels := make([]string, 0, len(s))
	for k := range s {
		labels = append(labels, k)
	}
	sort.Strings(labels)
	return strings.Join(labels, ",")
}

// Command selfplay plays engine-versus-engine games and reports the results.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"checkerboard/internal/game/checkerboard"
	"checkerboard/internal/logx"
	"checkerboard/internal/rules"
)

type config struct {
	Variants []string
	Games    int
	MaxPlies int
	Seed     uint64
	Parallel int
	Near     string
	Far      string
}

// tally aggregates the games of one variant.
type tally struct {
	Variant    string
	Games      int
	NearWins   int
	FarWins    int
	Draws      int
	Unfinished int
	Plies      int
	Elapsed    time.Duration
}

type result struct {
	outcome rules.Outcome
	plies   int
	elapsed time.Duration
}

func main() {
	var (
		variant  = flag.String("variant", "all", "comma separated variant names, or all")
		games    = flag.Int("games", 10, "games per variant")
		plies    = flag.Int("plies", 500, "ply cap per game (0 means none)")
		seed     = flag.Uint64("seed", uint64(time.Now().UnixNano()), "random seed")
		parallel = flag.Int("parallel", runtime.NumCPU(), "games played concurrently")
		near     = flag.String("near", "greedy", "near chooser (random, greedy)")
		far      = flag.String("far", "random", "far chooser (random, greedy)")
		logLevel = flag.String("log-level", "info", "log level")
	)
	flag.Parse()

	logger := logx.NewLogger(*logLevel)

	cfg := config{
		Games:    *games,
		MaxPlies: *plies,
		Seed:     *seed,
		Parallel: *parallel,
		Near:     *near,
		Far:      *far,
	}
	if *variant == "all" {
		cfg.Variants = checkerboard.Variants()
	} else {
		cfg.Variants = strings.Split(*variant, ",")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	tallies, err := run(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("selfplay")
	}
	report(os.Stdout, tallies, time.Since(start))
}

func newChooser(kind string, r rules.Rules, seed uint64) (rules.Chooser, error) {
	switch kind {
	case "random":
		return rules.NewRandomChooser(seed), nil
	case "greedy":
		return &rules.GreedyChooser{Rules: r}, nil
	}
	return nil, fmt.Errorf("unknown chooser %q", kind)
}

// run plays cfg.Games games of every variant, at most cfg.Parallel at a time.
// Each game owns its strategy and board.
func run(ctx context.Context, cfg config, log zerolog.Logger) ([]tally, error) {
	factories := make([]checkerboard.Factory, len(cfg.Variants))
	for i, name := range cfg.Variants {
		f, err := checkerboard.Lookup(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		factories[i] = f
	}

	results := make([][]result, len(factories))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Parallel, 1))
	for vi, factory := range factories {
		results[vi] = make([]result, cfg.Games)
		for gi := 0; gi < cfg.Games; gi++ {
			seed := cfg.Seed + uint64(vi*cfg.Games+gi)
			g.Go(func() error {
				res, err := playOne(ctx, cfg, factory, seed, log)
				if err != nil {
					return err
				}
				results[vi][gi] = res
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tallies := make([]tally, len(factories))
	for vi, rs := range results {
		t := tally{Variant: factories[vi]().Name(), Games: len(rs)}
		for _, r := range rs {
			switch r.outcome {
			case rules.NearWins:
				t.NearWins++
			case rules.FarWins:
				t.FarWins++
			case rules.Draw:
				t.Draws++
			default:
				t.Unfinished++
			}
			t.Plies += r.plies
			t.Elapsed += r.elapsed
		}
		tallies[vi] = t
	}
	return tallies, nil
}

func playOne(ctx context.Context, cfg config, factory checkerboard.Factory, seed uint64, log zerolog.Logger) (result, error) {
	r := factory()
	b := r.NewBoard()
	nearC, err := newChooser(cfg.Near, r, seed)
	if err != nil {
		return result{}, err
	}
	farC, err := newChooser(cfg.Far, r, seed^0xfeed)
	if err != nil {
		return result{}, err
	}
	d := rules.NewDriver(r, b, nearC, farC)
	d.Log = log.With().Uint64("seed", seed).Logger()

	start := time.Now()
	o, err := d.Run(ctx, cfg.MaxPlies)
	if err != nil && !errors.Is(err, rules.ErrGameOver) {
		return result{}, fmt.Errorf("%s seed %d: %w", r.Name(), seed, err)
	}
	res := result{outcome: o, plies: len(b.History), elapsed: time.Since(start)}
	log.Debug().
		Str("variant", r.Name()).
		Uint64("seed", seed).
		Stringer("outcome", o).
		Int("plies", res.plies).
		Msg("game finished")
	return res, nil
}

func report(w io.Writer, tallies []tally, wall time.Duration) {
	var games, plies int
	fmt.Fprintf(w, "%-14s %7s %7s %7s %7s %7s %10s %10s\n",
		"variant", "games", "near", "far", "draw", "open", "plies", "avg plies")
	for _, t := range tallies {
		avg := 0.0
		if t.Games > 0 {
			avg = float64(t.Plies) / float64(t.Games)
		}
		fmt.Fprintf(w, "%-14s %7s %7s %7s %7s %7s %10s %10s\n",
			t.Variant,
			humanize.Comma(int64(t.Games)),
			humanize.Comma(int64(t.NearWins)),
			humanize.Comma(int64(t.FarWins)),
			humanize.Comma(int64(t.Draws)),
			humanize.Comma(int64(t.Unfinished)),
			humanize.Comma(int64(t.Plies)),
			humanize.FtoaWithDigits(math.Round(avg*10)/10, 1))
		games += t.Games
		plies += t.Plies
	}
	rate := 0.0
	if wall > 0 {
		rate = float64(plies) / wall.Seconds()
	}
	fmt.Fprintf(w, "%s games, %s plies in %s (%s plies/s)\n",
		humanize.Comma(int64(games)),
		humanize.Comma(int64(plies)),
		wall.Round(time.Millisecond),
		humanize.FormatFloat("#,###.", rate))
}

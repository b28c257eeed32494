package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestRunTalliesEveryGame(t *testing.T) {
	cfg := config{
		Variants: []string{"checkers", "chess"},
		Games:    3,
		MaxPlies: 60,
		Seed:     7,
		Parallel: 4,
		Near:     "greedy",
		Far:      "random",
	}
	tallies, err := run(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(tallies) != 2 || tallies[0].Variant != "checkers" || tallies[1].Variant != "chess" {
		t.Fatalf("unexpected tallies %+v", tallies)
	}
	for _, tl := range tallies {
		if n := tl.NearWins + tl.FarWins + tl.Draws + tl.Unfinished; n != cfg.Games {
			t.Fatalf("%s: outcomes add up to %d, want %d", tl.Variant, n, cfg.Games)
		}
		if tl.Plies == 0 || tl.Plies > cfg.Games*cfg.MaxPlies {
			t.Fatalf("%s: implausible ply total %d", tl.Variant, tl.Plies)
		}
	}
}

func TestRunRejectsUnknownNames(t *testing.T) {
	base := config{Variants: []string{"checkers"}, Games: 1, MaxPlies: 10, Parallel: 1, Near: "random", Far: "random"}

	bad := base
	bad.Variants = []string{"backgammon"}
	if _, err := run(context.Background(), bad, zerolog.Nop()); err == nil {
		t.Fatal("expected an unknown variant error")
	}

	bad = base
	bad.Far = "minimax"
	if _, err := run(context.Background(), bad, zerolog.Nop()); err == nil || !strings.Contains(err.Error(), "chooser") {
		t.Fatalf("expected an unknown chooser error, got %v", err)
	}
}

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	report(&buf, []tally{
		{Variant: "russian", Games: 1200, NearWins: 700, FarWins: 400, Draws: 100, Plies: 54320},
	}, 2*time.Second)
	out := buf.String()
	for _, want := range []string{"russian", "1,200", "54,320", "45.3", "27,160 plies/s"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in report:\n%s", want, out)
		}
	}
}

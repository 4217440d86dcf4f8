package main

import (
	"flag"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/brefaltsimon/AI-MazeGame/internal/game"
	"github.com/brefaltsimon/AI-MazeGame/internal/tuning"
	"github.com/brefaltsimon/AI-MazeGame/internal/viewer"
)

func main() {
	var (
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: built-in tuning)")
		seed       = flag.Int64("seed", 1, "maze and guard RNG seed")
		verbose    = flag.Bool("v", false, "record per-tick movement in the run log")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[game] ", log.LstdFlags)

	tune := tuning.Default()
	if *tuningPath != "" {
		t, err := tuning.Load(*tuningPath)
		if err != nil {
			logger.Fatalf("load tuning: %v", err)
		}
		tune = t
	}

	g, err := viewer.New(
		game.WithConfig(tune.Config()),
		game.WithSeed(*seed),
		game.WithVerbose(*verbose),
		game.WithGeneratedMaze(),
	)
	if err != nil {
		logger.Fatalf("new game: %v", err)
	}

	w, h := g.Size()
	ebiten.SetWindowTitle("Maze Guards")
	ebiten.SetWindowSize(w, h)
	ebiten.SetTPS(int(tune.TickRateHz))
	if err := ebiten.RunGame(g); err != nil {
		logger.Fatal(err)
	}
}

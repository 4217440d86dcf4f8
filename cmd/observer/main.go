package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brefaltsimon/AI-MazeGame/internal/game"
	"github.com/brefaltsimon/AI-MazeGame/internal/transport/observer"
	"github.com/brefaltsimon/AI-MazeGame/internal/tuning"
)

func main() {
	var (
		addr       = flag.String("addr", "127.0.0.1:8080", "http listen address")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: built-in tuning)")
		seed       = flag.Int64("seed", 1, "maze and guard RNG seed")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[observer] ", log.LstdFlags|log.Lmicroseconds)

	tune := tuning.Default()
	if *tuningPath != "" {
		t, err := tuning.Load(*tuningPath)
		if err != nil {
			logger.Fatalf("load tuning: %v", err)
		}
		tune = t
	}

	sim, err := game.NewSim(
		game.WithConfig(tune.Config()),
		game.WithSeed(*seed),
		game.WithGeneratedMaze(),
	)
	if err != nil {
		logger.Fatalf("new sim: %v", err)
	}
	obs := observer.NewServer(sim, logger)

	ctx, cancel := signalContext()
	defer cancel()

	srv := &http.Server{
		Addr:              *addr,
		Handler:           obs.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := obs.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Printf("sim loop: %v", err)
		}
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s (seed %d, %dx%d maze)", *addr, *seed, sim.Grid.Cols, sim.Grid.Rows)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
	logger.Printf("stopped at tick %d, %d frames dropped", sim.CurrentTick(), obs.Dropped())
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

// Command maestro-demo is an offline REPL against the scripted generator.
// No Postgres, Qdrant, or API keys needed; sessions live in memory for the
// life of the process.
//
// Prefix a message with @ceo, @chro, or @rm to address a persona directly;
// otherwise the supervisor routes it. The Mentor only appears through the
// Director's stuck/frustration override.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/atelier-ai/maestro/internal/config"
	"github.com/atelier-ai/maestro/internal/engine"
	"github.com/atelier-ai/maestro/internal/latency"
	"github.com/atelier-ai/maestro/internal/model"
	"github.com/atelier-ai/maestro/internal/persona"
	"github.com/atelier-ai/maestro/internal/rescache"
	"github.com/atelier-ai/maestro/internal/safety"
)

var targetAliases = map[string]model.PersonaID{
	"@ceo":  model.PersonaCEO,
	"@chro": model.PersonaCHRO,
	"@rm":   model.PersonaRegionalManager,
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	gen := persona.NewScriptedGenerator()
	tracker := latency.NewTracker()
	eng := engine.New(engine.Options{
		Gate:       safety.NewGate(&cfg, logger),
		Classifier: engine.NewGeneratorClassifier(gen),
		Generator:  gen,
		Cache:      rescache.NewManager(cfg.CacheL1Size, cfg.CacheL2Size, cfg.RetrievalTTL),
		Tracker:    tracker,
		Logger:     logger,
	})

	sessionID := uuid.NewString()
	userID := "demo"
	ctx := context.Background()

	fmt.Println("maestro demo — scripted personas, in-memory session.")
	fmt.Println("Address personas with @ceo, @chro, or @rm. Ctrl-D to exit.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			continue
		}

		var target model.PersonaID
		if alias, rest, ok := strings.Cut(message, " "); ok {
			if id, found := targetAliases[strings.ToLower(alias)]; found {
				target = id
				message = strings.TrimSpace(rest)
			}
		}

		result, err := eng.HandleTurn(ctx, userID, sessionID, message, target)
		if err != nil {
			fmt.Fprintln(os.Stderr, "turn failed:", err)
			continue
		}

		label := string(result.Persona)
		if result.Blocked {
			label = fmt.Sprintf("blocked:%s", result.BlockedReason)
		}
		fmt.Printf("[%s] %s\n\n", label, result.Response)
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	fmt.Println()
	printStats(os.Stdout, tracker)
	return nil
}

func printStats(w io.Writer, tracker *latency.Tracker) {
	stats := tracker.Stats()
	total, ok := stats[latency.StageTotal]
	if !ok || total.Count == 0 {
		return
	}
	fmt.Fprintf(w, "turns: %d  avg: %.1fms  p95: %.1fms  max: %.1fms\n",
		total.Count, total.AvgMS, total.P95MS, total.MaxMS)
}

// cmd/tools/run-verification/main.go

// run-verification executes a single verification run end to end against an
// in-memory store and prints the resulting report as JSON. Useful for
// exercising rule changes without standing up Postgres.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"

	"refcheck/internal/common/config"
	"refcheck/internal/common/logger"
	"refcheck/internal/fraud"
	"refcheck/internal/models"
	"refcheck/internal/pipeline"
	"refcheck/internal/profile"
	"refcheck/internal/references"
	"refcheck/internal/report"
	"refcheck/internal/resume"
	"refcheck/internal/store"
)

func main() {
	resumePath := flag.String("resume", "", "Path to a parsed resume JSON file (required)")
	name := flag.String("name", "", "Candidate name (required)")
	handle := flag.String("handle", "", "Developer profile handle (optional)")
	seed := flag.Int64("seed", 0, "Reference generator seed (0 = time-based)")
	strict := flag.Bool("strict", false, "Tighten the employment-gap threshold")
	showEvents := flag.Bool("events", false, "Print the progress event trail")
	flag.Parse()

	if *resumePath == "" || *name == "" {
		flag.Usage()
		os.Exit(1)
	}

	raw, err := os.ReadFile(*resumePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading resume file: %v\n", err)
		os.Exit(1)
	}

	var parsed models.ParsedResume
	if err := json.Unmarshal(raw, &parsed); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing resume JSON: %v\n", err)
		os.Exit(1)
	}

	validator, err := resume.NewValidator()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building validator: %v\n", err)
		os.Exit(1)
	}
	if err := validator.Validate(&parsed); err != nil {
		fmt.Fprintf(os.Stderr, "Resume rejected: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	cfg.Fraud.StrictMode = cfg.Fraud.StrictMode || *strict

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	newGenerator := func() *references.Generator {
		return references.NewGenerator(
			rand.New(rand.NewSource(rngSeed)),
			references.WithPerEmployerRange(cfg.References.MinPerEmployer, cfg.References.MaxPerEmployer),
			references.WithResponseRate(cfg.References.ResponseRate),
		)
	}

	client := profile.NewClient(cfg.Profile.BaseURL, cfg.Profile.Token, cfg.Profile.Timeout())
	analyzer := profile.NewAnalyzer(client, &cfg.Profile, log)

	engine := fraud.NewEngine(&cfg.Fraud, log)
	narrative := report.NewNarrativeClient(&cfg.Narrative, log)
	synthesizer := report.NewSynthesizer(narrative, log)

	memStore := store.NewMemoryStore()
	pipe := pipeline.New(memStore, newGenerator, analyzer, engine, synthesizer, cfg.Pipeline, log, pipeline.Options{})

	record := &models.VerificationRecord{
		ID:            uuid.NewString(),
		CandidateName: *name,
		ProfileHandle: *handle,
		Status:        models.StatusPending,
		Resume:        &parsed,
		CreatedAt:     time.Now().UTC(),
	}

	ctx := context.Background()
	if err := memStore.InsertRecord(ctx, record); err != nil {
		fmt.Fprintf(os.Stderr, "Error inserting record: %v\n", err)
		os.Exit(1)
	}

	if err := pipe.Run(ctx, record); err != nil {
		fmt.Fprintf(os.Stderr, "Run failed: %v\n", err)
		os.Exit(1)
	}

	final, err := memStore.GetRecord(ctx, record.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading record: %v\n", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(final.Result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding report: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))

	if *showEvents {
		events, err := memStore.ListEvents(ctx, record.ID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing events: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "--- event trail ---")
		for _, ev := range events {
			fmt.Fprintf(os.Stderr, "%3d  %-22s %-8s %s\n", ev.Seq, ev.Stage, ev.Status, ev.Message)
		}
	}
}

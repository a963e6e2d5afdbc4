// Command district-batch resolves many addresses or sign photos at once and
// prints street;number;district lines.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"bezirk_scanner/internal/extraction"
	"bezirk_scanner/internal/lookup"
	"bezirk_scanner/internal/streets"
	"bezirk_scanner/platform/ai/gemini"
	"bezirk_scanner/platform/ai/moonshot"
	"bezirk_scanner/platform/config"
	"bezirk_scanner/platform/logger"

	"google.golang.org/adk/model"
)

func main() {
	addressesPath := flag.String("addresses", "", "file with street;number lines")
	imagesDir := flag.String("images", "", "directory of jpg/png sign photos")
	tablePath := flag.String("table", "", "optional street;district lookup table")
	skipHeader := flag.Bool("skip-header", false, "ignore the first line of the lookup table")
	flag.Parse()

	if (*addressesPath == "") == (*imagesDir == "") {
		fmt.Fprintln(os.Stderr, "exactly one of -addresses or -images is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.NewWithWriter(cfg.Env, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rules := streets.DefaultRules()
	if path := cfg.GetStreetRulesFile(); path != "" {
		if rules, err = streets.LoadRulesFile(path); err != nil {
			log.Error("failed to load street rules", "error", err)
			os.Exit(1)
		}
	}

	var table *lookup.Table
	if *tablePath != "" {
		table, err = loadTable(*tablePath, *skipHeader)
		if err != nil {
			log.Error("failed to load lookup table", "error", err)
			os.Exit(1)
		}
		log.Info("lookup table loaded", "entries", table.Len())
	}

	b := &batch{resolver: streets.NewResolver(rules), table: table, log: log}

	var rows []row
	if *addressesPath != "" {
		f, err := os.Open(*addressesPath)
		if err != nil {
			log.Error("failed to open addresses", "error", err)
			os.Exit(1)
		}
		rows, err = b.resolveAddresses(f)
		_ = f.Close()
		if err != nil {
			log.Error("failed to read addresses", "error", err)
			os.Exit(1)
		}
	} else {
		llm, err := newVisionModel(ctx, cfg)
		if err != nil {
			log.Error("failed to initialize vision model", "error", err)
			os.Exit(1)
		}
		b.extractor = extraction.NewClient(llm, cfg.GetVisionProvider(), log)
		if !b.extractor.Available() {
			log.Error("no API key configured", "provider", cfg.GetVisionProvider())
			os.Exit(1)
		}
		rows, err = b.resolveImages(ctx, *imagesDir)
		if err != nil {
			log.Error("failed to scan images", "error", err)
			os.Exit(1)
		}
	}

	w := bufio.NewWriter(os.Stdout)
	if err := writeRows(w, rows); err != nil {
		log.Error("failed to write output", "error", err)
		os.Exit(1)
	}
}

func loadTable(path string, skipHeader bool) (*lookup.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return lookup.Parse(f, lookup.SkipHeader(skipHeader))
}

func newVisionModel(ctx context.Context, cfg config.VisionConfig) (model.LLM, error) {
	if !cfg.HasVisionCredential() {
		return nil, nil
	}
	if cfg.GetVisionProvider() == config.ProviderMoonshot {
		return moonshot.NewModel(moonshot.Config{APIKey: cfg.GetMoonshotAPIKey(), Model: cfg.GetMoonshotModel()}), nil
	}
	return gemini.NewModel(ctx, gemini.Config{APIKey: cfg.GetGeminiAPIKey(), Model: cfg.GetGeminiModel()})
}

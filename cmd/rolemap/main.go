package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rolemap/internal/classify"
	"rolemap/internal/classify/gemini"
	"rolemap/internal/config"
	"rolemap/internal/taxonomy"
)

var (
	flagInput       string
	flagTaxonomy    string
	flagBatchSize   int
	flagCandidates  int
	flagConcurrency int
	flagRetries     int
	flagTimeout     time.Duration
	flagVerbose     bool
)

var rootCmd = &cobra.Command{
	Use:           "rolemap",
	Short:         "Map free-text job titles to occupation codes",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var mapCmd = &cobra.Command{
	Use:   "map [role ...]",
	Short: "Classify job titles against the occupation taxonomy",
	Long: `Classify job titles against the occupation taxonomy.

Roles come from positional arguments, from --input (one role per line),
or from stdin. Candidates are searched in Postgres (DATABASE_URL) unless
--taxonomy points at a JSON file with the occupation records.`,
	RunE: runMap,
}

func main() {
	mapCmd.Flags().StringVarP(&flagInput, "input", "i", "", "file with one role per line")
	mapCmd.Flags().StringVar(&flagTaxonomy, "taxonomy", "", "JSON taxonomy file (skips Postgres)")
	mapCmd.Flags().IntVar(&flagBatchSize, "batch-size", 0, "roles per classification call")
	mapCmd.Flags().IntVar(&flagCandidates, "candidates", 0, "candidates retrieved per role")
	mapCmd.Flags().IntVar(&flagConcurrency, "concurrency", 0, "concurrent classification calls")
	mapCmd.Flags().IntVar(&flagRetries, "retries", -1, "classification retries per batch")
	mapCmd.Flags().DurationVar(&flagTimeout, "timeout", 0, "per-call timeout")
	mapCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")
	rootCmd.AddCommand(mapCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "rolemap:", err)
		os.Exit(1)
	}
}

func runMap(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if flagBatchSize > 0 {
		cfg.BatchSize = flagBatchSize
	}
	if flagCandidates > 0 {
		cfg.CandidatesPerRole = flagCandidates
	}
	if flagConcurrency > 0 {
		cfg.Concurrency = flagConcurrency
	}
	if flagRetries >= 0 {
		cfg.Retries = flagRetries
	}
	if flagTimeout > 0 {
		cfg.Timeout = flagTimeout
	}

	log, err := newLogger(flagVerbose)
	if err != nil {
		return err
	}
	defer log.Sync()

	roles, err := readRoles(args)
	if err != nil {
		return err
	}
	if len(roles) == 0 {
		return fmt.Errorf("no roles given: pass arguments, --input, or pipe stdin")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	index, closeIndex, err := openIndex(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeIndex()

	agent, err := classify.New(index, gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel), classify.Config{
		BatchSize:            cfg.BatchSize,
		CandidatesPerRole:    cfg.CandidatesPerRole,
		RetrievalConcurrency: 2 * cfg.Concurrency,
		BatchConcurrency:     cfg.Concurrency,
		Retries:              cfg.Retries,
		Timeout:              cfg.Timeout,
	}, log)
	if err != nil {
		return err
	}

	results, err := agent.MapRoles(ctx, roles)
	if err != nil {
		return err
	}

	out := struct {
		RunID   string            `json:"run_id"`
		Model   string            `json:"model"`
		Results []classify.Result `json:"results"`
	}{
		RunID:   uuid.NewString(),
		Model:   cfg.GeminiModel,
		Results: results,
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	// Production config logs to stderr; stdout carries the JSON result.
	return zap.NewProduction()
}

func readRoles(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	var r *bufio.Scanner
	if flagInput != "" {
		f, err := os.Open(flagInput)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = bufio.NewScanner(f)
	} else {
		r = bufio.NewScanner(os.Stdin)
	}
	var roles []string
	for r.Scan() {
		if line := strings.TrimSpace(r.Text()); line != "" {
			roles = append(roles, line)
		}
	}
	return roles, r.Err()
}

func openIndex(ctx context.Context, cfg *config.Config, log *zap.Logger) (taxonomy.Index, func(), error) {
	if flagTaxonomy != "" {
		recs, err := taxonomy.LoadFile(flagTaxonomy)
		if err != nil {
			return nil, nil, err
		}
		log.Info("loaded taxonomy file", zap.Int("records", len(recs)))
		return taxonomy.NewMemoryIndex(recs), func() {}, nil
	}

	if cfg.DatabaseURL == "" {
		return nil, nil, fmt.Errorf("no taxonomy source: set DATABASE_URL (or POSTGRES_* vars) or pass --taxonomy")
	}
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("sql.Open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(1 * time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("db ping: %w", err)
	}
	log.Info("db connected")
	return taxonomy.NewPostgresIndex(db), func() { db.Close() }, nil
}

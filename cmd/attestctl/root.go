package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/attest-tracker/internal/common"
	"github.com/joseph-ayodele/attest-tracker/internal/export"
	"github.com/joseph-ayodele/attest-tracker/internal/extract"
	"github.com/joseph-ayodele/attest-tracker/internal/ingest"
	"github.com/joseph-ayodele/attest-tracker/internal/ocr"
	"github.com/joseph-ayodele/attest-tracker/internal/query"
	"github.com/joseph-ayodele/attest-tracker/internal/repository"
)

// app carries the wiring shared by every subcommand.
type app struct {
	out    io.Writer
	cfg    *common.Config
	logger *slog.Logger
	store  *repository.Store
	docs   repository.DocumentRepository
}

type rootOptions struct {
	dbURL    string
	logLevel string
	jsonLogs bool
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &rootOptions{}
	a := &app{out: out}

	cmd := &cobra.Command{
		Use:           "attestctl",
		Short:         "Ingest scanned attestations and query them by validity interval",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd, opts)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.store.Close()
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.dbURL, "db", "", "database URL (overrides DB_URL)")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides LOG_LEVEL)")
	pf.BoolVar(&opts.jsonLogs, "json-logs", false, "emit logs as JSON")

	cmd.AddCommand(
		newMigrateCmd(a),
		newIngestCmd(a),
		newQueryCmd(a),
		newExportCmd(a),
		newShowCmd(a),
	)
	return cmd
}

func (a *app) init(cmd *cobra.Command, opts *rootOptions) error {
	cfg := common.LoadConfig()
	if opts.dbURL != "" {
		cfg.Database.DSN = opts.dbURL
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = common.NewLogger(os.Stderr, cfg.LogLevel, opts.jsonLogs)
	slog.SetDefault(a.logger)

	store, err := repository.Open(cmd.Context(), repository.ConfigFrom(cfg.Database), a.logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	a.store = store
	a.docs = repository.NewDocumentRepository(store, a.logger)
	return nil
}

func (a *app) ingestor() (*ingest.Usecase, error) {
	engine, err := extract.NewEngine(a.logger, extract.WithRegionEnd(a.cfg.Extract.TableEndMarkers...))
	if err != nil {
		return nil, err
	}
	text := ocr.NewExtractor(ocr.Config{
		TesseractLang: a.cfg.OCR.Lang,
		DPI:           a.cfg.OCR.DPI,
		MaxPages:      a.cfg.OCR.MaxPages,
		TessdataDir:   a.cfg.OCR.TessdataDir,
	}, a.logger)
	return ingest.NewUsecase(a.docs, text, engine, a.logger), nil
}

func (a *app) queries() *query.Service {
	return query.NewService(a.docs, a.logger, nil)
}

func (a *app) exporter() *export.Service {
	return export.NewService(a.queries(), a.docs, a.logger)
}

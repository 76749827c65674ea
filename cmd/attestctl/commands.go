package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/attest-tracker/internal/common"
	"github.com/joseph-ayodele/attest-tracker/internal/entity"
	"github.com/joseph-ayodele/attest-tracker/internal/ingest"
	"github.com/joseph-ayodele/attest-tracker/internal/query"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.store.Migrate(cmd.Context()); err != nil {
				return err
			}
			v, dirty, err := a.store.MigrationVersion(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "schema version %d (dirty=%t)\n", v, dirty)
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back migrations (default 1 step)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return common.NewAppError("VALIDATION_ERROR", "steps must be an integer", common.ErrInvalidInput)
				}
				steps = n
			}
			if err := common.NewValidator().Field("steps", steps, common.Positive).Error(); err != nil {
				return err
			}
			return a.store.Rollback(cmd.Context(), steps)
		},
	})
	return cmd
}

func newIngestCmd(a *app) *cobra.Command {
	var skipHidden bool
	cmd := &cobra.Command{
		Use:   "ingest <file-or-dir>...",
		Short: "OCR and ingest documents; duplicates are reported, not stored",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.ingestor()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SOURCE\tOUTCOME\tDOCUMENT\tSTART\tEND\tITEMS\tMESSAGE")

			var failed int
			for _, p := range args {
				fi, err := os.Stat(p)
				if err != nil {
					return common.WrapError(err, "stat "+p)
				}
				var results []ingest.Result
				if fi.IsDir() {
					rs, stats, err := u.IngestDirectory(cmd.Context(), p, skipHidden)
					if err != nil {
						return err
					}
					results = rs
					a.logger.Info("directory ingested", "root", p,
						"matched", stats.Matched, "succeeded", stats.Succeeded,
						"deduplicated", stats.Deduplicated, "failed", stats.Failed)
				} else {
					r, err := u.IngestPath(cmd.Context(), p)
					if err != nil {
						r.Err = err.Error()
					}
					results = append(results, r)
				}
				for _, r := range results {
					if r.Err != "" {
						failed++
					}
					writeResult(tw, r)
				}
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d document(s) failed", failed)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipHidden, "skip-hidden", true, "skip dot files and directories")
	return cmd
}

func writeResult(tw *tabwriter.Writer, r ingest.Result) {
	msg := r.Outcome.Message()
	if r.Err != "" {
		msg = r.Err
	}
	id := ""
	if r.DocumentID != uuid.Nil {
		id = r.DocumentID.String()
	}
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
		r.SourceName, r.Outcome, id, dateOrDash(r.Interval.Start), dateOrDash(r.Interval.End), r.LineItems, msg)
}

func newQueryCmd(a *app) *cobra.Command {
	var from, to, on string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "query",
		Short: "List documents valid during [--from, --to] or on --on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, end, err := parseRange(from, to, on)
			if err != nil {
				return err
			}
			res, err := a.queries().Run(cmd.Context(), start, end)
			if err != nil {
				return err
			}
			if asJSON {
				return json.NewEncoder(a.out).Encode(struct {
					State     string            `json:"state"`
					From      entity.Date       `json:"from"`
					To        entity.Date       `json:"to"`
					Documents []entity.Document `json:"documents"`
				}{res.State.String(), res.Range.Start, res.Range.End, nonNil(res.Documents)})
			}
			if res.State == query.NoResults {
				fmt.Fprintf(a.out, "no documents valid between %s and %s\n", res.Range.Start, res.Range.End)
				return nil
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DOCUMENT\tSOURCE\tSTART\tEND")
			for _, d := range res.Documents {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.ID, d.SourceName, dateOrDash(d.StartDate), dateOrDash(d.EndDate))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "range start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "range end (YYYY-MM-DD)")
	cmd.Flags().StringVar(&on, "on", "", "single day (YYYY-MM-DD); same as --from D --to D")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var from, to, on, outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write an XLSX workbook of documents valid during the range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, end, err := parseRange(from, to, on)
			if err != nil {
				return err
			}
			b, err := a.exporter().ExportOverlappingXLSX(cmd.Context(), start, end)
			if err != nil {
				return err
			}
			if err := os.WriteFile(outPath, b, 0o644); err != nil {
				return common.WrapError(err, "write "+outPath)
			}
			fmt.Fprintf(a.out, "wrote %s (%d bytes)\n", outPath, len(b))
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "range start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "range end (YYYY-MM-DD)")
	cmd.Flags().StringVar(&on, "on", "", "single day (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "attestations.xlsx", "output file")
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "show [document-id]",
		Short: "List stored documents, or show one with its line items and pairs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if len(args) == 0 {
				docs, err := a.docs.List(ctx, limit, offset)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "DOCUMENT\tSOURCE\tSTART\tEND\tCREATED")
				for _, d := range docs {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", d.ID, d.SourceName,
						dateOrDash(d.StartDate), dateOrDash(d.EndDate), d.CreatedAt.Format("2006-01-02 15:04"))
				}
				return tw.Flush()
			}

			v := common.NewValidator().Field("document-id", args[0], common.Required, common.UUID)
			if err := v.Error(); err != nil {
				return err
			}
			id := uuid.MustParse(args[0])
			doc, err := a.docs.GetByID(ctx, id)
			if err != nil {
				return err
			}
			items, err := a.docs.ListLineItems(ctx, id)
			if err != nil {
				return err
			}
			pairs, err := a.docs.ListPairs(ctx, id)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(a.out)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				*entity.Document
				Fingerprint string                  `json:"fingerprint"`
				LineItems   []entity.LineItem       `json:"line_items"`
				Pairs       []entity.LabelValuePair `json:"pairs"`
			}{doc, doc.FingerprintHex(), nonNil(items), nonNil(pairs)})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum documents to list")
	cmd.Flags().IntVar(&offset, "offset", 0, "documents to skip")
	return cmd
}

// parseRange validates the date flags and returns the closed range they describe.
func parseRange(from, to, on string) (entity.Date, entity.Date, error) {
	if on != "" {
		from, to = on, on
	}
	v := common.NewValidator().
		Field("from", from, common.Required, common.DateLayout(entity.DateLayout)).
		Field("to", to, common.Required, common.DateLayout(entity.DateLayout))
	if err := v.Error(); err != nil {
		return entity.Date{}, entity.Date{}, err
	}
	start, err := entity.ParseDate(from)
	if err != nil {
		return entity.Date{}, entity.Date{}, err
	}
	end, err := entity.ParseDate(to)
	if err != nil {
		return entity.Date{}, entity.Date{}, err
	}
	return start, end, nil
}

func dateOrDash(d *entity.Date) string {
	if d == nil {
		return "-"
	}
	return d.String()
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

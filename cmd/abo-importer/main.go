// Command abo-importer imports ABO bank-statement files into the Pohoda
// ledger, at most once per transaction, and prints a machine-readable report
// of what happened.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Spoje-NET/pohoda-abo-importer/internal/abo"
	"github.com/Spoje-NET/pohoda-abo-importer/internal/batch"
	"github.com/Spoje-NET/pohoda-abo-importer/internal/config"
	"github.com/Spoje-NET/pohoda-abo-importer/internal/dedup"
	"github.com/Spoje-NET/pohoda-abo-importer/internal/importer"
	"github.com/Spoje-NET/pohoda-abo-importer/internal/ledger"
	"github.com/Spoje-NET/pohoda-abo-importer/internal/logger"
	"github.com/Spoje-NET/pohoda-abo-importer/internal/mapper"
	"github.com/Spoje-NET/pohoda-abo-importer/internal/report"
)

var errImportFailed = errors.New("import finished with errors")

var (
	outputPath string
	envFile    string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "abo-importer [flags] <statement> [statement...]",
	Short: "Import ABO bank statements into the Pohoda ledger",
	Long: `abo-importer reads bank statements in the ABO (GPC) format and records
each transaction in the ledger at most once. Already-imported transactions are
detected through an identity embedded in the movement's internal note and
skipped. The result is written as a JSON report.

Arguments may be file paths or glob patterns; their order is preserved.`,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "-",
		"Report destination: a file path, or - for stdout")
	rootCmd.Flags().StringVarP(&envFile, "environment", "e", "",
		"Path to the YAML environment file")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	if verbose {
		cfg.Verbose = true
	}

	log := logger.New(cfg.Verbose).With().
		Str("run_id", uuid.NewString()).
		Str("job_id", cfg.JobID).
		Logger()
	ctx := logger.WithContext(cmd.Context(), log)

	paths := expandPatterns(args)
	log.Debug().Strs("paths", paths).Msg("Resolved input paths")

	store, err := ledger.NewFileStore(cfg.LedgerStore)
	if err != nil {
		return err
	}

	m := mapper.New(mapper.Config{
		ApplicationName:    cfg.ApplicationName,
		ApplicationVersion: cfg.ApplicationVersion,
		JobID:              cfg.JobID,
		DefaultBankCode:    cfg.DefaultBankCode,
		AccountCode:        cfg.AccountCode,
	})
	engine := importer.NewEngine(abo.NewParser(), store, dedup.NewChecker(store.ReadOnly()), m)

	var doc *report.Document
	var status importer.Status
	if len(paths) == 1 {
		res := engine.ImportFile(ctx, paths[0])
		doc = report.FromImportResult(res)
		status = res.Status
	} else {
		res := batch.Run(ctx, engine, paths)
		doc = report.FromBatchResult(res)
		status = res.Status
	}

	if err := report.Write(doc, outputPath); err != nil {
		// The exit status reflects the import, not the report sink.
		log.Error().Err(err).Str("output", outputPath).Msg("Failed to write report")
	}

	if status == importer.StatusError {
		return errImportFailed
	}
	return nil
}

// expandPatterns resolves glob arguments while preserving the supplied
// argument order. An argument that matches nothing is kept literally so it
// surfaces in the result as a missing file.
func expandPatterns(args []string) []string {
	var paths []string
	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[") {
			paths = append(paths, arg)
			continue
		}
		matches, err := filepath.Glob(arg)
		if err != nil || len(matches) == 0 {
			paths = append(paths, arg)
			continue
		}
		paths = append(paths, matches...)
	}
	return paths
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errImportFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

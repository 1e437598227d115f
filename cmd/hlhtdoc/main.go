package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/MuZiBin2312/Neusoft-HLHT-2025/pkg/archive"
	"github.com/MuZiBin2312/Neusoft-HLHT-2025/pkg/audit"
	"github.com/MuZiBin2312/Neusoft-HLHT-2025/pkg/config"
	"github.com/MuZiBin2312/Neusoft-HLHT-2025/pkg/identity"
	"github.com/MuZiBin2312/Neusoft-HLHT-2025/pkg/index"
	"github.com/MuZiBin2312/Neusoft-HLHT-2025/pkg/roster"
	"github.com/MuZiBin2312/Neusoft-HLHT-2025/pkg/scan"
	"github.com/MuZiBin2312/Neusoft-HLHT-2025/pkg/validation"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "hlhtdoc",
		Short: "Clinical document organizer",
		Long: `hlhtdoc classifies a tree of clinical XML documents against a patient
roster and materializes three derived views:

  1.full        complete per-patient, per-category archive
  2.sample      bounded sample (a cap of documents per patient and category)
  3.validation  category-pooled corpus split into balanced batches

A companion audit reconciles the roster against the archive and reports
missing and extra patients with their source row numbers.`,
		Version: version,
	}

	rootCmd.AddCommand(organizeCmd())
	rootCmd.AddCommand(auditCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the optional config file and applies flag overrides on
// top of it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	if rosterPath, _ := cmd.Flags().GetString("roster"); rosterPath != "" {
		cfg.Roster.Path = rosterPath
	}
	if sheet, _ := cmd.Flags().GetString("sheet"); sheet != "" {
		cfg.Roster.Sheet = sheet
	}
	if cmd.Flags().Changed("sample-cap") {
		cfg.Archive.SampleCap, _ = cmd.Flags().GetInt("sample-cap")
	}
	if cmd.Flags().Changed("batch-max") {
		cfg.Archive.BatchMax, _ = cmd.Flags().GetInt("batch-max")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	logConfig := zap.NewProductionConfig()
	if verbose {
		logConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return logConfig.Build()
}

func organizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "organize",
		Short: "Classify documents and build the archive, sample, and validation views",
		Long: `Run the full pipeline: load the roster, enumerate the source tree,
resolve every document's category and patient identity, then materialize the
full archive, the bounded sample, and the balanced validation corpus.

Example:
  hlhtdoc organize --roster 患者列表.xlsx --src ./文档下载 --dst ./文档整理 --audit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, _ := cmd.Flags().GetString("src")
			dst, _ := cmd.Flags().GetString("dst")
			runAudit, _ := cmd.Flags().GetBool("audit")
			verbose, _ := cmd.Flags().GetBool("verbose")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Roster.Path == "" {
				return fmt.Errorf("--roster flag is required")
			}
			if src == "" {
				return fmt.Errorf("--src flag is required")
			}
			if dst == "" {
				return fmt.Errorf("--dst flag is required")
			}
			if _, err := os.Stat(src); os.IsNotExist(err) {
				return fmt.Errorf("source directory not found: %s", src)
			}

			logger, err := newLogger(verbose)
			if err != nil {
				return fmt.Errorf("failed to set up logging: %w", err)
			}
			defer logger.Sync()

			startTime := time.Now()
			fmt.Printf("Organizing documents from: %s\n", src)

			// Step 1: Roster
			fmt.Print("  1. Loading roster... ")
			patientRoster, err := roster.Load(cfg.Roster.Path, cfg.RosterOptions())
			if err != nil {
				return err
			}
			fmt.Printf("done (%d rows, %d names)\n", patientRoster.Len(), patientRoster.Names())
			for _, shadowed := range patientRoster.Shadowed() {
				fmt.Printf("     warning: duplicate name %s on row %d shadowed by a later row\n",
					shadowed.Name, shadowed.Row)
			}

			// Step 2: Source enumeration
			fmt.Print("  2. Indexing source tree... ")
			files, err := scan.Walk(src, scan.Options{
				Extensions: cfg.Scan.Extensions,
				Patterns:   cfg.Scan.Patterns,
			})
			if err != nil {
				return err
			}
			fmt.Printf("done (%d candidate files)\n", len(files))

			// Step 3: Reconciliation index
			fmt.Print("  3. Resolving document identities... ")
			resolver := identity.NewResolver(patientRoster, cfg.ResolverConfig(), logger)
			idx := index.NewBuilder(resolver, logger).Build(files)
			fmt.Printf("done (%d resolved, %d skipped, %d patients)\n",
				idx.Inserted(), len(idx.Skipped()), idx.Patients())
			for _, skipped := range idx.Skipped() {
				fmt.Printf("     skipped: %s (%s)\n", skipped.Ref.Name, skipped.Reason)
			}

			writer := archive.NewWriter(dst)

			// Step 4: Full archive
			fmt.Print("  4. Building full archive... ")
			fullCount, err := writer.BuildFull(idx)
			if err != nil {
				return err
			}
			fmt.Printf("done (%d files)\n", fullCount)

			// Step 5: Bounded sample
			fmt.Printf("  5. Building bounded sample (cap %d)... ", cfg.Archive.SampleCap)
			sampleCount, err := writer.BuildSample(idx, cfg.Archive.SampleCap)
			if err != nil {
				return err
			}
			fmt.Printf("done (%d files)\n", sampleCount)

			// Step 6: Validation corpus
			fmt.Printf("  6. Partitioning validation corpus (batch max %d)... ", cfg.Archive.BatchMax)
			summaries, err := validation.Partition(dst, cfg.Archive.BatchMax)
			if err != nil {
				return err
			}
			fmt.Println("done")
			for _, s := range summaries {
				if s.Batches > 1 {
					fmt.Printf("     %s: %d files in %d batches\n", s.Category, s.Files, s.Batches)
				} else {
					fmt.Printf("     %s: %d files\n", s.Category, s.Files)
				}
			}

			// Step 7: Optional audit
			if runAudit {
				fmt.Println("  7. Auditing roster against archive...")
				archived, err := archive.PatientIDs(dst)
				if err != nil {
					return err
				}
				audit.Reconcile(patientRoster, archived).Print(os.Stdout)
			}

			fmt.Printf("\nCompleted in %s: %d archived, %d sampled, %d skipped\n",
				time.Since(startTime).Round(time.Millisecond),
				fullCount, sampleCount, len(idx.Skipped()))
			return nil
		},
	}

	cmd.Flags().String("roster", "", "Path to the patient roster (.xlsx or .csv)")
	cmd.Flags().String("sheet", "", "Roster worksheet name (default: first sheet)")
	cmd.Flags().String("src", "", "Source directory tree to scan")
	cmd.Flags().String("dst", "", "Destination directory for the derived views")
	cmd.Flags().String("config", "", "Optional YAML config file")
	cmd.Flags().Int("sample-cap", archive.DefaultSampleCap, "Max documents per patient and category in the sample")
	cmd.Flags().Int("batch-max", validation.DefaultBatchMax, "Max files per validation batch")
	cmd.Flags().Bool("audit", false, "Run the roster audit after the pipeline")
	cmd.Flags().Bool("verbose", false, "Enable per-document diagnostics")

	return cmd
}

func auditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Reconcile the roster against an existing archive",
		Long: `Compare the roster's patient identifiers with the identifiers present in
an existing 1.full archive. Missing identifiers are reported with the roster
row numbers that reference them; identifiers present only in the archive are
listed separately.

Example:
  hlhtdoc audit --roster 患者列表.xlsx --dst ./文档整理`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dst, _ := cmd.Flags().GetString("dst")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Roster.Path == "" {
				return fmt.Errorf("--roster flag is required")
			}
			if dst == "" {
				return fmt.Errorf("--dst flag is required")
			}

			patientRoster, err := roster.Load(cfg.Roster.Path, cfg.RosterOptions())
			if err != nil {
				return err
			}
			archived, err := archive.PatientIDs(dst)
			if err != nil {
				return err
			}

			report := audit.Reconcile(patientRoster, archived)
			report.Print(os.Stdout)
			if report.Clean() {
				fmt.Println("\nRoster and archive agree.")
			}
			return nil
		},
	}

	cmd.Flags().String("roster", "", "Path to the patient roster (.xlsx or .csv)")
	cmd.Flags().String("sheet", "", "Roster worksheet name (default: first sheet)")
	cmd.Flags().String("dst", "", "Destination directory holding the 1.full archive")
	cmd.Flags().String("config", "", "Optional YAML config file")

	return cmd
}

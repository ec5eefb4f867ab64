package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/TobiSchelling/secat/internal/config"
	"github.com/TobiSchelling/secat/internal/database"
	"github.com/TobiSchelling/secat/internal/ingest"
	"github.com/TobiSchelling/secat/internal/pipeline"
	"github.com/TobiSchelling/secat/internal/report"
	"github.com/TobiSchelling/secat/internal/sec"
	"github.com/TobiSchelling/secat/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		var cfgErr *sec.ConfigurationError
		var inErr *sec.InputError
		switch {
		case errors.As(err, &cfgErr):
			fmt.Fprintln(os.Stderr, "Configuration error:", cfgErr.Error())
		case errors.As(err, &inErr):
			fmt.Fprintln(os.Stderr, "Input error:", inErr.Error())
		default:
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "secat",
	Short:   "Score protein interactions from SEC co-elution profiles",
	Long:    "secat scores candidate bait/prey pairs by how well their peptide intensity profiles co-elute across size-exclusion chromatography fractions.",
	Version: version,
	// main prints errors so typed failures get a clean message
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		log.SetLevel(cfg.LogLevel())
		if verbose {
			log.SetLevel(log.DebugLevel)
			log.SetReportCaller(true)
		}
		if cfg.Logging.Format == "json" {
			log.SetFormatter(&log.JSONFormatter{})
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(monomerCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("secat", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/secat/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to tune the scoring parameters.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and latest run status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Database: %s\n\n", db.Path())
		fmt.Println("Inputs:")
		fmt.Printf("  Proteins: %d\n", stats.Proteins)
		fmt.Printf("  Runs: %d\n", stats.Runs)
		fmt.Printf("  Fractions: %d\n", stats.Fractions)
		fmt.Printf("  Peptides: %d\n", stats.Peptides)
		fmt.Printf("  Intensities: %d\n", stats.Quantifications)
		fmt.Printf("  Queries: %d (%d decoys)\n", stats.Queries, stats.Decoys)
		fmt.Println("\nOutput:")
		fmt.Printf("  Monomer thresholds: %d\n", stats.MonomerThresholds)
		fmt.Printf("  Score records: %d (%d scored)\n", stats.Scores, stats.ScoredGroups)
		fmt.Printf("  Scoring runs: %d\n", stats.ScoreRuns)

		latest, err := db.GetLatestScoreRun()
		if err != nil {
			return err
		}
		if latest != nil {
			generated := ""
			if latest.GeneratedAt != nil {
				generated = *latest.GeneratedAt
			}
			fmt.Printf("\nLatest run [%d] %s: %d groups, %d scored, %d insufficient, %d failed in %dms\n",
				latest.ID, generated, latest.GroupCount, latest.ScoredCount,
				latest.InsufficientCount, latest.FailedCount, latest.DurationMS)
		}
		return nil
	},
}

// --- import command ---

var importFiles ingest.Files

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import tab-separated input tables into the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		if importFiles == (ingest.Files{}) {
			return fmt.Errorf("nothing to import; pass at least one of --proteins, --sec, --quantification, --queries")
		}
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		fmt.Println("Importing input tables...")
		result, err := ingest.NewImporter(db).Import(importFiles)
		if err != nil {
			return err
		}

		fmt.Println("\nImport complete:")
		fmt.Printf("  Proteins: %d\n", result.Proteins)
		fmt.Printf("  Fractions: %d\n", result.Fractions)
		fmt.Printf("  Intensities: %d (%d missing skipped)\n", result.Quantifications, result.Missing)
		fmt.Printf("  Queries: %d\n", result.Queries)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importFiles.Proteins, "proteins", "", "Protein table (protein_id, protein_mw)")
	importCmd.Flags().StringVar(&importFiles.Sec, "sec", "", "SEC table (run_id, sec_id, sec_mw, condition_id, replicate_id)")
	importCmd.Flags().StringVar(&importFiles.Quantification, "quantification", "", "Peptide intensity table (run_id, protein_id, peptide_id, peptide_intensity)")
	importCmd.Flags().StringVar(&importFiles.Queries, "queries", "", "Query table (bait_id, prey_id, decoy)")
}

// --- monomer command ---

var monomerCmd = &cobra.Command{
	Use:   "monomer",
	Short: "Estimate and store monomer thresholds",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		step := pipeline.New(cfg, db).Monomer()
		if step.Err != nil {
			return step.Err
		}
		fmt.Println(step.Summary)
		return nil
	},
}

// --- score command ---

var dryRun bool

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Run the scoring engine: monomer -> filter -> enumerate -> score -> store",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		pipe := pipeline.New(cfg, db)

		var result *pipeline.Result
		if dryRun {
			result = pipe.DryRun()
		} else {
			result = pipe.Run()
		}

		for i, step := range result.Steps {
			fmt.Printf("\nStep %d/%d: %s\n", i+1, len(result.Steps), step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}

		if failed := result.Failed(); failed != nil {
			return fmt.Errorf("%s step failed: %w", failed.Name, failed.Err)
		}
		if !dryRun {
			fmt.Println("\nScoring complete! Run 'secat report' or 'secat serve' to view the results.")
		}
		return nil
	},
}

func init() {
	scoreCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without executing")
}

// --- report command ---

var (
	reportHTML   bool
	reportTop    int
	reportOutput string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print a summary of the latest scoring run",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		text, err := report.NewComposer(db, reportTop).Compose()
		if err != nil {
			return err
		}
		if reportHTML {
			if text, err = report.RenderHTML(text); err != nil {
				return err
			}
		}

		if reportOutput == "" {
			fmt.Print(text)
			return nil
		}
		if err := os.WriteFile(reportOutput, []byte(text), 0o644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		fmt.Printf("Report written to %s\n", reportOutput)
		return nil
	},
}

func init() {
	reportCmd.Flags().BoolVar(&reportHTML, "html", false, "Render the report as HTML")
	reportCmd.Flags().IntVarP(&reportTop, "top", "n", 20, "Number of top interactions to list")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "Write the report to a file instead of stdout")
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to run server on")
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return database.Open(cfg.DatabasePath())
}

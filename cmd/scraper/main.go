// Command scraper collects the channel table, either headless or behind the
// control API.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aluiziolira/go-scrape-channels/config"
	"github.com/aluiziolira/go-scrape-channels/logging"
	"github.com/aluiziolira/go-scrape-channels/models"
	"github.com/aluiziolira/go-scrape-channels/pipeline"
	"github.com/aluiziolira/go-scrape-channels/scraper"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type app struct {
	v   *viper.Viper
	cfg *config.Config
	log zerolog.Logger
}

func main() {
	if err := newRootCmd(&app{v: viper.New()}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	d := config.DefaultConfig()

	root := &cobra.Command{
		Use:           "scraper",
		Short:         "Collect the Twitch channel table page by page",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(""); err != nil {
				return err
			}
			cfg, err := config.Load(a.v)
			if err != nil {
				return err
			}
			a.cfg = cfg

			logCfg := logging.DefaultConfig()
			logCfg.Level = cfg.LogLevel
			logCfg.Pretty = cfg.LogPretty
			logCfg.File = cfg.LogFile
			a.log = logging.Setup(logCfg).With().Str("component", "main").Logger()
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.String(config.KeyConfigFile, "", "Config file (yaml, json or toml)")
	flags.String(config.KeySiteURL, d.SiteURL, "Site root visited once for cookies")
	flags.String(config.KeyAPIBase, d.APIBase, "Table API base URL")
	flags.String(config.KeySortPath, d.SortPath, "Sort path segment between base and offset")
	flags.String(config.KeyRecordKey, d.RecordKey, "Envelope key holding the records")
	flags.Int(config.KeyTotalEntries, d.TotalEntries, "Entries to request in total")
	flags.Int(config.KeyPageSize, d.PageSize, "Entries per page")
	flags.Duration(config.KeyDelay, d.Delay, "Minimum pause between requests")
	flags.Duration(config.KeyRandomDelay, d.RandomDelay, "Random jitter added to the pause")
	flags.Duration(config.KeyTimeout, d.Timeout, "Per-request timeout")
	flags.String(config.KeyUserAgent, d.UserAgent, "User-Agent header")
	flags.String(config.KeyOutputDir, d.OutputDir, "Directory for CSV exports")
	flags.String(config.KeyOutputFormat, d.OutputFormat, "Output format: csv, or dual to add a JSON lines copy")
	flags.String(config.KeyListenAddr, d.ListenAddr, "HTTP listen address")
	flags.Int(config.KeyCacheSize, d.CacheSize, "Snapshot payloads kept in the response cache")
	flags.String(config.KeyLogLevel, d.LogLevel, "Log level: debug, info, warn, error")
	flags.Bool(config.KeyLogPretty, d.LogPretty, "Human-readable console logs")
	flags.String(config.KeyLogFile, d.LogFile, "Also write JSON logs to this rotated file")
	if err := a.v.BindPFlags(flags); err != nil {
		panic(err)
	}

	root.AddCommand(newServeCmd(a), newRunCmd(a))
	return root
}

// build wires one store, exporter, driver and controller for the process.
func (a *app) build() (*scraper.Controller, *scraper.Driver) {
	store := pipeline.NewStore()
	exporter := pipeline.NewExporter(store, a.cfg.OutputDir, a.cfg.OutputFormat)
	driver := scraper.NewDriver(a.cfg, store, exporter)
	return scraper.NewController(store, exporter, driver), driver
}

func printSummary(result *models.RunResult, err error) {
	separator := strings.Repeat("-", 50)
	fmt.Println("\n" + separator)
	if err != nil {
		fmt.Printf("Scrape failed: %v\n", err)
	} else {
		fmt.Println("Scrape complete")
	}
	if result == nil {
		fmt.Println(separator)
		return
	}

	duration := result.EndTime.Sub(result.StartTime)
	perSec := 0.0
	if duration.Seconds() > 0 {
		perSec = float64(result.TotalCount) / duration.Seconds()
	}
	successRate := 0.0
	pages := result.PageCount + result.ErrorCount
	if pages > 0 {
		successRate = float64(result.PageCount) / float64(pages) * 100
	}

	fmt.Printf("  Run ID:        %s\n", result.RunID)
	fmt.Printf("  Total rows:    %d\n", result.TotalCount)
	fmt.Printf("  Pages:         %d\n", result.PageCount)
	fmt.Printf("  Success rate:  %.2f%%\n", successRate)
	fmt.Printf("  Errors:        %d\n", result.ErrorCount)
	if len(result.FailedOffsets) > 0 {
		fmt.Printf("  Failed pages:  %v\n", result.FailedOffsets)
	}
	if len(result.ErrorsByType) > 0 {
		fmt.Printf("  Error types:   %v\n", result.ErrorsByType)
	}
	fmt.Printf("  Duration:      %v\n", duration.Round(time.Millisecond))
	fmt.Printf("  Rows/sec:      %.2f\n", perSec)
	if result.OutputFile != "" {
		fmt.Printf("  Output file:   %s\n", result.OutputFile)
	}
	fmt.Println(separator)
}

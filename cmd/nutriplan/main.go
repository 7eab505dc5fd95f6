// nutriplan computes daily nutrition targets and builds sectioned diet
// plans, either from the command line or as an HTTP API.
//
// Usage:
//
//	nutriplan targets --age 30 --sex male --height 180 --weight 80
//	nutriplan plan --profile me.yaml --out plans/
//	nutriplan serve [--with-stub]
package main

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hammamikhairi/nutriplan/internal/config"
	"github.com/hammamikhairi/nutriplan/internal/display"
	"github.com/hammamikhairi/nutriplan/internal/logger"
)

var (
	// Global flags
	cfgPath string
	verbose bool
	quiet   bool
	logFile string

	cfg     *config.Config
	log     *logger.Logger
	logSink io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "nutriplan",
	Short: "Nutrition targets and personalised diet plans",
	Long: `nutriplan computes BMR, TDEE, calorie, macro and water targets from a
profile and asks the plan service for a full diet plan, falling back to a
built-in plan when the service is unavailable.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		log, err = setupLogger(cfg)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logSink != nil {
			logSink.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose/debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "disable all logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "file to write logs to (default: config log_file, else stderr)")

	rootCmd.AddCommand(targetsCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(stubCmd)
	rootCmd.AddCommand(healthCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, display.Alert("error: "+err.Error()))
		os.Exit(1)
	}
}

// setupLogger resolves the level (flags beat config) and the output
// destination, then redirects the standard log package to the same place.
func setupLogger(cfg *config.Config) (*logger.Logger, error) {
	level, ok := logger.ParseLevel(cfg.LogLevel)
	if !ok {
		return nil, fmt.Errorf("unknown log level %q", cfg.LogLevel)
	}
	if verbose {
		level = logger.LevelVerbose
	}
	if quiet {
		level = logger.LevelOff
	}

	path := logFile
	if path == "" {
		path = cfg.LogFile
	}

	var out io.Writer = os.Stderr
	if path != "" && path != "stderr" {
		dir := filepath.Dir(path)
		if dir != "" && dir != "." {
			os.MkdirAll(dir, 0o755)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back to stderr)\n", path, err)
		} else {
			out = f
			logSink = f
		}
	}

	stdlog.SetOutput(out)
	stdlog.SetFlags(stdlog.Ltime)

	return logger.New(level, out), nil
}

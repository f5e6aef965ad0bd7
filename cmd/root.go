package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kilianp07/bikesim/app"
	"github.com/kilianp07/bikesim/config"
	"github.com/kilianp07/bikesim/infra/logger"
)

var cfgPath string

var overrides struct {
	duration time.Duration
	users    int
	seed     int64
	report   string
}

var rootCmd = &cobra.Command{
	Use:   "bikesim",
	Short: "Shared bicycle network simulation",
	RunE:  run,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the simulation (default command)",
	RunE:  run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
	addRunFlags(rootCmd.Flags())
	addRunFlags(runCmd.Flags())
	rootCmd.AddCommand(runCmd)
}

func addRunFlags(f *pflag.FlagSet) {
	f.DurationVarP(&overrides.duration, "duration", "d", 0, "stop after this long (0 runs until interrupted)")
	f.IntVarP(&overrides.users, "users", "u", 0, "number of users to spawn")
	f.Int64Var(&overrides.seed, "seed", 0, "random seed")
	f.StringVar(&overrides.report, "report", "", "write the end-of-run report to this file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// loadConfig reads the configuration file. A missing default file falls back
// to the built-in defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
		return config.Default(), nil
	}
	return nil, fmt.Errorf("load config: %w", err)
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("duration") {
		cfg.Simulation.Duration = overrides.duration
	}
	if flags.Changed("users") {
		cfg.Simulation.Users = overrides.users
	}
	if flags.Changed("seed") {
		cfg.Simulation.Seed = overrides.seed
	}
	if flags.Changed("report") {
		cfg.Simulation.ReportPath = overrides.report
	}

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	return svc.Run(ctx)
}

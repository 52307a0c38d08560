// Package cli provides the yieldmapper command-line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fanwj03/YieldMapper/internal/app"
	"github.com/fanwj03/YieldMapper/internal/common"
)

// AppFactory builds the application core from a loaded config.
type AppFactory func(config *common.Config) (*app.App, error)

// session carries the App built for the running command.
type session struct {
	factory AppFactory
	app     *app.App
}

// NewRootCmd creates the root command. A nil factory uses app.NewAppFromConfig.
func NewRootCmd(factory AppFactory) *cobra.Command {
	if factory == nil {
		factory = app.NewAppFromConfig
	}
	s := &session{factory: factory}

	rootCmd := &cobra.Command{
		Use:   "yieldmapper",
		Short: "Dividend yield lookup and watchlist for A-share and Hong Kong equities",
		Long: `yieldmapper resolves a ticker or company name on the A-share or Hong Kong
market, aggregates its trailing twelve-month cash dividend and, for Hong Kong
securities, the HKD/CNY spot rate.

Use 'yieldmapper serve' to run the HTTP API with the watchlist.`,
		Version:       common.GetFullVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return s.open(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			s.close()
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config file (default: $YIELDMAPPER_CONFIG or yieldmapper.toml next to the binary)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newSearchCmd(s))
	rootCmd.AddCommand(newRateCmd(s))
	rootCmd.AddCommand(newRefreshCacheCmd(s))
	rootCmd.AddCommand(newWatchlistCmd(s))
	rootCmd.AddCommand(newServeCmd(s))

	return rootCmd
}

func (s *session) open(cmd *cobra.Command) error {
	common.LoadVersionFromFile()

	configPath, _ := cmd.Flags().GetString("config")
	config, err := common.LoadConfig(app.ResolveConfigPath(configPath))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		config.Logging.Level = "debug"
	}

	a, err := s.factory(config)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}
	s.app = a
	return nil
}

func (s *session) close() {
	if s.app != nil {
		s.app.Close()
		s.app = nil
	}
}

// Execute runs the root command with default wiring.
func Execute() error {
	return NewRootCmd(nil).Execute()
}

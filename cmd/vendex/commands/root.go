package commands

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/temcen/vendex/internal/app"
	"github.com/temcen/vendex/internal/config"
	"github.com/temcen/vendex/internal/scoring"
)

var version = "dev"

type rootOptions struct {
	configFile string
	verbose    bool
}

// NewRootCommand builds the vendex command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "vendex",
		Short: "Vendor comparison and multi-criteria scoring",
		Long: `vendex scores competing vendor bids for a procurement requirement.

It ranks vendors on price, quality, delivery, reliability, compliance,
payment terms, location and capacity, and explains the choice with
savings figures and recommendations.

Examples:
  vendex compare --input bids.json --pretty
  vendex compare --input - --profile urgent --format table < bids.json
  vendex profiles
  vendex watch --group po-prefill`,
		Version:      version,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default is config/app.yaml when present)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(newCompareCommand(opts))
	cmd.AddCommand(newProfilesCommand(opts))
	cmd.AddCommand(newWatchCommand(opts))

	return cmd
}

// Execute runs the root command against os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

func (o *rootOptions) load() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.LoadFile(o.configFile)
	if err != nil {
		return nil, nil, err
	}

	logger := app.SetupLogger(cfg)
	if o.verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.WarnLevel)
	}
	return cfg, logger, nil
}

func (o *rootOptions) engine() (*scoring.Engine, error) {
	cfg, _, err := o.load()
	if err != nil {
		return nil, err
	}
	return cfg.Scoring.NewEngine()
}

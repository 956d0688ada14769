package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/birddb-export/internal/buildinfo"
	"github.com/tphakala/birddb-export/internal/conf"
	"github.com/tphakala/birddb-export/internal/convert"
	"github.com/tphakala/birddb-export/internal/errors"
	"github.com/tphakala/birddb-export/internal/logger"
)

// RootCommand creates and returns the root command reading inputs from the working directory.
func RootCommand(v *viper.Viper) *cobra.Command {
	return newRootCommand(v, afero.NewOsFs())
}

func newRootCommand(v *viper.Viper, fsys afero.Fs) *cobra.Command {
	v.SetFs(fsys)

	rootCmd := &cobra.Command{
		Use:   "birddb-export",
		Short: "Convert BirdDB detections to JSON",
		Long: fmt.Sprintf(`Read %s and %s from the working directory and write the detections
as a JSON array to standard output.

In flat mode every valid detection becomes one record with its confidence. In grouped
mode consecutive detections of the same species are merged into time ranges, newest first.`,
			conf.DetectionFile, conf.LabelFile),
		Version:       buildinfo.Current().String(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	setupFlags(rootCmd)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, v)
	}

	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		settings, err := conf.Load(v)
		if err != nil {
			return err
		}
		return run(cmd, v, fsys, settings)
	}

	return rootCmd
}

// run executes a single conversion with loaded settings.
func run(cmd *cobra.Command, v *viper.Viper, fsys afero.Fs, settings *conf.Settings) error {
	level := logger.LogLevelWarn
	if settings.Debug {
		level = logger.LogLevelDebug
	}
	log := logger.NewTextLogger(cmd.ErrOrStderr(), "birddb", level)

	errors.AddErrorHook(func(ee *errors.EnhancedError) {
		log.Debug("Error built",
			logger.String("component", ee.GetComponent()),
			logger.String("category", ee.GetCategory()),
			logger.Error(ee.Err))
	})
	defer errors.ClearErrorHooks()

	log.Debug("Settings loaded",
		logger.String("mode", settings.Mode),
		logger.Duration("max_gap", settings.Grouping.MaxGap),
		logger.String("config_file", v.ConfigFileUsed()))

	cfg := convert.Config{
		LabelPath:     settings.Input.LabelPath,
		DetectionPath: settings.Input.DetectionPath,
		Mode:          convert.Mode(settings.Mode),
		MaxGap:        settings.Grouping.MaxGap,
	}
	if settings.Stats {
		cfg.Report = cmd.ErrOrStderr()
	}

	return convert.New(fsys, log).Run(cfg, cmd.OutOrStdout())
}

// setupFlags defines the flags of the root command
func setupFlags(rootCmd *cobra.Command) {
	flags := rootCmd.PersistentFlags()
	flags.BoolP("debug", "d", false, "Enable debug output on standard error")
	flags.StringP("mode", "m", conf.DefaultMode, "Output mode: flat or grouped")
	flags.Duration("max-gap", 0, "Grouped mode: split same-species runs separated by more than this duration (0 disables)")
	flags.Bool("stats", false, "Print a summary table of the run on standard error")
}

// bindFlags binds the root command flags to their configuration keys so that explicit flags
// take precedence over environment variables and the config file.
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	flags := cmd.Flags()
	bindings := map[string]string{
		"debug":           "debug",
		"mode":            "mode",
		"grouping.maxgap": "max-gap",
		"stats":           "stats",
	}

	for key, name := range bindings {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return errors.Newf("error binding flag %s: %w", name, err).
				Category(errors.CategoryConfiguration).
				Build()
		}
	}

	return nil
}

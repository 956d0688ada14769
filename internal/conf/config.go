// config.go: settings for the BirdDB exporter
package conf

import (
	"time"

	"github.com/spf13/viper"

	"github.com/tphakala/birddb-export/internal/errors"
)

// Input files are read from the working directory under fixed names.
const (
	LabelFile     = "labels.txt"
	DetectionFile = "BirdDB.txt"
)

// Optional configuration file, looked up as birddb.yaml in the working directory.
const (
	ConfigName = "birddb"
	ConfigType = "yaml"
	ConfigPath = "."
)

// GroupingSettings tunes grouped output.
type GroupingSettings struct {
	MaxGap time.Duration `mapstructure:"maxgap"` // split same-species runs on gaps longer than this, 0 disables
}

// InputSettings holds the resolved input paths. They are not configurable.
type InputSettings struct {
	LabelPath     string
	DetectionPath string
}

// Settings contains all configuration options for a run.
type Settings struct {
	Debug    bool             `mapstructure:"debug"`    // true to enable debug logging
	Mode     string           `mapstructure:"mode"`     // output mode, flat or grouped
	Grouping GroupingSettings `mapstructure:"grouping"` // grouped mode tuning
	Stats    bool             `mapstructure:"stats"`    // true to print a run summary on stderr

	Input InputSettings `mapstructure:"-"`
}

// Load reads settings from defaults, the optional config file, environment variables and
// any flags already bound to v, in increasing order of precedence.
func Load(v *viper.Viper) (*Settings, error) {
	if err := initViper(v); err != nil {
		return nil, err
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, errors.Newf("error unmarshaling config into struct: %w", err).
			Category(errors.CategoryConfiguration).
			Build()
	}

	settings.Input = InputSettings{
		LabelPath:     LabelFile,
		DetectionPath: DetectionFile,
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}

	return settings, nil
}

// initViper sets defaults, binds environment variables and reads the config file if present.
func initViper(v *viper.Viper) error {
	v.SetConfigName(ConfigName)
	v.SetConfigType(ConfigType)
	v.AddConfigPath(ConfigPath)

	setDefaultConfig(v)

	if err := bindEnvVars(v); err != nil {
		return errors.New(err).
			Category(errors.CategoryConfiguration).
			Build()
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return errors.Newf("fatal error reading config file: %w", err).
			Category(errors.CategoryConfiguration).
			Context("config_name", ConfigName+"."+ConfigType).
			Build()
	}

	return nil
}

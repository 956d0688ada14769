// conf/defaults.go default values for settings
package conf

import "github.com/spf13/viper"

// Default values, shared with flag definitions.
const (
	DefaultMode   = "flat"
	DefaultMaxGap = "0s"
)

// Sets default values for the configuration.
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("mode", DefaultMode)
	v.SetDefault("grouping.maxgap", DefaultMaxGap)
	v.SetDefault("stats", false)
}

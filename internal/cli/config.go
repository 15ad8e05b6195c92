package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// DefaultConfigDir is searched for editgrid.yaml when --config-dir is not
// given.
const DefaultConfigDir = ".editgrid"

const (
	configFileName = "editgrid"
	configFileType = "yaml"
	envPrefix      = "EDITGRID"

	cfgKeyFormat  = "format"
	cfgKeyVerbose = "verbose"
	cfgKeyDB      = "db"
)

// loadConfig reads editgrid.yaml from configDir, overlaid by EDITGRID_*
// environment variables. A missing file is not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyFormat, "text")
	v.SetDefault(cfgKeyVerbose, false)
	v.SetDefault(cfgKeyDB, "")
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	if configDir != "" {
		v.AddConfigPath(configDir)
	}
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// applyConfig fills every option whose flag was not given on the command
// line from v. Flags win over config, config over defaults.
func (o *RootOptions) applyConfig(changed func(name string) bool, v *viper.Viper) {
	if !changed("format") {
		o.Format = v.GetString(cfgKeyFormat)
	}
	if !changed("verbose") {
		o.Verbose = v.GetBool(cfgKeyVerbose)
	}
	o.DB = v.GetString(cfgKeyDB)
}

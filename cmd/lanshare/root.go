package main

import (
	"fmt"
	"os"

	"tarun-kavipurapu/lanshare/pkg/config"
	"tarun-kavipurapu/lanshare/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:          "lanshare",
	Short:        "LAN file sharing",
	Long:         `Discover hosts on the local subnet by UDP broadcast and push files to them over TCP.`,
	SilenceUsage: true,
}

// loadConfig layers defaults, the config file, LANSHARE_* env and the flags
// named in bindings (flag name -> config key), then installs the file logger.
func loadConfig(fs *pflag.FlagSet, bindings map[string]string) (config.Config, error) {
	v := config.New()

	if err := bindFlags(v, fs, bindings); err != nil {
		return config.Config{}, err
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return config.Config{}, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}

	cfg, err := config.FromViper(v)
	if err != nil {
		return config.Config{}, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := logger.Setup(logger.Options{Dir: cfg.Log.Dir, Level: cfg.Log.Level}); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet, bindings map[string]string) error {
	bindings["name"] = "name"
	for flag, key := range bindings {
		f := fs.Lookup(flag)
		if f == nil {
			return fmt.Errorf("unknown flag %q", flag)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Sugar.Error(err)
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to a config file (yaml, json or toml)")
	rootCmd.PersistentFlags().StringP("name", "n", "", "Display name announced to other hosts (default: hostname)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
}

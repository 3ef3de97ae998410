package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"tarun-kavipurapu/lanshare/pkg/protocol"
)

type Config struct {
	Name      string          `mapstructure:"name"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	Transfer  TransferConfig  `mapstructure:"transfer"`
	Log       LogConfig       `mapstructure:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type DiscoveryConfig struct {
	Port           int           `mapstructure:"port"`
	Interval       time.Duration `mapstructure:"interval"`
	ReceiveTimeout time.Duration `mapstructure:"receive_timeout"`
	PeerTTL        time.Duration `mapstructure:"peer_ttl"`
	BroadcastAddr  string        `mapstructure:"broadcast_addr"`
	LocalAddr      string        `mapstructure:"local_addr"`
	MDNS           bool          `mapstructure:"mdns"`
}

type TransferConfig struct {
	Port        int           `mapstructure:"port"`
	BufferSize  int           `mapstructure:"buffer_size"`
	DestDir     string        `mapstructure:"dest_dir"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	Dir   string `mapstructure:"dir"`
}

type MetricsConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// SetDefaults registers every key so env overrides and flag bindings resolve.
func SetDefaults(v *viper.Viper) {
	name, err := os.Hostname()
	if err != nil || name == "" {
		name = "lanshare"
	}
	v.SetDefault("name", name)

	v.SetDefault("discovery.port", protocol.DefaultDiscoveryPort)
	v.SetDefault("discovery.interval", 2*time.Second)
	v.SetDefault("discovery.receive_timeout", time.Second)
	v.SetDefault("discovery.peer_ttl", time.Duration(0))
	v.SetDefault("discovery.broadcast_addr", "")
	v.SetDefault("discovery.local_addr", "")
	v.SetDefault("discovery.mdns", false)

	v.SetDefault("transfer.port", protocol.DefaultTransferPort)
	v.SetDefault("transfer.buffer_size", protocol.DefaultBufferSize)
	v.SetDefault("transfer.dest_dir", "received_files")
	v.SetDefault("transfer.dial_timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.dir", "logs")

	v.SetDefault("metrics.interval", time.Duration(0))
}

// New returns a viper instance with defaults and LANSHARE_* env overrides.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix("lanshare")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path (if non-empty) over the defaults and validates the result.
func Load(path string) (Config, error) {
	v := New()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return FromViper(v)
}

// FromViper unmarshals and validates whatever v currently resolves to.
func FromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var err error
	if !validPort(c.Discovery.Port) {
		err = multierr.Append(err, fmt.Errorf("discovery.port out of range: %d", c.Discovery.Port))
	}
	if !validPort(c.Transfer.Port) {
		err = multierr.Append(err, fmt.Errorf("transfer.port out of range: %d", c.Transfer.Port))
	}
	if c.Discovery.Interval <= 0 {
		err = multierr.Append(err, fmt.Errorf("discovery.interval must be positive"))
	}
	if c.Discovery.ReceiveTimeout <= 0 || c.Discovery.ReceiveTimeout >= c.Discovery.Interval {
		err = multierr.Append(err, fmt.Errorf("discovery.receive_timeout must be positive and below discovery.interval"))
	}
	if c.Discovery.PeerTTL < 0 {
		err = multierr.Append(err, fmt.Errorf("discovery.peer_ttl must not be negative"))
	}
	if c.Transfer.BufferSize <= 0 {
		err = multierr.Append(err, fmt.Errorf("transfer.buffer_size must be positive"))
	}
	if c.Transfer.DestDir == "" {
		err = multierr.Append(err, fmt.Errorf("transfer.dest_dir must be set"))
	}
	if strings.Contains(c.Name, protocol.Separator) {
		err = multierr.Append(err, fmt.Errorf("name must not contain %q", protocol.Separator))
	}
	return err
}

// Port 0 asks the OS for an ephemeral port.
func validPort(p int) bool {
	return p >= 0 && p <= 65535
}

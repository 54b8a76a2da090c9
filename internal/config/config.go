// Package config provides configuration structures and defaults for the
// track recorder, loaded by github.com/spf13/viper the way the teacher's
// cobra command loads its own config.Config.
package config

import "time"

// Config represents the complete application configuration.
type Config struct {
	UART    UARTConfig    `mapstructure:"uart"`    // GPS serial transport settings
	GPIO    GPIOConfig    `mapstructure:"gpio"`    // power-loss monitor settings
	Storage StorageConfig `mapstructure:"storage"` // log store settings
	Filter  FilterConfig  `mapstructure:"filter"`  // movement filter thresholds
	Logging LoggingConfig `mapstructure:"logging"` // logging configuration
}

// UARTConfig contains GPS serial port configuration parameters.
type UARTConfig struct {
	Port        string        `mapstructure:"port"`         // serial device path
	BaudRate    int           `mapstructure:"baud_rate"`    // serial communication baud rate
	ReadTimeout time.Duration `mapstructure:"read_timeout"` // per-line read timeout; not read by the event loop, which uses loop.ReadTimeout
}

// GPIOConfig contains power-loss monitoring configuration parameters.
type GPIOConfig struct {
	Enabled bool `mapstructure:"enabled"` // whether to monitor the VBUS pin
}

// StorageConfig contains log store configuration parameters.
type StorageConfig struct {
	MountPoint    string        `mapstructure:"mount_point"`     // removable medium mount point
	WaitForMount  time.Duration `mapstructure:"wait_for_mount"`  // how long Mount waits for the medium to appear
	SyncInterval  time.Duration `mapstructure:"sync_interval"`   // periodic fsync interval
	BaseFilename  string        `mapstructure:"base_filename"`   // base name for track.csv / track_N.csv
	MaxFileNumber int           `mapstructure:"max_file_number"` // highest rotation suffix allowed
}

// FilterConfig contains movement filter threshold configuration parameters.
// The filter does not read these values; it uses its own package constants
// filter.StationaryThresholdKmh and filter.MaxSpeedKmh.
type FilterConfig struct {
	StationaryThresholdKmh float64 `mapstructure:"stationary_threshold_kmh"` // below this, a fix is stationary
	MaxSpeedKmh            float64 `mapstructure:"max_speed_kmh"`            // above this implied speed, a fix is an outlier
}

// LoggingConfig contains logging configuration parameters.
type LoggingConfig struct {
	Level string `mapstructure:"level"` // zap log level (debug, info, warn, error)
	File  string `mapstructure:"file"`  // log file path, empty means stderr
}

// DefaultConfig returns a configuration with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		UART: UARTConfig{
			Port:        "/dev/ttyACM0",
			BaudRate:    9600,
			ReadTimeout: 1100 * time.Millisecond,
		},
		GPIO: GPIOConfig{
			Enabled: true,
		},
		Storage: StorageConfig{
			MountPoint:    "/mnt/sdcard",
			WaitForMount:  0,
			SyncInterval:  5 * time.Second,
			BaseFilename:  "track",
			MaxFileNumber: 999,
		},
		Filter: FilterConfig{
			StationaryThresholdKmh: 3.0,
			MaxSpeedKmh:            250.0,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

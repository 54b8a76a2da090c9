// Command trackrecorder is the battery-backed GPS track recorder: it
// reads NMEA sentences off a serial GPS module, filters out stationary
// noise, and appends accepted fixes to a crash-safe CSV log on a
// removable medium, until the power monitor reports an imminent outage.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"trackrecorder/internal/config"
	"trackrecorder/internal/hal"
	"trackrecorder/internal/loop"
	"trackrecorder/internal/power"
	"trackrecorder/internal/storage"
	"trackrecorder/internal/version"
)

var (
	cfgFile     string
	uartPort    string
	baudRate    int
	mountPoint  string
	verbose     bool
	showVersion bool
)

var rootCmd = &cobra.Command{
	Use:   "trackrecorder",
	Short: "Battery-backed GPS track recorder",
	Long: `trackrecorder reads NMEA-0183 sentences from a GPS receiver, applies a
movement filter to suppress stationary noise, and appends accepted fixes
to a crash-safe CSV log on a removable medium.`,
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion {
			fmt.Println(version.GetVersionInfo("trackrecorder"))
			return
		}
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "./config.yaml", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&showVersion, "version", false, "show version information")

	rootCmd.Flags().StringVarP(&uartPort, "port", "p", "/dev/ttyACM0", "GPS serial port")
	rootCmd.Flags().IntVarP(&baudRate, "baud", "b", 9600, "GPS serial baud rate")
	rootCmd.Flags().StringVarP(&mountPoint, "mount-point", "m", "/mnt/sdcard", "removable medium mount point")

	viper.BindPFlag("uart.port", rootCmd.Flags().Lookup("port"))
	viper.BindPFlag("uart.baud_rate", rootCmd.Flags().Lookup("baud"))
	viper.BindPFlag("storage.mount_point", rootCmd.Flags().Lookup("mount-point"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}
	viper.AutomaticEnv()
	viper.ReadInConfig()
}

func loadConfig() *config.Config {
	cfg := config.DefaultConfig()

	if viper.IsSet("uart.port") {
		cfg.UART.Port = viper.GetString("uart.port")
	}
	if viper.IsSet("uart.baud_rate") {
		cfg.UART.BaudRate = viper.GetInt("uart.baud_rate")
	}
	if viper.IsSet("storage.mount_point") {
		cfg.Storage.MountPoint = viper.GetString("storage.mount_point")
	}
	if viper.IsSet("logging.level") {
		cfg.Logging.Level = viper.GetString("logging.level")
	}
	return cfg
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		level, err := zap.ParseAtomicLevel(cfg.Logging.Level)
		if err == nil {
			zcfg.Level = level
		}
	}
	if cfg.Logging.File != "" {
		zcfg.OutputPaths = []string{cfg.Logging.File}
	}
	return zcfg.Build()
}

func run() error {
	cfg := loadConfig()

	zlog, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer zlog.Sync()
	sugar := zlog.Sugar()

	uart, err := hal.OpenSerialUART(cfg.UART.Port, cfg.UART.BaudRate)
	if err != nil {
		return fmt.Errorf("open GPS uart: %w", err)
	}
	defer uart.Close()

	clock := hal.NewSystemClock()

	var monitor loop.PowerMonitor
	if cfg.GPIO.Enabled {
		gpio, err := hal.OpenRPIOGPIO()
		if err != nil {
			sugar.Warnw("gpio unavailable, power monitoring disabled", "error", err)
		} else {
			defer gpio.Close()
			pm := power.New(gpio)
			if err := pm.Init(); err != nil {
				sugar.Warnw("power monitor init failed", "error", err)
			} else {
				monitor = pm
			}
		}
	}

	fs := hal.NewPosixFilesystem(cfg.Storage.MountPoint, cfg.Storage.WaitForMount)
	store := storage.New(fs, storage.Options{
		SyncIntervalMs: int(cfg.Storage.SyncInterval.Milliseconds()),
		MaxFileNumber:  cfg.Storage.MaxFileNumber,
		DirtyFilename:  storage.DirtyFilename,
		BaseFilename:   cfg.Storage.BaseFilename,
	})
	if serr := store.Init(clock.NowMs()); serr != storage.OK {
		return fmt.Errorf("storage init: %w", serr)
	}
	sugar.Infow("storage ready", "file", store.Filename())

	l := loop.New(uart, clock, monitor, store, sugar)

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	err = l.Run(ctx)

	if serr := store.Shutdown(); serr != storage.OK {
		sugar.Errorw("storage shutdown failed", "error", serr)
	}

	return err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/hostpatch/hostpatch/config"
	"github.com/hostpatch/hostpatch/internal/core/logger"
	"github.com/hostpatch/hostpatch/internal/version"
	"github.com/urfave/cli/v3"
)

func App() *cli.Command {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Usage:   "Path to config file",
		Aliases: []string{"c"},
		Sources: cli.EnvVars("HOSTPATCH_CONFIG_PATH"),
	}

	app := &cli.Command{
		Name:    "hostpatch",
		Usage:   "Runtime patch sidecar for a chat-client mod host",
		Version: version.Version,
		Commands: []*cli.Command{
			{
				Name:  "daemon",
				Usage: "Attach to the host and run the watchdog daemon",
				Flags: []cli.Flag{
					configFlag,
				},
				Action: func(_ context.Context, c *cli.Command) error {
					cfg := loadConfig(c)
					checkHostAddrIsSet(cfg)
					verbose := strings.EqualFold(cfg.Log.Level, "trace")

					RunWatchMode(&WatchModeOpts{
						ListenPort: cfg.Main.ListenPort,
						Verbose:    verbose,
					})
					return nil
				},
			},

			// Validate command
			{
				Name:  "validate",
				Usage: "Validate the config file without running the application",
				Flags: []cli.Flag{
					configFlag,
				},
				Action: func(_ context.Context, c *cli.Command) error {
					_ = loadConfig(c)
					fmt.Println("Configuration is valid.")
					return nil
				},
			},
		},
	}

	return app
}

func loadConfig(c *cli.Command) *config.Config {
	configPath := c.String("config")

	// 1) if -c flag is set -> must read config from file
	// 2) if $HOSTPATCH_CONFIG_PATH is set -> must read config from file
	// 3) read config with go-envconfig otherwise
	var cfg *config.Config
	if configPath != "" {
		cfg = config.MustLoad(configPath)
	} else {
		cfg = config.MustEnvconfig()
	}

	// debug config (NOTE: sensitive fields are hidden)
	_, _ = fmt.Fprintf(os.Stderr, "STARTING WITH CONFIGURATION (%s):\n%s\n\n",
		configPath,
		cfg.String(),
	)

	logger.Init(&logger.Opts{
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		AddSource: cfg.Log.AddSource,
	})
	return cfg
}

func checkHostAddrIsSet(cfg *config.Config) {
	if cfg.Host.Addr == "" {
		log.Fatal("[FATAL] daemon: host.addr is required (HOSTPATCH_HOST_ADDR)")
	}
}

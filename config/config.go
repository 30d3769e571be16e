package config

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/sethvargo/go-envconfig"
	"sigs.k8s.io/yaml"
)

var (
	once   sync.Once
	config *Config
)

const envPrefix = "HOSTPATCH_"

type Config struct {
	Main    MainConfig    `json:"main" env:", prefix=HOSTPATCH_"`
	Log     LogConfig     `json:"log" env:", prefix=HOSTPATCH_LOG_"`
	Host    HostConfig    `json:"host" env:", prefix=HOSTPATCH_HOST_"`
	Waiter  WaiterConfig  `json:"waiter" env:", prefix=HOSTPATCH_WAITER_"`
	Monitor MonitorConfig `json:"monitor" env:", prefix=HOSTPATCH_MONITOR_"`
	Startup StartupConfig `json:"startup" env:", prefix=HOSTPATCH_STARTUP_"`
	Media   MediaConfig   `json:"media" env:", prefix=HOSTPATCH_MEDIA_"`
	Sweep   SweepConfig   `json:"sweep" env:", prefix=HOSTPATCH_SWEEP_"`
	Metrics MetricsConfig `json:"metrics" env:", prefix=HOSTPATCH_METRICS_"`
	Dev     DevConfig     `json:"dev" env:", prefix=HOSTPATCH_DEV_"`
}

type MainConfig struct {
	ListenPort int    `json:"listen_port" env:"LISTEN_PORT, default=7070"`
	AuthToken  string `json:"auth_token" env:"AUTH_TOKEN"`
}

type LogConfig struct {
	Level     string `json:"level" env:"LEVEL, default=info"`
	Format    string `json:"format" env:"FORMAT, default=text"`
	AddSource bool   `json:"add_source" env:"ADD_SOURCE"`
}

// HostConfig describes how to reach the mod host's control API.
type HostConfig struct {
	Addr         string `json:"addr" env:"ADDR"`
	Token        string `json:"token" env:"TOKEN"`
	Timeout      string `json:"timeout" env:"TIMEOUT, default=5s"`
	PollInterval string `json:"poll_interval" env:"POLL_INTERVAL, default=250ms"`
	WaitBudget   string `json:"wait_budget" env:"WAIT_BUDGET, default=30s"`
}

type WaiterConfig struct {
	Components   []string `json:"components" env:"COMPONENTS"`
	Critical     string   `json:"critical" env:"CRITICAL, default=menu"`
	QueryTimeout string   `json:"query_timeout" env:"QUERY_TIMEOUT, default=2s"`
	RetryDelay   string   `json:"retry_delay" env:"RETRY_DELAY, default=1s"`
	MaxAttempts  int      `json:"max_attempts" env:"MAX_ATTEMPTS, default=5"`
}

type MonitorConfig struct {
	Enable        bool   `json:"enable" env:"ENABLE, default=true"`
	WatchdogDelay string `json:"watchdog_delay" env:"WATCHDOG_DELAY, default=3s"`
	FallbackDelay string `json:"fallback_delay" env:"FALLBACK_DELAY, default=5s"`
}

type StartupConfig struct {
	FastPathTags    []string `json:"fastpath_tags" env:"FASTPATH_TAGS, default=bootstrap"`
	DebounceWindow  string   `json:"debounce_window" env:"DEBOUNCE_WINDOW, default=100ms"`
	SyncPauseEnable bool     `json:"sync_pause_enable" env:"SYNC_PAUSE_ENABLE, default=true"`
	SyncPauseWindow string   `json:"sync_pause_window" env:"SYNC_PAUSE_WINDOW, default=5s"`
}

type MediaConfig struct {
	PreventCrash  bool `json:"prevent_crash" env:"PREVENT_CRASH, default=true"`
	LogSuppressed bool `json:"log_suppressed" env:"LOG_SUPPRESSED"`
}

type SweepConfig struct {
	Enable bool   `json:"enable" env:"ENABLE"`
	Cron   string `json:"cron" env:"CRON"`
}

type MetricsConfig struct {
	Enable bool `json:"enable" env:"ENABLE"`
}

type DevConfig struct {
	Pprof PprofConfig `json:"pprof" env:", prefix=PPROF_"`
}

type PprofConfig struct {
	Enable bool `json:"enable" env:"ENABLE"`
}

func Cfg() *Config {
	if config == nil {
		log.Fatal("config was not loaded in main")
	}
	return config
}

// MustLoad reads the config from a YAML or JSON file, expanding
// ${HOSTPATCH_*} references from the environment.
func MustLoad(path string) *Config {
	once.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatal(err)
		}
		var c Config
		expanded := expandEnvsWithPrefix(string(data), envPrefix)
		if err := yaml.Unmarshal([]byte(expanded), &c); err != nil {
			log.Fatal(err)
		}
		// fill from env (with defaults) whatever the file did not provide
		if err := envconfig.Process(context.Background(), &c); err != nil {
			log.Fatal(err)
		}
		config = &c
	})
	return config
}

// MustEnvconfig builds the config from environment variables alone.
func MustEnvconfig() *Config {
	once.Do(func() {
		var c Config
		if err := envconfig.Process(context.Background(), &c); err != nil {
			log.Fatal(err)
		}
		config = &c
	})
	return config
}

var envRefPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)}`)

// expandEnvsWithPrefix substitutes ${VAR} references whose name carries the
// given prefix. References with other prefixes are left untouched.
func expandEnvsWithPrefix(input, prefix string) string {
	return envRefPattern.ReplaceAllStringFunc(input, func(match string) string {
		name := envRefPattern.FindStringSubmatch(match)[1]
		if !strings.HasPrefix(name, prefix) {
			return match
		}
		return os.Getenv(name)
	})
}

// String renders the config as indented JSON with sensitive fields hidden.
func (c *Config) String() string {
	cp := *c
	if cp.Host.Token != "" {
		cp.Host.Token = "*****"
	}
	if cp.Main.AuthToken != "" {
		cp.Main.AuthToken = "*****"
	}
	data, err := json.MarshalIndent(&cp, "", "  ")
	if err != nil {
		return fmt.Sprintf("config marshal error: %v", err)
	}
	return string(data)
}

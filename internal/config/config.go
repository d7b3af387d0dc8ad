// Package config defines the persisted configuration shapes described in
// spec.md §6. Reading the config file path from CLI flags and watching it
// for changes is the (out-of-scope, §1) CLI shell's job; this package only
// parses and validates the YAML document it is handed.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level persisted configuration document (spec.md §6).
type Config struct {
	Performance PerformanceConfig `yaml:"performance"`
	API         APIConfig         `yaml:"api"`
	Schedule    ScheduleConfig    `yaml:"schedule"`
}

// PerformanceConfig is the [PERFORMANCE] section of spec.md §6.
type PerformanceConfig struct {
	MaxWorkers           int     `yaml:"max_workers"`
	Step3MaxWorkers      int     `yaml:"step3_max_workers"`
	RateLimitWinticket   float64 `yaml:"rate_limit_winticket"`
	RateLimitYenjoyHTML  float64 `yaml:"rate_limit_yenjoy_html"`
	RateLimitYenjoyAPI   float64 `yaml:"rate_limit_yenjoy_api"`
	SaverBatchSize       int     `yaml:"saver_batch_size"`
}

// APIConfig is the [API] section of spec.md §6.
type APIConfig struct {
	RequestTimeout time.Duration `yaml:"request_timeout"`
	RetryCount     int           `yaml:"retry_count"`
	RetryDelay     time.Duration `yaml:"retry_delay"`
}

// ScheduleConfig is the [Schedule] section of spec.md §6 — a JSON array of
// trigger objects, kept as YAML here the way the teacher's scheduler config
// is YAML end to end.
type ScheduleConfig struct {
	Triggers []Trigger `yaml:"schedule_list"`
}

// Trigger is one wall-clock firing rule for the Scheduler (spec.md §4.I).
type Trigger struct {
	Time    string `yaml:"time"` // "HH:MM" in local time
	Steps   []int  `yaml:"steps"`
	Enabled bool   `yaml:"enabled"`
}

// Defaults returns the documented default values (spec.md §4.A, §4.D).
func Defaults() Config {
	return Config{
		Performance: PerformanceConfig{
			MaxWorkers:          4,
			Step3MaxWorkers:     2,
			RateLimitWinticket:  2.0,
			RateLimitYenjoyHTML: 1.0,
			RateLimitYenjoyAPI:  2.0,
			SaverBatchSize:      100,
		},
		API: APIConfig{
			RequestTimeout: 30 * time.Second,
			RetryCount:     3,
			RetryDelay:     2 * time.Second,
		},
	}
}

// Load reads and validates a configuration document from path, filling in
// documented defaults for fields the document omits (a field written as
// zero stays zero).
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: invalid %s: %w", path, err)
	}
	return cfg, nil
}

// Validate enforces the invariants callers rely on without re-deriving
// them: worker pool sizes and batch sizes must be positive, and every
// trigger must carry a step list.
func (c Config) Validate() error {
	if c.Performance.MaxWorkers <= 0 {
		return fmt.Errorf("performance.max_workers must be > 0")
	}
	if c.Performance.Step3MaxWorkers <= 0 {
		return fmt.Errorf("performance.step3_max_workers must be > 0")
	}
	if c.Performance.SaverBatchSize <= 0 {
		return fmt.Errorf("performance.saver_batch_size must be > 0")
	}
	for i, trig := range c.Schedule.Triggers {
		if len(trig.Steps) == 0 {
			return fmt.Errorf("schedule.schedule_list[%d]: steps must not be empty", i)
		}
	}
	return nil
}

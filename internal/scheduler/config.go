package scheduler

import (
	"time"

	appconfig "github.com/smallbiznis/rastro/internal/config"
)

// Config controls the scheduler run loop and per-job timeouts.
type Config struct {
	RunInterval time.Duration
	JobTimeout  time.Duration
	EnabledJobs []string
}

func DefaultConfig() Config {
	return Config{
		RunInterval: time.Minute,
		JobTimeout:  30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	return c
}

func ProvideConfig(cfg appconfig.Config) Config {
	return Config{
		RunInterval: cfg.Scheduler.RunInterval,
		JobTimeout:  cfg.Scheduler.JobTimeout,
	}.withDefaults()
}

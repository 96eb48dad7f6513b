package scheduler

import (
	"github.com/caarlos0/env/v6"
)

// Config holds the cron schedules (with seconds). An empty schedule disables its job.
type Config struct {
	Enabled bool `env:"CRON_ENABLED" envDefault:"true"`
	// Start Created mailings whose start time has passed, every 15 seconds
	CronScheduleStartDue string `env:"CRON_SCHEDULE_START_DUE" envDefault:"*/15 * * * * *"`
	// Finish Started mailings whose end time has passed, every 15 seconds
	CronScheduleFinishExpired string `env:"CRON_SCHEDULE_FINISH_EXPIRED" envDefault:"*/15 * * * * *"`
	// Restart send tasks lost by this process, every minute
	CronScheduleResumeStarted string `env:"CRON_SCHEDULE_RESUME_STARTED" envDefault:"0 * * * * *"`
}

// LoadConfig reads the CRON_* environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

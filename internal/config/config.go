package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/heng-zhai/MSc-project/internal/optimization/bees"
)

type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}
	Logging struct {
		Level  string `env:"LOG_LEVEL"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	Optimization Optimization
	Bees         Bees
}

// Optimization holds the job service settings.
type Optimization struct {
	// WorkerCount bounds the number of jobs running at once.
	WorkerCount int `env:"OPT_WORKER_COUNT" envDefault:"10"`
	// StartRate is the number of job starts admitted per second, StartBurst
	// the number admitted at once.
	StartRate  float64 `env:"OPT_START_RATE" envDefault:"5"`
	StartBurst int     `env:"OPT_START_BURST" envDefault:"10"`
	// MaxIterations caps jobs that do not ask for a cap of their own.
	MaxIterations int `env:"OPT_MAX_ITERATIONS" envDefault:"5000"`
	// MemoSize is the evaluation cache size of a job. 0 disables the cache.
	MemoSize int `env:"OPT_MEMO_SIZE" envDefault:"0"`

	// Per request limits. 0 disables a limit.
	MaxDimensions  int `env:"OPT_MAX_DIMENSIONS" envDefault:"100"`
	MaxBees        int `env:"OPT_MAX_BEES" envDefault:"10000"`
	IterationLimit int `env:"OPT_ITERATION_LIMIT" envDefault:"1000000"`
}

// Bees holds the default algorithm parameters of new jobs.
type Bees struct {
	Scouts          int     `env:"BEES_SCOUTS" envDefault:"35"`
	BestSites       int     `env:"BEES_BEST_SITES" envDefault:"8"`
	Recruiters      int     `env:"BEES_RECRUITERS" envDefault:"80"`
	ShrinkFactor    float64 `env:"BEES_SHRINK_FACTOR" envDefault:"0.2"`
	StagnationLimit int     `env:"BEES_STAGNATION_LIMIT" envDefault:"10"`
	Recruitment     string  `env:"BEES_RECRUITMENT" envDefault:"tournament"`
}

// Apply copies the parameters onto cfg. The problem fields of cfg are left
// untouched.
func (b Bees) Apply(cfg bees.Config) (bees.Config, error) {
	policy, err := bees.ParseRecruitmentPolicy(b.Recruitment)
	if err != nil {
		return cfg, err
	}
	cfg.Scouts = b.Scouts
	cfg.BestSites = b.BestSites
	cfg.Recruiters = b.Recruiters
	cfg.ShrinkFactor = b.ShrinkFactor
	cfg.StagnationLimit = b.StagnationLimit
	cfg.Recruitment = policy
	return cfg, nil
}

func Load() (*Config, error) {
	cfg := &Config{}

	// Parse environment variables
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Set default logging level based on environment
	if cfg.Logging.Level == "" {
		if cfg.Environment == "development" {
			cfg.Logging.Level = "debug"
		} else {
			cfg.Logging.Level = "info"
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with. Algorithm
// parameters are checked again by bees.New when a job starts.
func (c *Config) Validate() error {
	switch {
	case c.Optimization.WorkerCount < 1:
		return fmt.Errorf("OPT_WORKER_COUNT must be positive, got %d", c.Optimization.WorkerCount)
	case c.Optimization.StartRate <= 0:
		return fmt.Errorf("OPT_START_RATE must be positive, got %v", c.Optimization.StartRate)
	case c.Optimization.StartBurst < 1:
		return fmt.Errorf("OPT_START_BURST must be positive, got %d", c.Optimization.StartBurst)
	case c.Optimization.MaxIterations < 1:
		return fmt.Errorf("OPT_MAX_ITERATIONS must be positive, got %d", c.Optimization.MaxIterations)
	case c.Optimization.MemoSize < 0:
		return fmt.Errorf("OPT_MEMO_SIZE must not be negative, got %d", c.Optimization.MemoSize)
	case c.Optimization.MaxDimensions < 0:
		return fmt.Errorf("OPT_MAX_DIMENSIONS must not be negative, got %d", c.Optimization.MaxDimensions)
	case c.Optimization.MaxBees < 0:
		return fmt.Errorf("OPT_MAX_BEES must not be negative, got %d", c.Optimization.MaxBees)
	case c.Optimization.IterationLimit < 0:
		return fmt.Errorf("OPT_ITERATION_LIMIT must not be negative, got %d", c.Optimization.IterationLimit)
	case c.Optimization.IterationLimit > 0 && c.Optimization.MaxIterations > c.Optimization.IterationLimit:
		return fmt.Errorf("OPT_MAX_ITERATIONS (%d) exceeds OPT_ITERATION_LIMIT (%d)",
			c.Optimization.MaxIterations, c.Optimization.IterationLimit)
	case c.Optimization.MaxBees > 0 && max(c.Bees.Scouts, c.Bees.Recruiters) > c.Optimization.MaxBees:
		return fmt.Errorf("BEES_SCOUTS and BEES_RECRUITERS must not exceed OPT_MAX_BEES (%d)", c.Optimization.MaxBees)
	}
	if _, err := bees.ParseRecruitmentPolicy(c.Bees.Recruitment); err != nil {
		return fmt.Errorf("BEES_RECRUITMENT: %w", err)
	}
	return nil
}

// GetEnv returns the value of the environment variable key, or defaultValue
// when it is unset. Command line tools use it for flag defaults that follow
// the service's variables.
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

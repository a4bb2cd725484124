package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by DUO_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("DUO_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Missing files are not an error.
	_ = godotenv.Load(envFile)
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

func MigrationsPath() string {
	p := os.Getenv("MIGRATIONS_PATH")
	if p == "" {
		return "migrations"
	}
	return p
}

// ScenariosPath returns the scenario file. Defaults to scenarios.yaml.
func ScenariosPath() string {
	p := os.Getenv("SCENARIOS_PATH")
	if p == "" {
		return "scenarios.yaml"
	}
	return p
}

func floatOr(key string, def float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return def
	}
	return v
}

// BayesianSmoothing is the prior mass spread over hypotheses other than the
// stated one, strictly between 0 and 1. Defaults to 0.15.
func BayesianSmoothing() float64 {
	s := floatOr("BAYESIAN_SMOOTHING", 0.15)
	if s <= 0 || s >= 1 {
		return 0.15
	}
	return s
}

// PriorVariance defaults to 0.0025.
func PriorVariance() float64 {
	v := floatOr("PRIOR_VARIANCE", 0.0025)
	if v <= 0 {
		return 0.0025
	}
	return v
}

// HPMemory is how many past iterations of sampled pairs the
// hypothesis-testing model remembers. Defaults to 1.
func HPMemory() int {
	n, err := strconv.Atoi(os.Getenv("HP_MEMORY"))
	if err != nil || n < 0 {
		return 1
	}
	return n
}

// HPDecisionThreshold is the mean F1 the hypothesis-testing model needs
// before it changes its prediction. 0 always accepts. Defaults to 0.95.
func HPDecisionThreshold() float64 {
	t := floatOr("HP_DECISION_THRESHOLD", 0.95)
	if t < 0 || t > 1 {
		return 0.95
	}
	return t
}

// SamplerSeed seeds the sampler. 0, the default, seeds from the clock.
func SamplerSeed() int64 {
	seed, err := strconv.ParseInt(os.Getenv("SAMPLER_SEED"), 10, 64)
	if err != nil {
		return 0
	}
	return seed
}

// ProjectRetention is how long an unfinished session is kept after its
// last update. Defaults to 72 hours.
func ProjectRetention() time.Duration {
	h, err := strconv.Atoi(os.Getenv("PROJECT_RETENTION_HOURS"))
	if err != nil || h <= 0 {
		return 72 * time.Hour
	}
	return time.Duration(h) * time.Hour
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}

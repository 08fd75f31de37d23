package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Env carries process-level overrides read by the CLI. The pipeline core
// never reads the environment; the CLI applies these on top of the loaded
// Pipeline.
type Env struct {
	OutputDir      string `env:"CUSTDQ_OUTPUT_DIR"`
	LogLevel       string `env:"CUSTDQ_LOG_LEVEL" envDefault:"info"`
	MetricsBackend string `env:"METRICS_BACKEND"`
	PushgatewayURL string `env:"PUSHGATEWAY_URL"`
	DatadogAddr    string `env:"DD_AGENT_ADDR"`
}

// LoadEnv loads dotenv files (".env" when none are given; missing files are
// ignored) and parses the environment into Env.
func LoadEnv(files ...string) (Env, error) {
	_ = godotenv.Load(files...)

	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}

// Apply overlays non-empty overrides onto p.
func (e Env) Apply(p *Pipeline) {
	if e.OutputDir != "" {
		p.Output.Dir = e.OutputDir
	}
}

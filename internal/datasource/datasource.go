// Package datasource opens the byte stream a run reads its dataset from.
package datasource

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"custdq/internal/config"
	"custdq/internal/datasource/file"
	"custdq/internal/datasource/httpds"
)

type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// New builds the Source named by cfg. The "sample" kind has no byte stream
// and is handled by the caller.
func New(cfg config.Source, logger *zap.Logger) (Source, error) {
	switch cfg.Kind {
	case "file":
		return file.NewLocal(cfg.File.Path), nil
	case "http":
		var timeout time.Duration
		if cfg.HTTP.Timeout != "" {
			d, err := time.ParseDuration(cfg.HTTP.Timeout)
			if err != nil {
				return nil, fmt.Errorf("datasource: http timeout %q: %w", cfg.HTTP.Timeout, err)
			}
			timeout = d
		}
		c := httpds.NewClient(httpds.Config{
			Timeout:            timeout,
			MaxRetries:         cfg.HTTP.MaxRetries,
			InsecureSkipVerify: cfg.HTTP.InsecureSkipVerify,
			Logger:             logger,
		})
		return httpds.NewSource(c, cfg.HTTP.URL), nil
	default:
		return nil, fmt.Errorf("datasource: unsupported kind %q", cfg.Kind)
	}
}

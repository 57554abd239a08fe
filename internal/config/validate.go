package config

import (
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
)

// Validate проверяет конфигурацию и возвращает все найденные ошибки.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Mode {
	case StoragePostgres:
		if c.DB.URL == "" {
			errs = append(errs, errors.New("db.url is required for postgres storage"))
		}
	case StorageMemory:
		if c.Storage.Catalog == "" {
			errs = append(errs, errors.New("storage.catalog is required for memory storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.mode: unknown mode %q", c.Storage.Mode))
	}

	for name, p := range map[string]int{"api.port": c.API.Port, "worker.port": c.Worker.Port} {
		if p <= 0 || p > 65535 {
			errs = append(errs, fmt.Errorf("%s: out of range: %d", name, p))
		}
	}

	switch c.Log.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}

	if c.Audit.Cron != "" {
		if _, err := cron.ParseStandard(c.Audit.Cron); err != nil {
			errs = append(errs, fmt.Errorf("audit.cron: %w", err))
		}
	}

	return errors.Join(errs...)
}

// APIAddr возвращает адрес HTTP-сервера API.
func (c *Config) APIAddr() string {
	return fmt.Sprintf(":%d", c.API.Port)
}

// WorkerAddr возвращает адрес HTTP-сервера воркера (/healthz, /metrics).
func (c *Config) WorkerAddr() string {
	return fmt.Sprintf(":%d", c.Worker.Port)
}

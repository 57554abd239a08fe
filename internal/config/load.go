package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// EnvConfigPath — переменная с путём к TOML-файлу.
const EnvConfigPath = "PROCEDURA_CONFIG"

// Load собирает конфигурацию: defaults → TOML-файл → окружение.
//
// path == "" — берётся из PROCEDURA_CONFIG; если и он пуст, файл не читается.
// Неизвестные ключи в файле — ошибка.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if path == "" {
		path, _ = lookup(EnvConfigPath)
	}
	if path != "" {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("loading config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
		}
	}

	if err := applyEnv(cfg, lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv переопределяет значения переменными окружения.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	port := func(name string, dst *int) error {
		v, ok := lookup(name)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: invalid port %q", name, v)
		}
		*dst = n
		return nil
	}

	str("DB_URL", &cfg.DB.URL)
	str("RABBITMQ_URL", &cfg.MQ.URL)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)
	str("PROCEDURA_STORAGE", &cfg.Storage.Mode)
	str("PROCEDURA_CATALOG", &cfg.Storage.Catalog)
	str("AUDIT_CRON", &cfg.Audit.Cron)

	if err := port("API_PORT", &cfg.API.Port); err != nil {
		return err
	}
	if err := port("WORKER_PORT", &cfg.Worker.Port); err != nil {
		return err
	}

	if v, ok := lookup("DB_AUTO_MIGRATE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("DB_AUTO_MIGRATE: invalid bool %q", v)
		}
		cfg.DB.AutoMigrate = b
	}
	return nil
}

package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/hrentities/internal/paths"
	"github.com/mesh-intelligence/hrentities/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	envPrefix      = "HRCTL"
)

// configKeys lists every key read from config.yaml. Each is also bound to
// an HRCTL_ environment variable, with dots replaced by underscores.
var configKeys = []string{
	"api_url",
	"api_version",
	"api_token",
	"instance_code",
	"timeout",
	"username",
	"employee_id",
	"security_group",
	"ess_group",
	"cache.backend",
	"cache.ttl",
	"cache.redis_addr",
	"cache.redis_password",
	"cache.redis_db",
	"cache.data_dir",
	"log.level",
	"log.dir",
	"log.max_size",
	"log.max_backups",
	"log.max_age",
	"log.compress",
}

// loadConfig builds the client config from config.yaml in configDir, .env
// files and HRCTL_ environment variables. Environment wins over the file.
// A missing config.yaml is not an error.
func loadConfig(configDirFlag, dataDirFlag string) (types.Config, error) {
	configDir, err := paths.ResolveConfigDir(configDirFlag)
	if err != nil {
		return types.Config{}, &sysError{fmt.Errorf("resolve config dir: %w", err)}
	}
	if err := loadDotEnv(filepath.Join(configDir, paths.EnvFileName), paths.EnvFileName); err != nil {
		return types.Config{}, err
	}

	v := viper.New()
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range configKeys {
		if err := v.BindEnv(key); err != nil {
			return types.Config{}, fmt.Errorf("bind %s: %w", key, err)
		}
	}
	v.SetDefault("api_url", types.DefaultAPIURL)
	v.SetDefault("api_version", types.DefaultAPIVersion)
	v.SetDefault("cache.backend", types.CacheNone)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return types.Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decode config: %w", err)
	}

	if cfg.Cache.Backend == types.CacheSQLite || dataDirFlag != "" {
		dataDir, err := paths.ResolveDataDir(dataDirFlag, cfg.Cache.DataDir)
		if err != nil {
			return types.Config{}, &sysError{fmt.Errorf("resolve data dir: %w", err)}
		}
		cfg.Cache.DataDir = dataDir
	}
	if cfg.Log.Dir != "" && !filepath.IsAbs(cfg.Log.Dir) && cfg.Cache.DataDir != "" {
		cfg.Log.Dir = filepath.Join(cfg.Cache.DataDir, cfg.Log.Dir)
	}
	return cfg, nil
}

// loadDotEnv loads each .env file that exists. Variables already set in the
// environment are kept.
func loadDotEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

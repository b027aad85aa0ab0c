package types

import (
	"errors"
	"time"
)

// Config holds everything needed to build a client: API location and
// credentials, the user permission checks run for, metadata caching and
// logging.
type Config struct {
	APIURL       string        `json:"api_url" yaml:"api_url" mapstructure:"api_url"`
	APIVersion   string        `json:"api_version" yaml:"api_version" mapstructure:"api_version"`
	APIToken     string        `json:"api_token" yaml:"api_token" mapstructure:"api_token"`
	InstanceCode string        `json:"instance_code" yaml:"instance_code" mapstructure:"instance_code"`
	Timeout      time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	UserName      string `json:"username" yaml:"username" mapstructure:"username"`
	EmployeeID    *int64 `json:"employee_id,omitempty" yaml:"employee_id,omitempty" mapstructure:"employee_id"`
	SecurityGroup int    `json:"security_group" yaml:"security_group" mapstructure:"security_group"`
	EssGroup      bool   `json:"ess_group" yaml:"ess_group" mapstructure:"ess_group"`

	Cache CacheConfig `json:"cache" yaml:"cache" mapstructure:"cache"`
	Log   LogConfig   `json:"log" yaml:"log" mapstructure:"log"`
}

// CacheConfig selects the second-level metadata store shared between
// managers. The in-process cache is always on.
type CacheConfig struct {
	Backend       string        `json:"backend" yaml:"backend" mapstructure:"backend"`
	TTL           time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`
	RedisAddr     string        `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty" mapstructure:"redis_addr"`
	RedisPassword string        `json:"redis_password,omitempty" yaml:"redis_password,omitempty" mapstructure:"redis_password"`
	RedisDB       int           `json:"redis_db,omitempty" yaml:"redis_db,omitempty" mapstructure:"redis_db"`
	DataDir       string        `json:"data_dir,omitempty" yaml:"data_dir,omitempty" mapstructure:"data_dir"`
}

// LogConfig controls the logrus logger. An empty Dir logs to stderr only.
type LogConfig struct {
	Level      string `json:"level" yaml:"level" mapstructure:"level"`
	Dir        string `json:"dir,omitempty" yaml:"dir,omitempty" mapstructure:"dir"`
	MaxSize    int    `json:"max_size,omitempty" yaml:"max_size,omitempty" mapstructure:"max_size"`
	MaxBackups int    `json:"max_backups,omitempty" yaml:"max_backups,omitempty" mapstructure:"max_backups"`
	MaxAge     int    `json:"max_age,omitempty" yaml:"max_age,omitempty" mapstructure:"max_age"`
	Compress   bool   `json:"compress,omitempty" yaml:"compress,omitempty" mapstructure:"compress"`
}

// Supported metadata cache backends.
const (
	CacheNone   = "none"
	CacheRedis  = "redis"
	CacheSQLite = "sqlite"
)

// Defaults applied by WithDefaults.
const (
	DefaultAPIURL     = "https://api.subscribe-hr.com"
	DefaultAPIVersion = "v1"
	DefaultTimeout    = 30 * time.Second
	DefaultCacheTTL   = time.Hour
)

// Config validation errors.
var (
	ErrAPIURLEmpty         = errors.New("api url must not be empty")
	ErrInstanceCodeEmpty   = errors.New("instance code must not be empty")
	ErrCacheBackendUnknown = errors.New("unknown cache backend")
	ErrCacheRedisAddrEmpty = errors.New("redis cache requires redis_addr")
	ErrCacheDataDirEmpty   = errors.New("sqlite cache requires data_dir")
	ErrTimeoutInvalid      = errors.New("timeout must not be negative")
)

var knownCacheBackends = map[string]bool{
	"":          true,
	CacheNone:   true,
	CacheRedis:  true,
	CacheSQLite: true,
}

// WithDefaults returns a copy of c with empty settings filled in.
func (c Config) WithDefaults() Config {
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	if c.APIVersion == "" {
		c.APIVersion = DefaultAPIVersion
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheNone
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = DefaultCacheTTL
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	return c
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.APIURL == "" {
		return ErrAPIURLEmpty
	}
	if c.InstanceCode == "" {
		return ErrInstanceCodeEmpty
	}
	if c.Timeout < 0 {
		return ErrTimeoutInvalid
	}
	if !knownCacheBackends[c.Cache.Backend] {
		return ErrCacheBackendUnknown
	}
	switch c.Cache.Backend {
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return ErrCacheRedisAddrEmpty
		}
	case CacheSQLite:
		if c.Cache.DataDir == "" {
			return ErrCacheDataDirEmpty
		}
	}
	return nil
}

// User builds the identity described by the config.
func (c Config) User() *User {
	group := NewGroup(c.SecurityGroup, c.EssGroup)
	if c.EmployeeID != nil {
		return NewEmployeeUser(c.UserName, *c.EmployeeID, group)
	}
	return NewUser(c.UserName, group)
}

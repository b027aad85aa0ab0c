package types

import (
	"errors"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "empty api url returns ErrAPIURLEmpty",
			config:  Config{InstanceCode: "acme"},
			wantErr: ErrAPIURLEmpty,
		},
		{
			name:    "empty instance code returns ErrInstanceCodeEmpty",
			config:  Config{APIURL: "https://api.example.com"},
			wantErr: ErrInstanceCodeEmpty,
		},
		{
			name:    "unknown cache backend returns ErrCacheBackendUnknown",
			config:  Config{APIURL: "https://api.example.com", InstanceCode: "acme", Cache: CacheConfig{Backend: "memcached"}},
			wantErr: ErrCacheBackendUnknown,
		},
		{
			name:    "redis backend without address",
			config:  Config{APIURL: "https://api.example.com", InstanceCode: "acme", Cache: CacheConfig{Backend: CacheRedis}},
			wantErr: ErrCacheRedisAddrEmpty,
		},
		{
			name:    "sqlite backend without data dir",
			config:  Config{APIURL: "https://api.example.com", InstanceCode: "acme", Cache: CacheConfig{Backend: CacheSQLite}},
			wantErr: ErrCacheDataDirEmpty,
		},
		{
			name:    "negative timeout",
			config:  Config{APIURL: "https://api.example.com", InstanceCode: "acme", Timeout: -time.Second},
			wantErr: ErrTimeoutInvalid,
		},
		{
			name:    "valid config without cache",
			config:  Config{APIURL: "https://api.example.com", InstanceCode: "acme"},
			wantErr: nil,
		},
		{
			name: "valid redis config",
			config: Config{APIURL: "https://api.example.com", InstanceCode: "acme",
				Cache: CacheConfig{Backend: CacheRedis, RedisAddr: "localhost:6379"}},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %v, got nil", tt.wantErr)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{InstanceCode: "acme"}.WithDefaults()

	if cfg.APIURL != DefaultAPIURL {
		t.Errorf("APIURL = %q, want %q", cfg.APIURL, DefaultAPIURL)
	}
	if cfg.APIVersion != DefaultAPIVersion {
		t.Errorf("APIVersion = %q, want %q", cfg.APIVersion, DefaultAPIVersion)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", cfg.Timeout, DefaultTimeout)
	}
	if cfg.Cache.Backend != CacheNone {
		t.Errorf("Cache.Backend = %q, want %q", cfg.Cache.Backend, CacheNone)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate after WithDefaults: %v", err)
	}
}

func TestConfigUser(t *testing.T) {
	id := int64(42)
	u := Config{UserName: "jdoe", EmployeeID: &id, SecurityGroup: 7, EssGroup: true}.User()

	if u.UserName() != "jdoe" {
		t.Errorf("UserName = %q, want jdoe", u.UserName())
	}
	got, ok := u.EmployeeID()
	if !ok || got != 42 {
		t.Errorf("EmployeeID = %d, %v; want 42, true", got, ok)
	}
	if u.Group().ID() != 7 || !u.Group().IsEss() {
		t.Errorf("Group = %+v, want id 7 ess", u.Group())
	}

	anon := Config{UserName: "svc", SecurityGroup: 1}.User()
	if _, ok := anon.EmployeeID(); ok {
		t.Error("EmployeeID should be undefined when not configured")
	}
}

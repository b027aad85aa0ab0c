package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/hrentities/internal/paths"
	"github.com/mesh-intelligence/hrentities/pkg/types"
)

// configFile holds the structure written to config.yaml.
type configFile struct {
	APIURL        string       `yaml:"api_url"`
	APIVersion    string       `yaml:"api_version"`
	InstanceCode  string       `yaml:"instance_code"`
	UserName      string       `yaml:"username,omitempty"`
	SecurityGroup int          `yaml:"security_group"`
	Timeout       string       `yaml:"timeout"`
	Cache         cacheSection `yaml:"cache"`
	Log           logSection   `yaml:"log"`
}

type cacheSection struct {
	Backend string `yaml:"backend"`
	TTL     string `yaml:"ttl"`
	DataDir string `yaml:"data_dir,omitempty"`
}

type logSection struct {
	Level string `yaml:"level"`
}

type initOptions struct {
	apiURL        string
	instance      string
	userName      string
	securityGroup int
}

func newInitCmd() *cobra.Command {
	var opts initOptions
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration",
		Long:  "Create the configuration and data directories and write config.yaml\nunless it already exists.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.apiURL, "api-url", types.DefaultAPIURL, "HR API base URL")
	cmd.Flags().StringVar(&opts.instance, "instance", "", "instance (company) code")
	cmd.Flags().StringVar(&opts.userName, "username", "", "user name")
	cmd.Flags().IntVar(&opts.securityGroup, "security-group", 0, "security group id of the user")
	return cmd
}

func runInit(cmd *cobra.Command, opts initOptions) error {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return &sysError{fmt.Errorf("resolve config dir: %w", err)}
	}
	dataDir, err := paths.ResolveDataDir(flags.dataDir, "")
	if err != nil {
		return &sysError{fmt.Errorf("resolve data dir: %w", err)}
	}
	for _, dir := range []string{configDir, dataDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &sysError{fmt.Errorf("create directory: %w", err)}
		}
	}

	path := paths.ConfigFile(configDir)
	cfg := configFile{
		APIURL:        opts.apiURL,
		APIVersion:    types.DefaultAPIVersion,
		InstanceCode:  opts.instance,
		UserName:      opts.userName,
		SecurityGroup: opts.securityGroup,
		Timeout:       types.DefaultTimeout.String(),
		Cache: cacheSection{
			Backend: types.CacheSQLite,
			TTL:     types.DefaultCacheTTL.String(),
			DataDir: dataDir,
		},
		Log: logSection{Level: "info"},
	}
	written, err := writeConfigIfMissing(path, cfg)
	if err != nil {
		return &sysError{fmt.Errorf("write config: %w", err)}
	}

	if written {
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Config already exists at %s\n", path)
	}
	return nil
}

// writeConfigIfMissing creates the config file unless it exists. It reports
// whether the file was written.
func writeConfigIfMissing(path string, cfg configFile) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return false, err
	}
	return true, nil
}

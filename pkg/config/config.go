package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultGitLabURL = "https://gitlab.com"
	DefaultLogLevel  = "info"
)

var (
	ErrMissingGitLabProject     = errors.New("GitLab repository is required (--gitlab-repo or GITLAB_REPO)")
	ErrMissingGitHubRepo        = errors.New("GitHub repository is required (--github-repo or GITHUB_REPO)")
	ErrMissingGitHubCredentials = errors.New("GitHub token or GitHub App settings are required (--github-token or GITHUB_TOKEN)")
	ErrInvalidRetryAttempts     = errors.New("retry attempts must be zero (unbounded) or positive")
	ErrInvalidIssueID           = errors.New("issue ids must be positive integers")
)

type GlobalConfig struct {
	GitLabToken               string
	GitLabURL                 string
	GitLabProject             string
	GitHubToken               string
	GitHubURL                 string // empty for github.com
	GitHubAppID               int
	GitHubAppInstallationID   int
	GitHubAppPrivateKey       string
	GitHubAppPrivateKeyAsFile bool
	GitHubRepo                string // owner/repo
	LogLevel                  string
}

type MigrateConfig struct {
	Pace               time.Duration // 各書き込み前の待機時間
	RetryDelay         time.Duration // 最初の失敗後の待機時間
	RetryStep          time.Duration // 失敗ごとに増える待機時間
	RetryAttempts      int           // 0の場合は成功するまで無限にリトライ
	RetryTransientOnly bool
	ExcludedLabels     []string
	FilterIssueIIDs    []int
	RewriteReferences  bool
	AssumeYes          bool
}

// Keys shared by flags, env variables and config files
const (
	KeyGitLabToken               = "gitlab-token"
	KeyGitLabURL                 = "gitlab-url"
	KeyGitLabRepo                = "gitlab-repo"
	KeyGitHubToken               = "github-token"
	KeyGitHubURL                 = "github-url"
	KeyGitHubAppID               = "github-app-id"
	KeyGitHubAppInstallationID   = "github-app-installation-id"
	KeyGitHubAppPrivateKey       = "github-app-private-key"
	KeyGitHubAppPrivateKeyAsFile = "github-app-private-key-as-file"
	KeyGitHubRepo                = "github-repo"
	KeyLogLevel                  = "log-level"

	KeyPace               = "pace"
	KeyRetryDelay         = "retry-delay"
	KeyRetryStep          = "retry-step"
	KeyRetryAttempts      = "retry-attempts"
	KeyRetryTransientOnly = "retry-transient-only"
	KeyExcludeLabel       = "exclude-label"
	KeyIssueIDs           = "issue-ids"
	KeyRewriteReferences  = "rewrite-references"
	KeyYes                = "yes"
)

// NewViper binds flags to a viper instance. Explicit flags win over env variables,
// which are the upper-cased keys (GITHUB_TOKEN, GITLAB_REPO, ...).
func NewViper(flags ...*pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	// GITHUB_API_TOKEN is accepted as well
	if err := v.BindEnv(KeyGitHubToken, "GITHUB_TOKEN", "GITHUB_API_TOKEN"); err != nil {
		return nil, err
	}
	for _, fs := range flags {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}
	return v, nil
}

// ReadConfigFile merges a YAML/TOML/JSON file keyed like the flags
func ReadConfigFile(v *viper.Viper, path string) error {
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return nil
}

// LoadGlobal reads the global configuration from v
func LoadGlobal(v *viper.Viper) (GlobalConfig, error) {
	cfg := GlobalConfig{
		GitLabToken:               v.GetString(KeyGitLabToken),
		GitLabURL:                 v.GetString(KeyGitLabURL),
		GitLabProject:             v.GetString(KeyGitLabRepo),
		GitHubToken:               v.GetString(KeyGitHubToken),
		GitHubURL:                 v.GetString(KeyGitHubURL),
		GitHubAppID:               v.GetInt(KeyGitHubAppID),
		GitHubAppInstallationID:   v.GetInt(KeyGitHubAppInstallationID),
		GitHubAppPrivateKey:       v.GetString(KeyGitHubAppPrivateKey),
		GitHubAppPrivateKeyAsFile: v.GetBool(KeyGitHubAppPrivateKeyAsFile),
		GitHubRepo:                v.GetString(KeyGitHubRepo),
		LogLevel:                  v.GetString(KeyLogLevel),
	}
	if cfg.GitLabURL == "" {
		cfg.GitLabURL = DefaultGitLabURL
	}
	cfg.GitLabURL = strings.TrimSuffix(cfg.GitLabURL, "/")
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	if cfg.GitHubAppPrivateKeyAsFile && cfg.GitHubAppPrivateKey != "" {
		privateKey, err := os.ReadFile(cfg.GitHubAppPrivateKey)
		if err != nil {
			return cfg, fmt.Errorf("could not read private key %s: %w", cfg.GitHubAppPrivateKey, err)
		}
		cfg.GitHubAppPrivateKey = string(privateKey)
	}
	return cfg, nil
}

// LoadMigrate reads the migrate command configuration from v
func LoadMigrate(v *viper.Viper) (MigrateConfig, error) {
	issueIDs, err := intList(v, KeyIssueIDs)
	if err != nil {
		return MigrateConfig{}, err
	}
	return MigrateConfig{
		Pace:               v.GetDuration(KeyPace),
		RetryDelay:         v.GetDuration(KeyRetryDelay),
		RetryStep:          v.GetDuration(KeyRetryStep),
		RetryAttempts:      v.GetInt(KeyRetryAttempts),
		RetryTransientOnly: v.GetBool(KeyRetryTransientOnly),
		ExcludedLabels:     stringList(v, KeyExcludeLabel),
		FilterIssueIIDs:    issueIDs,
		RewriteReferences:  v.GetBool(KeyRewriteReferences),
		AssumeYes:          v.GetBool(KeyYes),
	}, nil
}

// stringList reads a list given as repeated flags, a config file list,
// or a comma separated string from env variables and config files.
func stringList(v *viper.Viper, key string) []string {
	switch val := v.Get(key).(type) {
	case nil:
		return nil
	case string:
		return splitComma(val)
	case []string:
		return val
	case []int:
		ret := make([]string, 0, len(val))
		for _, n := range val {
			ret = append(ret, strconv.Itoa(n))
		}
		return ret
	case []interface{}:
		ret := make([]string, 0, len(val))
		for _, item := range val {
			ret = append(ret, cast.ToString(item))
		}
		return ret
	default:
		return cast.ToStringSlice(val)
	}
}

func splitComma(s string) []string {
	var ret []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			ret = append(ret, item)
		}
	}
	return ret
}

func intList(v *viper.Viper, key string) ([]int, error) {
	items := stringList(v, key)
	if len(items) == 0 {
		return nil, nil
	}
	ret := make([]int, 0, len(items))
	for _, item := range items {
		n, err := strconv.Atoi(strings.TrimSpace(item))
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidIssueID, item)
		}
		ret = append(ret, n)
	}
	return ret, nil
}

// UsesGitHubApp reports whether App credentials are complete
func (c GlobalConfig) UsesGitHubApp() bool {
	return c.GitHubAppID > 0 && c.GitHubAppInstallationID > 0 && c.GitHubAppPrivateKey != ""
}

// Validate fails fast on missing settings before any network call
func (c GlobalConfig) Validate() error {
	var errs []error
	if c.GitLabProject == "" {
		errs = append(errs, ErrMissingGitLabProject)
	}
	if c.GitHubRepo == "" {
		errs = append(errs, ErrMissingGitHubRepo)
	}
	if c.GitHubToken == "" && !c.UsesGitHubApp() {
		errs = append(errs, ErrMissingGitHubCredentials)
	}
	return errors.Join(errs...)
}

// Validate checks the retry settings
func (c MigrateConfig) Validate() error {
	if c.RetryAttempts < 0 {
		return ErrInvalidRetryAttempts
	}
	return nil
}

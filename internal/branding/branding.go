// Package branding provides compile-time identity values for the launcher.
//
// Forkers edit branding.yaml in this package before building; Go's
// //go:embed bakes it into the binary.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName     string `yaml:"cli_name"`
	DisplayName string `yaml:"display_name"`
	Description string `yaml:"description"`
	HomeDir     string `yaml:"home_dir"`
	EnvPrefix   string `yaml:"env_prefix"`
	GoModule    string `yaml:"go_module"`
	GitHubRepo  string `yaml:"github_repo"`
	RegistryURL string `yaml:"registry_url"`
}

func load() {
	once.Do(func() {
		// Hard defaults in case the embedded file is missing or empty.
		defaults = brand{
			CLIName:     "pointy",
			DisplayName: "Pointy",
			Description: "Quick launcher for clipboard extensions",
			HomeDir:     ".pointy",
			EnvPrefix:   "POINTY",
			GoModule:    "github.com/pointy-labs/pointy",
			GitHubRepo:  "pointy-labs/pointy",
			RegistryURL: "https://extensions.pointy.dev/index.json",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "pointy").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name (e.g., "Pointy").
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME (e.g., ".pointy").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "POINTY").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// GitHubRepo returns the "owner/repo" string of the launcher itself.
func GitHubRepo() string { load(); return defaults.GitHubRepo }

// RegistryURL returns the default URL of the online extension index.
func RegistryURL() string { load(); return defaults.RegistryURL }

// UserAgent returns the User-Agent sent with every outgoing request.
func UserAgent() string { load(); return defaults.CLIName + "-launcher" }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("HOME") → "POINTY_HOME".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}

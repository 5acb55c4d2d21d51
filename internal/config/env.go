package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/mrz1836/go-sanitize"
)

// Environment variable names.
const (
	EnvHome           = "CROSSDROP_HOME"
	EnvSourceRPC      = "CROSSDROP_SOURCE_RPC"
	EnvDestRPC        = "CROSSDROP_DEST_RPC"
	EnvSourceContract = "CROSSDROP_SOURCE_CONTRACT"
	EnvDestContract   = "CROSSDROP_DEST_CONTRACT"
	EnvTokenAddress   = "CROSSDROP_TOKEN_ADDRESS"
	EnvAxelarAPI      = "CROSSDROP_AXELAR_API"
	EnvKeystore       = "CROSSDROP_KEYSTORE"
	EnvOutputFormat   = "CROSSDROP_OUTPUT_FORMAT"
	EnvVerbose        = "CROSSDROP_VERBOSE"
	EnvLogLevel       = "CROSSDROP_LOG_LEVEL"
	EnvNoColor        = "NO_COLOR"
)

// Variable names used by the Next.js dApp deployment. They are honoured
// when the CROSSDROP_* equivalent is unset so an existing .env keeps working.
const (
	EnvLegacySourceContract = "NEXT_PUBLIC_POLYGON_CONTRACT_ADDRESS"
	EnvLegacyDestContract   = "NEXT_PUBLIC_AVALANCHE_CONTRACT_ADDRESS"
	EnvLegacyDestRPC        = "NEXT_PUBLIC_AVALANCHE_RPC_URL"
)

// ApplyEnvironment applies environment variable overrides to the configuration.
//
//nolint:gocognit,gocyclo // Environment variable overrides require sequential checks
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvHome); v != "" {
		cfg.Home = v
	}

	if v := firstEnv(EnvSourceRPC); v != "" {
		cfg.Source.RPC = SanitizeURL(v)
	}
	if v := firstEnv(EnvDestRPC, EnvLegacyDestRPC); v != "" {
		cfg.Destination.RPC = SanitizeURL(v)
	}
	if v := firstEnv(EnvSourceContract, EnvLegacySourceContract); v != "" {
		cfg.Source.Contract = strings.TrimSpace(v)
	}
	if v := firstEnv(EnvDestContract, EnvLegacyDestContract); v != "" {
		cfg.Destination.Contract = strings.TrimSpace(v)
	}
	if v := os.Getenv(EnvTokenAddress); v != "" {
		cfg.Token.Address = strings.TrimSpace(v)
	}
	if v := os.Getenv(EnvAxelarAPI); v != "" {
		cfg.Axelar.APIURL = SanitizeURL(v)
	}
	if v := os.Getenv(EnvKeystore); v != "" {
		cfg.Tx.Keystore = strings.TrimSpace(v)
	}

	if v := os.Getenv(EnvOutputFormat); v != "" {
		cfg.Output.DefaultFormat = strings.ToLower(v)
	}
	if v := os.Getenv(EnvVerbose); v != "" {
		cfg.Output.Verbose = parseBool(v)
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}

	// NO_COLOR disables colored output
	if _, ok := os.LookupEnv(EnvNoColor); ok {
		cfg.Output.Color = "never"
	}
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// parseBool parses a boolean string value.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "1" || s == "true" || s == "yes" || s == "on" {
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}

// SanitizeURL cleans a URL string by removing invalid characters and trimming whitespace.
// RPC URLs pasted from provider dashboards often carry stray quotes or spaces.
func SanitizeURL(url string) string {
	return sanitize.URL(strings.TrimSpace(url))
}

package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	droperr "github.com/mrz1836/crossdrop/pkg/errors"
)

var (
	// ErrInsecureRPCURL is returned for plain http/ws URLs that are not loopback.
	ErrInsecureRPCURL = errors.New("rpc url must use https or wss unless it points at localhost")

	// ErrUnsupportedScheme is returned for URLs that are not http(s) or ws(s).
	ErrUnsupportedScheme = errors.New("unsupported url scheme")
)

// ValidateRPCURL checks that raw is an http(s)/ws(s) URL and that plaintext
// transports are only used against loopback hosts. Empty is allowed.
func ValidateRPCURL(raw string) error {
	if raw == "" {
		return nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parsing url: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "https", "wss":
		if u.Host == "" {
			return fmt.Errorf("%w: missing host", ErrUnsupportedScheme)
		}
		return nil
	case "http", "ws":
		if isLoopback(u.Hostname()) {
			return nil
		}
		return ErrInsecureRPCURL
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}

func isLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// Validate checks the configuration for values that would fail at runtime.
// Contract addresses may be empty; commands that need them check separately.
//
//nolint:gocognit,gocyclo // Field checks are sequential
func (c *Config) Validate() error {
	for _, side := range []struct {
		key string
		n   NetworkConfig
	}{{"source", c.Source}, {"destination", c.Destination}} {
		if side.n.ChainID <= 0 {
			return invalid(side.key+".chain_id", fmt.Sprint(side.n.ChainID))
		}
		if side.n.AxelarName == "" {
			return invalid(side.key+".axelar_name", "")
		}
		if err := ValidateRPCURL(side.n.RPC); err != nil {
			return droperr.WithCause(invalid(side.key+".rpc", side.n.RPC), err)
		}
		for _, fb := range side.n.FallbackRPCs {
			if err := ValidateRPCURL(fb); err != nil {
				return droperr.WithCause(invalid(side.key+".fallback_rpcs", fb), err)
			}
		}
		if side.n.Contract != "" && !common.IsHexAddress(side.n.Contract) {
			return invalid(side.key+".contract", side.n.Contract)
		}
	}

	if c.Source.ChainID == c.Destination.ChainID {
		return droperr.WithSuggestion(
			invalid("destination.chain_id", fmt.Sprint(c.Destination.ChainID)),
			"source and destination must be different chains",
		)
	}

	if c.Token.Address != "" && !common.IsHexAddress(c.Token.Address) {
		return invalid("token.address", c.Token.Address)
	}
	if c.Token.Decimals < 0 || c.Token.Decimals > 36 {
		return invalid("token.decimals", fmt.Sprint(c.Token.Decimals))
	}
	if c.Token.Symbol == "" {
		return invalid("token.symbol", "")
	}

	if err := ValidateRPCURL(c.Axelar.APIURL); err != nil {
		return droperr.WithCause(invalid("axelar.api_url", c.Axelar.APIURL), err)
	}
	if c.Axelar.GasLimit == 0 {
		return invalid("axelar.gas_limit", "0")
	}
	if c.Axelar.GasMultiplier <= 0 {
		return invalid("axelar.gas_multiplier", fmt.Sprint(c.Axelar.GasMultiplier))
	}

	for key, addr := range map[string]string{"deploy.gateway": c.Deploy.Gateway, "deploy.gas_service": c.Deploy.GasService} {
		if addr != "" && !common.IsHexAddress(addr) {
			return invalid(key, addr)
		}
	}

	if c.Tx.PollInterval <= 0 {
		return invalid("tx.poll_interval", c.Tx.PollInterval.String())
	}
	if c.Tx.GasMargin < 1 {
		return invalid("tx.gas_margin", fmt.Sprint(c.Tx.GasMargin))
	}
	if c.Watch.Interval <= 0 {
		return invalid("watch.interval", c.Watch.Interval.String())
	}

	switch c.Output.DefaultFormat {
	case "auto", "text", "json":
	default:
		return invalid("output.default_format", c.Output.DefaultFormat)
	}
	switch c.Output.Color {
	case "auto", "always", "never":
	default:
		return invalid("output.color", c.Output.Color)
	}
	switch c.Logging.Level {
	case "off", "none", "error", "info", "debug":
	default:
		return invalid("logging.level", c.Logging.Level)
	}

	return nil
}

func invalid(field, value string) error {
	return droperr.WithDetails(droperr.ErrConfigInvalid, map[string]string{
		"field": field,
		"value": value,
	})
}

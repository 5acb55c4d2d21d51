package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"

	"github.com/mrz1836/crossdrop/internal/chain"
	droperr "github.com/mrz1836/crossdrop/pkg/errors"
)

type accessor struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringField(ptr func(c *Config) *string) accessor {
	return accessor{
		get: func(c *Config) string { return *ptr(c) },
		set: func(c *Config, v string) error { *ptr(c) = v; return nil },
	}
}

func urlField(ptr func(c *Config) *string) accessor {
	return accessor{
		get: func(c *Config) string { return *ptr(c) },
		set: func(c *Config, v string) error {
			v = SanitizeURL(v)
			if err := ValidateRPCURL(v); err != nil {
				return err
			}
			*ptr(c) = v
			return nil
		},
	}
}

func durationField(ptr func(c *Config) *time.Duration) accessor {
	return accessor{
		get: func(c *Config) string { return ptr(c).String() },
		set: func(c *Config, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return err
			}
			*ptr(c) = d
			return nil
		},
	}
}

func networkField(ptr func(c *Config) *NetworkConfig) accessor {
	return accessor{
		get: func(c *Config) string { return ptr(c).Name },
		set: func(c *Config, v string) error {
			n, err := chain.NetworkByName(v)
			if err != nil {
				return err
			}
			nc := ptr(c)
			nc.Name = string(n.Name)
			nc.AxelarName = n.AxelarName
			nc.ChainID = n.ChainID
			nc.RPC = n.RPC
			nc.FallbackRPCs = append([]string(nil), n.FallbackRPCs...)
			return nil
		},
	}
}

//nolint:gochecknoglobals // Static table of settable keys
var accessors = map[string]accessor{
	"home":                 stringField(func(c *Config) *string { return &c.Home }),
	"source.network":       networkField(func(c *Config) *NetworkConfig { return &c.Source }),
	"source.rpc":           urlField(func(c *Config) *string { return &c.Source.RPC }),
	"source.contract":      stringField(func(c *Config) *string { return &c.Source.Contract }),
	"destination.network":  networkField(func(c *Config) *NetworkConfig { return &c.Destination }),
	"destination.rpc":      urlField(func(c *Config) *string { return &c.Destination.RPC }),
	"destination.contract": stringField(func(c *Config) *string { return &c.Destination.Contract }),
	"token.symbol":         stringField(func(c *Config) *string { return &c.Token.Symbol }),
	"token.address":        stringField(func(c *Config) *string { return &c.Token.Address }),
	"token.decimals": {
		get: func(c *Config) string { return strconv.Itoa(c.Token.Decimals) },
		set: func(c *Config, v string) error {
			d, err := strconv.Atoi(v)
			if err != nil {
				return err
			}
			c.Token.Decimals = d
			return nil
		},
	},
	"axelar.api_url":   urlField(func(c *Config) *string { return &c.Axelar.APIURL }),
	"axelar.gas_token": stringField(func(c *Config) *string { return &c.Axelar.GasToken }),
	"axelar.gas_limit": {
		get: func(c *Config) string { return strconv.FormatUint(c.Axelar.GasLimit, 10) },
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return err
			}
			c.Axelar.GasLimit = n
			return nil
		},
	},
	"axelar.gas_multiplier": {
		get: func(c *Config) string { return strconv.FormatFloat(c.Axelar.GasMultiplier, 'f', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return err
			}
			c.Axelar.GasMultiplier = f
			return nil
		},
	},
	"axelar.cache_ttl":      durationField(func(c *Config) *time.Duration { return &c.Axelar.CacheTTL }),
	"deploy.network":        stringField(func(c *Config) *string { return &c.Deploy.Network }),
	"deploy.gateway":        stringField(func(c *Config) *string { return &c.Deploy.Gateway }),
	"deploy.gas_service":    stringField(func(c *Config) *string { return &c.Deploy.GasService }),
	"deploy.artifact":       stringField(func(c *Config) *string { return &c.Deploy.Artifact }),
	"tx.keystore":           stringField(func(c *Config) *string { return &c.Tx.Keystore }),
	"tx.poll_interval":      durationField(func(c *Config) *time.Duration { return &c.Tx.PollInterval }),
	"tx.receipt_timeout":    durationField(func(c *Config) *time.Duration { return &c.Tx.ReceiptTimeout }),
	"watch.interval":        durationField(func(c *Config) *time.Duration { return &c.Watch.Interval }),
	"server.addr":           stringField(func(c *Config) *string { return &c.Server.Addr }),
	"output.default_format": stringField(func(c *Config) *string { return &c.Output.DefaultFormat }),
	"output.color":          stringField(func(c *Config) *string { return &c.Output.Color }),
	"output.verbose": {
		get: func(c *Config) string { return strconv.FormatBool(c.Output.Verbose) },
		set: func(c *Config, v string) error { c.Output.Verbose = parseBool(v); return nil },
	},
	"logging.level": stringField(func(c *Config) *string { return &c.Logging.Level }),
	"logging.file":  stringField(func(c *Config) *string { return &c.Logging.File }),
}

// Keys returns every settable key in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(accessors))
	for k := range accessors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value stored under a dotted key such as "output.color".
func (c *Config) Get(key string) (string, error) {
	a, err := lookup(key)
	if err != nil {
		return "", err
	}
	return a.get(c), nil
}

// Set parses value into the dotted key and re-validates the result.
// The configuration is left unchanged when the new value is rejected.
func (c *Config) Set(key, value string) error {
	a, err := lookup(key)
	if err != nil {
		return err
	}

	next := *c
	if err := a.set(&next, strings.TrimSpace(value)); err != nil {
		return droperr.WithCause(invalid(key, value), err)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

func lookup(key string) (accessor, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if a, ok := accessors[key]; ok {
		return a, nil
	}

	err := droperr.WithDetails(droperr.ErrUnknownConfigKey, map[string]string{"key": key})
	best, bestDist := "", 4
	for _, k := range Keys() {
		if d := levenshtein.ComputeDistance(key, k); d < bestDist {
			best, bestDist = k, d
		}
	}
	if best != "" {
		return accessor{}, droperr.WithSuggestion(err, fmt.Sprintf("did you mean %s?", best))
	}
	return accessor{}, droperr.WithSuggestion(err, "run 'crossdrop config keys' to list valid keys")
}

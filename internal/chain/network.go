// Package chain holds network definitions and the chain-agnostic helpers
// shared by the EVM client and the Axelar fee estimator: decimal amounts,
// retry with backoff, and per-endpoint rate limiting.
package chain

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	droperr "github.com/mrz1836/crossdrop/pkg/errors"
)

// Name identifies a network by its lowercase config key.
type Name string

// Known networks. All defaults point at testnets.
const (
	Polygon   Name = "polygon"
	Avalanche Name = "avalanche"
	Ethereum  Name = "ethereum"
	Fantom    Name = "fantom"
	Moonbeam  Name = "moonbeam"
)

// String returns the network key.
func (n Name) String() string {
	return string(n)
}

// Network describes an EVM network reachable through the Axelar gateway.
type Network struct {
	Name         Name     `json:"name"`
	AxelarName   string   `json:"axelar_name"` // chain name as registered on Axelar
	ChainID      int64    `json:"chain_id"`
	NativeSymbol string   `json:"native_symbol"` // gas token symbol used for fee estimates
	RPC          string   `json:"rpc"`
	FallbackRPCs []string `json:"fallback_rpcs,omitempty"`
	ExplorerURL  string   `json:"explorer_url"`
}

// TxURL returns the explorer link for a transaction hash.
func (n Network) TxURL(hash string) string {
	if n.ExplorerURL == "" {
		return ""
	}
	return strings.TrimRight(n.ExplorerURL, "/") + "/tx/" + hash
}

// AddressURL returns the explorer link for an address.
func (n Network) AddressURL(addr string) string {
	if n.ExplorerURL == "" {
		return ""
	}
	return strings.TrimRight(n.ExplorerURL, "/") + "/address/" + addr
}

//nolint:gochecknoglobals // Static registry of supported networks
var networks = map[Name]Network{
	Polygon: {
		Name:         Polygon,
		AxelarName:   "Polygon",
		ChainID:      80001,
		NativeSymbol: "MATIC",
		RPC:          "https://rpc-mumbai.maticvigil.com",
		FallbackRPCs: []string{"https://polygon-mumbai-bor-rpc.publicnode.com"},
		ExplorerURL:  "https://mumbai.polygonscan.com",
	},
	Avalanche: {
		Name:         Avalanche,
		AxelarName:   "Avalanche",
		ChainID:      43113,
		NativeSymbol: "AVAX",
		RPC:          "https://api.avax-test.network/ext/bc/C/rpc",
		FallbackRPCs: []string{"https://avalanche-fuji-c-chain-rpc.publicnode.com"},
		ExplorerURL:  "https://testnet.snowtrace.io",
	},
	Ethereum: {
		Name:         Ethereum,
		AxelarName:   "ethereum-sepolia",
		ChainID:      11155111,
		NativeSymbol: "ETH",
		RPC:          "https://ethereum-sepolia-rpc.publicnode.com",
		ExplorerURL:  "https://sepolia.etherscan.io",
	},
	Fantom: {
		Name:         Fantom,
		AxelarName:   "Fantom",
		ChainID:      4002,
		NativeSymbol: "FTM",
		RPC:          "https://rpc.testnet.fantom.network",
		ExplorerURL:  "https://testnet.ftmscan.com",
	},
	Moonbeam: {
		Name:         Moonbeam,
		AxelarName:   "Moonbeam",
		ChainID:      1287,
		NativeSymbol: "DEV",
		RPC:          "https://rpc.api.moonbase.moonbeam.network",
		ExplorerURL:  "https://moonbase.moonscan.io",
	},
}

// maxSuggestionDistance bounds how far a typo may be from a known name
// before no suggestion is offered.
const maxSuggestionDistance = 3

// NetworkByName looks up a network by config key or Axelar chain name,
// case-insensitively. Unknown names return ErrUnknownNetwork carrying the
// closest known name as a suggestion.
func NetworkByName(name string) (Network, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if n, ok := networks[Name(key)]; ok {
		return n, nil
	}
	for _, n := range networks {
		if strings.EqualFold(n.AxelarName, key) {
			return n, nil
		}
	}

	err := droperr.WithDetails(droperr.ErrUnknownNetwork, map[string]string{"network": name})
	if s := suggestNetwork(key); s != "" {
		err = droperr.WithSuggestion(err, "did you mean "+s+"?")
	}
	return Network{}, err
}

func suggestNetwork(input string) string {
	best := ""
	bestDist := maxSuggestionDistance + 1
	for _, n := range Networks() {
		dist := levenshtein.ComputeDistance(input, string(n.Name))
		if dist < bestDist {
			best, bestDist = string(n.Name), dist
		}
	}
	return best
}

// Networks returns all known networks sorted by name.
func Networks() []Network {
	out := make([]Network, 0, len(networks))
	for _, n := range networks {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

package config

import (
	"time"

	"github.com/mrz1836/crossdrop/internal/chain"
)

// Testnet addresses of the Axelar deployment the Airdrop contract talks to.
const (
	DefaultGateway    = "0xBF62ef1486468a6bd26Dd669C06db43dEd5B849B"
	DefaultGasService = "0xbE406F0189A0B4cf3A05C286473D23791Dd44Cc6"
	DefaultToken      = "0x2c852e740B62308c46DD29B982FBb650D063Bd07" // aUSDC on Polygon Mumbai
)

// DefaultAxelarAPI is the Axelar GMP testnet API used for gas-fee estimates.
const DefaultAxelarAPI = "https://testnet.api.gmp.axelarscan.io"

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version:     1,
		Home:        "~/.crossdrop",
		Source:      networkDefaults(chain.Polygon),
		Destination: networkDefaults(chain.Avalanche),
		Token: TokenConfig{
			Symbol:   "aUSDC",
			Address:  DefaultToken,
			Decimals: 6,
		},
		Axelar: AxelarConfig{
			APIURL:        DefaultAxelarAPI,
			Environment:   "testnet",
			GasToken:      "MATIC",
			GasLimit:      700000,
			GasMultiplier: 2,
			Timeout:       15 * time.Second,
			CacheTTL:      30 * time.Second,
			RateLimit:     2,
		},
		Deploy: DeployConfig{
			Network:    string(chain.Polygon),
			Gateway:    DefaultGateway,
			GasService: DefaultGasService,
			Artifact:   "artifacts/contracts/Airdrop.sol/Airdrop.json",
		},
		Tx: TxConfig{
			PollInterval:   2 * time.Second,
			ReceiptTimeout: 3 * time.Minute,
			GasMargin:      1.2,
		},
		Watch: WatchConfig{
			Interval: 5 * time.Second,
		},
		Server: ServerConfig{
			Addr:         "127.0.0.1:8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			CacheTTL:     5 * time.Second,
			CORSOrigins:  []string{"http://localhost:3000"},
		},
		Output: OutputConfig{
			DefaultFormat: "auto",
			Color:         "auto",
			Verbose:       false,
		},
		Logging: LoggingConfig{
			Level: "error",
			File:  "~/.crossdrop/crossdrop.log",
		},
	}
}

func networkDefaults(name chain.Name) NetworkConfig {
	n, err := chain.NetworkByName(string(name))
	if err != nil {
		return NetworkConfig{Name: string(name)}
	}
	return NetworkConfig{
		Name:         string(n.Name),
		AxelarName:   n.AxelarName,
		ChainID:      n.ChainID,
		RPC:          n.RPC,
		FallbackRPCs: append([]string(nil), n.FallbackRPCs...),
	}
}

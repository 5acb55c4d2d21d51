package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mrz1836/crossdrop/internal/airdrop"
	"github.com/mrz1836/crossdrop/internal/axelar"
	"github.com/mrz1836/crossdrop/internal/chain"
	"github.com/mrz1836/crossdrop/internal/chain/evm"
	"github.com/mrz1836/crossdrop/internal/config"
	"github.com/mrz1836/crossdrop/internal/deploy"
	"github.com/mrz1836/crossdrop/internal/metrics"
	"github.com/mrz1836/crossdrop/internal/output"
	droperr "github.com/mrz1836/crossdrop/pkg/errors"
)

// EnvKeystorePassword unlocks the keystore without a prompt.
const EnvKeystorePassword = "CROSSDROP_KEYSTORE_PASSWORD" // #nosec G101 -- variable name, not a credential

// needs selects which parts of the airdrop service a command wires up.
type needs uint8

const (
	needSource needs = 1 << iota
	needDestination
	needSigner
	needFees
)

func (n needs) has(flag needs) bool { return n&flag != 0 }

// CommandContext holds dependencies for CLI commands.
type CommandContext struct {
	Config    *config.Config
	Logger    *config.Logger
	Formatter *output.Formatter
	Metrics   *metrics.Metrics
	Registry  *prometheus.Registry

	rpcLimiter *chain.RateLimiter
	nonces     *evm.NonceManager
	closers    []func()
}

// NewCommandContext creates a context with the given dependencies. Metrics
// are collected into a private registry that serve exposes on /metrics.
func NewCommandContext(
	cfg *config.Config,
	logger *config.Logger,
	formatter *output.Formatter,
) *CommandContext {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	if err != nil {
		logger.Error("registering metrics: %v", err)
		m, _ = metrics.New(nil)
	}
	return &CommandContext{
		Config:     cfg,
		Logger:     logger,
		Formatter:  formatter,
		Metrics:    m,
		Registry:   reg,
		rpcLimiter: chain.DefaultRateLimiter(),
		nonces:     evm.NewNonceManager(),
	}
}

// Home returns the expanded data directory.
func (c *CommandContext) Home() string {
	return c.Config.GetHome()
}

// Close releases RPC connections.
func (c *CommandContext) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// Dial connects to a network's primary RPC, falling back in order.
func (c *CommandContext) Dial(ctx context.Context, nc config.NetworkConfig) (*evm.Client, error) {
	urls := append([]string{nc.RPC}, nc.FallbackRPCs...)
	backend, url, err := evm.Dial(ctx, urls, evm.DialOptions{ExpectedChainID: nc.ChainID})
	if err != nil {
		return nil, droperr.WithDetails(err, map[string]string{"network": nc.Name})
	}
	c.Logger.Debug("connected to %s via %s", nc.Name, config.SanitizeURL(url))

	client := evm.NewClient(backend, evm.Options{
		Network:   nc.Name,
		Endpoint:  url,
		GasMargin: c.Config.Tx.GasMargin,
		Limiter:   c.rpcLimiter,
		Nonces:    c.nonces,
		Observer:  c.Metrics,
		Logger:    c.Logger.Zap("evm"),
	})
	c.closers = append(c.closers, client.Close)
	return client, nil
}

// Signer loads the signing key from --key-file / tx.keystore, or from
// CROSSDROP_PRIVATE_KEY when no keystore is configured.
func (c *CommandContext) Signer() (*evm.Signer, error) {
	path := config.ExpandHome(c.Config.Tx.Keystore)
	if path == "" {
		return evm.SignerFromEnv()
	}

	password := []byte(os.Getenv(EnvKeystorePassword))
	if len(password) == 0 {
		var err error
		password, err = promptPasswordFn("Keystore password: ")
		if err != nil {
			return nil, droperr.WithCause(droperr.ErrKeyRequired, err)
		}
	}
	defer zeroBytes(password)

	return evm.SignerFromKeystore(path, string(password))
}

// FeeClient builds the Axelar gas fee client.
func (c *CommandContext) FeeClient() *axelar.Client {
	ax := c.Config.Axelar
	var limiter *chain.RateLimiter
	if ax.RateLimit > 0 {
		limiter = chain.NewRateLimiter(ax.RateLimit, 1)
	}
	return axelar.NewClient(axelar.Options{
		BaseURL:  ax.APIURL,
		Timeout:  ax.Timeout,
		CacheTTL: ax.CacheTTL,
		Limiter:  limiter,
		Observer: c.Metrics,
		Logger:   c.Logger.Zap("axelar"),
	})
}

// FeeRequest describes the configured source to destination route.
func (c *CommandContext) FeeRequest() axelar.FeeRequest {
	return axelar.FeeRequest{
		SourceChain:      c.Config.Source.AxelarName,
		DestinationChain: c.Config.Destination.AxelarName,
		GasToken:         c.Config.Axelar.GasToken,
		GasLimit:         c.Config.Axelar.GasLimit,
		GasMultiplier:    c.Config.Axelar.GasMultiplier,
	}
}

// Airdrop wires an airdrop.Service with only the parts n asks for, so
// read-only commands never dial the chain they don't touch.
func (c *CommandContext) Airdrop(ctx context.Context, n needs) (*airdrop.Service, error) {
	if err := c.Config.Validate(); err != nil {
		return nil, err
	}

	opts := airdrop.Options{
		FeeRequest:       c.FeeRequest(),
		DestinationChain: c.Config.Destination.AxelarName,
		Symbol:           c.Config.Token.Symbol,
		Decimals:         c.Config.Token.Decimals,
		PollInterval:     c.Config.Tx.PollInterval,
		Sessions:         airdrop.NewSessionStore(filepath.Join(c.Home(), "sessions.json")),
		Notifier:         c.Formatter,
		Recorder:         c.Metrics,
		Logger:           c.Logger.Zap(),
	}

	if n.has(needSource) {
		sourceContract, err := contractAddress("source.contract", c.Config.Source.Contract)
		if err != nil {
			return nil, err
		}
		tokenAddress, err := contractAddress("token.address", c.Config.Token.Address)
		if err != nil {
			return nil, err
		}
		client, err := c.Dial(ctx, c.Config.Source)
		if err != nil {
			return nil, err
		}
		opts.Token = evm.NewERC20(client, tokenAddress)
		opts.Source = evm.NewAirdrop(client, sourceContract)
		opts.Receipts = client
	}

	if n.has(needDestination) || (n.has(needSigner) && n.has(needFees)) {
		destContract, err := contractAddress("destination.contract", c.Config.Destination.Contract)
		if err != nil {
			return nil, err
		}
		opts.DestinationContract = destContract
	}

	if n.has(needDestination) {
		client, err := c.Dial(ctx, c.Config.Destination)
		if err != nil {
			return nil, err
		}
		opts.Destination = evm.NewAirdrop(client, opts.DestinationContract)
	}

	if n.has(needFees) {
		opts.Fees = c.FeeClient()
	}

	if n.has(needSigner) {
		signer, err := c.Signer()
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, signer.Zero)
		opts.Signer = signer
	}

	return airdrop.NewService(opts), nil
}

// Deployer wires a deployer for the named network.
func (c *CommandContext) Deployer(ctx context.Context, network string) (*deploy.Deployer, error) {
	nc, err := c.networkConfig(network)
	if err != nil {
		return nil, err
	}
	client, err := c.Dial(ctx, nc)
	if err != nil {
		return nil, err
	}
	signer, err := c.Signer()
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, signer.Zero)

	return deploy.NewDeployer(client, signer, deploy.Options{
		PollInterval: c.Config.Tx.PollInterval,
		Store:        c.DeployStore(),
		Recorder:     c.Metrics,
		Logger:       c.Logger.Zap(),
	}), nil
}

// DeployStore is the deployment history under home.
func (c *CommandContext) DeployStore() *deploy.Store {
	return deploy.NewStore(filepath.Join(c.Home(), "deployments.json"))
}

// networkConfig resolves a deploy target. The configured source and
// destination win so custom RPCs apply; other names use the registry.
func (c *CommandContext) networkConfig(name string) (config.NetworkConfig, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, nc := range []config.NetworkConfig{c.Config.Source, c.Config.Destination} {
		if strings.EqualFold(nc.Name, name) {
			return nc, nil
		}
	}
	n, err := chain.NetworkByName(name)
	if err != nil {
		return config.NetworkConfig{}, err
	}
	return config.NetworkConfig{
		Name:         string(n.Name),
		AxelarName:   n.AxelarName,
		ChainID:      n.ChainID,
		RPC:          n.RPC,
		FallbackRPCs: n.FallbackRPCs,
	}, nil
}

func contractAddress(key, value string) (common.Address, error) {
	if value == "" {
		return common.Address{}, droperr.WithSuggestion(
			droperr.WithDetails(droperr.ErrConfigInvalid, map[string]string{"key": key, "reason": "not set"}),
			"deploy the contract with 'crossdrop deploy' then run 'crossdrop config set "+key+" <address>'",
		)
	}
	if !common.IsHexAddress(value) {
		return common.Address{}, droperr.WithDetails(droperr.ErrInvalidAddress, map[string]string{"key": key, "address": value})
	}
	return common.HexToAddress(value), nil
}

// zeroBytes clears sensitive data.
func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

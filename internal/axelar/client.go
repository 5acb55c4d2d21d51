// Package axelar estimates cross-chain gas fees with the Axelar GMP API.
package axelar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/patrickmn/go-cache"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/mrz1836/crossdrop/internal/chain"
	droperr "github.com/mrz1836/crossdrop/pkg/errors"
)

//nolint:gochecknoglobals // jsoniter configured once, same as encoding/json
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultBaseURL is the testnet GMP API.
const DefaultBaseURL = "https://testnet.api.gmp.axelarscan.io"

const (
	defaultTimeout  = 15 * time.Second
	defaultCacheTTL = 30 * time.Second
	maxBodyLog      = 512
)

// FeeRequest describes one gas fee estimate.
type FeeRequest struct {
	SourceChain      string  // Axelar name, e.g. "Polygon"
	DestinationChain string  // Axelar name, e.g. "Avalanche"
	GasToken         string  // native symbol the fee is paid in, e.g. "MATIC"
	GasLimit         uint64  // gas the destination execution may use
	GasMultiplier    float64 // safety factor applied by the API
}

func (r FeeRequest) key() string {
	return fmt.Sprintf("%s|%s|%s|%d|%g",
		strings.ToLower(r.SourceChain), strings.ToLower(r.DestinationChain),
		strings.ToUpper(r.GasToken), r.GasLimit, r.GasMultiplier)
}

type feeRequestBody struct {
	Method            string  `json:"method"`
	SourceChain       string  `json:"sourceChain"`
	DestinationChain  string  `json:"destinationChain"`
	SourceTokenSymbol string  `json:"sourceTokenSymbol"`
	GasLimit          uint64  `json:"gasLimit"`
	GasMultiplier     float64 `json:"gasMultiplier,omitempty"`
}

// Observer receives estimate outcomes and cache lookups.
type Observer interface {
	ObserveFeeEstimate(outcome string, elapsed time.Duration)
	ObserveCache(name string, hit bool)
}

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
	Limiter  *chain.RateLimiter
	Retry    *chain.RetryConfig
	Observer Observer
	Logger   *zap.Logger
}

// Client talks to the GMP API over fasthttp.
type Client struct {
	http     *fasthttp.Client
	baseURL  string
	timeout  time.Duration
	fees     *cache.Cache
	limiter  *chain.RateLimiter
	retry    chain.RetryConfig
	observer Observer
	logger   *zap.Logger
}

// NewClient creates a Client.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}
	retry := chain.DefaultRetryConfig()
	if opts.Retry != nil {
		retry = *opts.Retry
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{
		http: &fasthttp.Client{
			Name:                "crossdrop",
			MaxIdleConnDuration: time.Minute,
		},
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		timeout:  opts.Timeout,
		fees:     cache.New(opts.CacheTTL, 2*opts.CacheTTL),
		limiter:  opts.Limiter,
		retry:    retry,
		observer: opts.Observer,
		logger:   logger.Named("axelar"),
	}

	c.retry.OnRetry = func(attempt int, err error, delay time.Duration) {
		c.logger.Debug("retrying gas fee estimate",
			zap.Int("attempt", attempt), zap.Duration("delay", delay), zap.Error(err))
	}
	return c
}

// BaseURL returns the API root the client posts to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// EstimateGasFee returns the fee in wei of the source chain's native token
// that must accompany sendToMany so the relayer executes on the destination.
// Results are cached per request for the configured TTL.
func (c *Client) EstimateGasFee(ctx context.Context, req FeeRequest) (*big.Int, error) {
	if req.SourceChain == "" || req.DestinationChain == "" || req.GasToken == "" {
		return nil, droperr.WithDetails(droperr.ErrInvalidInput, map[string]string{
			"reason": "source chain, destination chain and gas token are required",
		})
	}

	key := req.key()
	if v, ok := c.fees.Get(key); ok {
		c.observeCache(true)
		return new(big.Int).Set(v.(*big.Int)), nil //nolint:forcetypeassert // only *big.Int is stored
	}
	c.observeCache(false)

	start := time.Now()
	fee, err := chain.RetryWithConfig(ctx, c.retry, func() (*big.Int, error) {
		return c.estimateOnce(ctx, req)
	})
	if c.observer != nil {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		c.observer.ObserveFeeEstimate(outcome, time.Since(start))
	}
	if err != nil {
		if errors.Is(err, droperr.ErrGasEstimate) {
			return nil, err
		}
		return nil, droperr.WithCause(droperr.WithDetails(droperr.ErrGasEstimate, map[string]string{
			"source":      req.SourceChain,
			"destination": req.DestinationChain,
		}), err)
	}

	c.fees.Set(key, fee, cache.DefaultExpiration)
	c.logger.Debug("estimated gas fee",
		zap.String("source", req.SourceChain),
		zap.String("destination", req.DestinationChain),
		zap.String("fee", fee.String()))
	return new(big.Int).Set(fee), nil
}

// Flush drops all cached estimates.
func (c *Client) Flush() {
	c.fees.Flush()
}

func (c *Client) estimateOnce(ctx context.Context, req FeeRequest) (*big.Int, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, c.baseURL); err != nil {
			return nil, err
		}
	}

	body, err := json.Marshal(feeRequestBody{
		Method:            "estimateGasFee",
		SourceChain:       req.SourceChain,
		DestinationChain:  req.DestinationChain,
		SourceTokenSymbol: req.GasToken,
		GasLimit:          req.GasLimit,
		GasMultiplier:     req.GasMultiplier,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding fee request: %w", err)
	}

	httpReq := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(httpReq)
	httpReq.SetRequestURI(c.baseURL)
	httpReq.Header.SetMethod(fasthttp.MethodPost)
	httpReq.Header.SetContentType("application/json")
	httpReq.SetBody(body)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < c.timeout {
		err = c.http.DoDeadline(httpReq, resp, deadline)
	} else {
		err = c.http.DoTimeout(httpReq, resp, c.timeout)
	}
	if err != nil {
		return nil, classifyTransportError(err)
	}

	raw := resp.Body()
	status := resp.StatusCode()
	switch {
	case status == fasthttp.StatusTooManyRequests:
		retryAfter := chain.ParseRetryAfter(string(resp.Header.Peek("Retry-After")))
		return nil, chain.RetryAfter(statusError(status, raw), retryAfter)
	case status >= fasthttp.StatusInternalServerError:
		return nil, chain.WrapRetryable(statusError(status, raw))
	case status != fasthttp.StatusOK:
		c.logger.Error("gas fee request rejected",
			zap.Int("status", status), zap.ByteString("body", truncate(raw)))
		return nil, droperr.WithCause(droperr.WithDetails(droperr.ErrGasEstimate, map[string]string{
			"status": fmt.Sprint(status),
		}), statusError(status, raw))
	}

	return ParseFee(raw)
}

// ParseFee decodes an estimateGasFee response. The API answers with the
// wei amount either as a JSON string or a JSON number.
func ParseFee(raw []byte) (*big.Int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, feeFormatError("empty response")
	}

	var text string
	switch raw[0] {
	case '"':
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, droperr.WithCause(feeFormatError("not a JSON string"), err)
		}
	default:
		var n jsoniter.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, droperr.WithCause(feeFormatError("not a JSON number or string"), err)
		}
		text = n.String()
	}

	fee, ok := parseWei(strings.TrimSpace(text))
	if !ok {
		return nil, feeFormatError(fmt.Sprintf("%q is not an integer wei amount", text))
	}
	if fee.Sign() < 0 {
		return nil, feeFormatError("negative fee")
	}
	return fee, nil
}

// parseWei accepts plain integers and exponent forms such as "4.2e+14"
// as long as they denote a whole number.
func parseWei(s string) (*big.Int, bool) {
	if v, ok := new(big.Int).SetString(s, 10); ok {
		return v, true
	}
	f, _, err := big.ParseFloat(s, 10, 256, big.ToNearestEven)
	if err != nil || !f.IsInt() {
		return nil, false
	}
	v, _ := f.Int(nil)
	return v, true
}

func (c *Client) observeCache(hit bool) {
	if c.observer != nil {
		c.observer.ObserveCache("gas_fee", hit)
	}
}

func classifyTransportError(err error) error {
	if errors.Is(err, fasthttp.ErrTimeout) || errors.Is(err, fasthttp.ErrDialTimeout) {
		return fmt.Errorf("%w: %w", chain.ErrTimeout, err)
	}
	return chain.WrapRetryable(err)
}

func statusError(status int, body []byte) error {
	return fmt.Errorf("axelar api returned %d: %s", status, truncate(body))
}

func feeFormatError(reason string) error {
	return droperr.WithDetails(droperr.ErrGasEstimate, map[string]string{"reason": reason})
}

func truncate(b []byte) []byte {
	if len(b) > maxBodyLog {
		return b[:maxBodyLog]
	}
	return b
}

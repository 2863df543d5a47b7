// Package rpc provides a minimal JSON-RPC 2.0 client for Ethereum nodes and
// resolves the public RPC endpoints advertised by the chain registry.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/mrz1836/safecheck/internal/chain"
	checkerr "github.com/mrz1836/safecheck/pkg/errors"
)

// Client is a minimal Ethereum JSON-RPC client.
type Client struct {
	url         string
	source      string
	httpClient  *http.Client
	rateLimiter *chain.RateLimiter
	idCounter   atomic.Uint64
}

// ClientOptions configures the RPC client.
type ClientOptions struct {
	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client
	// RateLimiter overrides the default per-host rate limiter.
	RateLimiter *chain.RateLimiter
	// Source is reported in errors instead of the URL. Set it when the URL
	// embeds an auth token.
	Source string
}

// NewClient creates a new RPC client for url.
func NewClient(url string, opts *ClientOptions) *Client {
	c := &Client{
		url:         url,
		source:      url,
		httpClient:  chain.NewHTTPClient(0),
		rateLimiter: chain.DefaultRateLimiter(),
	}

	if opts != nil {
		if opts.HTTPClient != nil {
			c.httpClient = opts.HTTPClient
		}
		if opts.RateLimiter != nil {
			c.rateLimiter = opts.RateLimiter
		}
		if opts.Source != "" {
			c.source = opts.Source
		}
	}

	return c
}

// Source returns the printable form of the endpoint URL.
func (c *Client) Source() string {
	return c.source
}

// request represents a JSON-RPC 2.0 request.
type request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      uint64 `json:"id"`
}

// response represents a JSON-RPC 2.0 response.
type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError represents a JSON-RPC error.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// Call performs a JSON-RPC call.
func (c *Client) Call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	if params == nil {
		params = []any{}
	}

	req := request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.idCounter.Add(1),
	}

	var resp response
	err := chain.Do(ctx, c.httpClient, c.rateLimiter, chain.Request{
		Method: http.MethodPost,
		URL:    c.url,
		Body:   req,
		Source: c.source,
	}, &resp)
	if err != nil {
		return nil, err
	}

	if resp.Error != nil {
		return nil, checkerr.WithDetails(checkerr.WithCause(checkerr.ErrNetworkError, resp.Error), map[string]string{
			"url":    c.source,
			"method": method,
		})
	}
	if len(resp.Result) == 0 || string(resp.Result) == "null" {
		return nil, checkerr.WithDetails(checkerr.ErrInvalidResponse, map[string]string{
			"url":    c.source,
			"method": method,
			"reason": "empty result",
		})
	}

	return resp.Result, nil
}

// BlockNumber returns the number of the most recent block.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	result, err := c.Call(ctx, "eth_blockNumber")
	if err != nil {
		return 0, err
	}

	var n hexutil.Uint64
	if err := json.Unmarshal(result, &n); err != nil {
		return 0, c.decodeError("eth_blockNumber", err)
	}
	return uint64(n), nil
}

// CurrentBlock returns the latest block number as a decimal string.
func (c *Client) CurrentBlock(ctx context.Context) (string, error) {
	n, err := c.BlockNumber(ctx)
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(n, 10), nil
}

func (c *Client) decodeError(method string, err error) error {
	return checkerr.WithDetails(checkerr.WithCause(checkerr.ErrInvalidResponse, err), map[string]string{
		"url":    c.source,
		"method": method,
	})
}

// Package gateway provides a client for the Safe client gateway, the chain
// registry that maps network short names to chain configuration and serves
// per-account metadata.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/mrz1836/safecheck/internal/chain"
	"github.com/mrz1836/safecheck/internal/chain/eth/rpc"
	checkerr "github.com/mrz1836/safecheck/pkg/errors"
)

// DefaultBaseURL is the public client gateway.
const DefaultBaseURL = "https://safe-client.gnosis.io"

// AddressInfo is an address as rendered by the gateway, with optional display data.
type AddressInfo struct {
	Value   string `json:"value"`
	Name    string `json:"name,omitempty"`
	LogoURI string `json:"logoUri,omitempty"`
}

// ChainInfo is the registry entry for one chain.
type ChainInfo struct {
	ChainID            string       `json:"chainId"`
	ChainName          string       `json:"chainName,omitempty"`
	ShortName          string       `json:"shortName,omitempty"`
	Description        string       `json:"description,omitempty"`
	L2                 bool         `json:"l2"`
	TransactionService string       `json:"transactionService"`
	PublicRPCURI       rpc.Endpoint `json:"publicRpcUri"`
}

// SafeInfo is the gateway's view of a multi-signature account.
type SafeInfo struct {
	Address        AddressInfo   `json:"address"`
	Nonce          int64         `json:"nonce"`
	Threshold      int           `json:"threshold"`
	Owners         []AddressInfo `json:"owners,omitempty"`
	Implementation AddressInfo   `json:"implementation"`
	Version        string        `json:"version,omitempty"`
}

// Client is a client gateway API client.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *chain.RateLimiter
}

// ClientOptions configures the gateway client.
type ClientOptions struct {
	// BaseURL overrides the default gateway URL (useful for testing).
	BaseURL string
	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client
	// RateLimiter overrides the default per-host rate limiter.
	RateLimiter *chain.RateLimiter
}

// NewClient creates a new gateway client.
func NewClient(opts *ClientOptions) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		httpClient:  chain.NewHTTPClient(0),
		rateLimiter: chain.DefaultRateLimiter(),
	}

	if opts != nil {
		if opts.BaseURL != "" {
			c.baseURL = strings.TrimRight(opts.BaseURL, "/")
		}
		if opts.HTTPClient != nil {
			c.httpClient = opts.HTTPClient
		}
		if opts.RateLimiter != nil {
			c.rateLimiter = opts.RateLimiter
		}
	}

	return c
}

// BaseURL returns the gateway base URL in use.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ChainInfoURL returns the registry URL for a network short name.
func (c *Client) ChainInfoURL(shortName string) string {
	return fmt.Sprintf("%s/v1/chains/%s", c.baseURL, url.PathEscape(shortName))
}

// SafeInfoURL returns the metadata URL for an account on a chain.
func (c *Client) SafeInfoURL(chainID, address string) string {
	return fmt.Sprintf("%s/v1/chains/%s/safes/%s", c.baseURL, url.PathEscape(chainID), url.PathEscape(address))
}

// ChainInfo looks up the chain registered under shortName.
func (c *Client) ChainInfo(ctx context.Context, shortName string) (ChainInfo, error) {
	var info ChainInfo
	if err := chain.GetJSON(ctx, c.httpClient, c.rateLimiter, c.ChainInfoURL(shortName), &info); err != nil {
		if checkerr.Is(err, checkerr.ErrNotFound) {
			return ChainInfo{}, checkerr.WithSuggestion(err,
				fmt.Sprintf("%q is not a network short name known to the gateway (for example eth, gno, matic)", shortName))
		}
		return ChainInfo{}, err
	}
	return info, nil
}

// SafeInfo fetches account metadata for address on chainID.
func (c *Client) SafeInfo(ctx context.Context, chainID, address string) (SafeInfo, error) {
	var info SafeInfo
	if err := chain.GetJSON(ctx, c.httpClient, c.rateLimiter, c.SafeInfoURL(chainID, address), &info); err != nil {
		if checkerr.Is(err, checkerr.ErrNotFound) {
			return SafeInfo{}, checkerr.WithSuggestion(err,
				"the address is not a Safe on this chain; check the network prefix")
		}
		return SafeInfo{}, err
	}
	return info, nil
}

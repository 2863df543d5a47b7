// Package txservice provides a client for a chain's Safe transaction service,
// the indexer that tracks mastercopy deployments and multisig transactions.
package txservice

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mrz1836/safecheck/internal/chain"
	checkerr "github.com/mrz1836/safecheck/pkg/errors"
)

// MasterCopy is the indexing status of one mastercopy (singleton) contract.
type MasterCopy struct {
	Address                string `json:"address"`
	Version                string `json:"version"`
	Deployer               string `json:"deployer,omitempty"`
	DeployedBlockNumber    int64  `json:"deployedBlockNumber,omitempty"`
	LastIndexedBlockNumber int64  `json:"lastIndexedBlockNumber"`
	L2                     bool   `json:"l2"`
}

// MultisigTransaction is the subset of a multisig transaction the check reads.
type MultisigTransaction struct {
	Nonce      int64  `json:"nonce"`
	SafeTxHash string `json:"safeTxHash,omitempty"`
	IsExecuted bool   `json:"isExecuted"`
}

// Page is one page of a paginated listing.
type Page[T any] struct {
	Count    int64  `json:"count"`
	Next     string `json:"next,omitempty"`
	Previous string `json:"previous,omitempty"`
	Results  []T    `json:"results"`
}

// Client is a transaction service API client bound to one chain's service.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *chain.RateLimiter
}

// ClientOptions configures the transaction service client.
type ClientOptions struct {
	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client
	// RateLimiter overrides the default per-host rate limiter.
	RateLimiter *chain.RateLimiter
}

// NewClient creates a client for the transaction service at baseURL.
func NewClient(baseURL string, opts *ClientOptions) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
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
	}

	return c
}

// MasterCopiesURL returns the mastercopy indexing status URL.
func (c *Client) MasterCopiesURL() string {
	return c.baseURL + "/api/v1/about/master-copies/"
}

// MultisigTransactionsURL returns the URL of the newest trusted multisig
// transaction of safe, filtered by execution status.
func (c *Client) MultisigTransactionsURL(safe string, executed bool) string {
	return fmt.Sprintf("%s/api/v1/safes/%s/multisig-transactions/?ordering=-nonce&trusted=true&limit=1&executed=%t",
		c.baseURL, url.PathEscape(safe), executed)
}

// MasterCopies lists every mastercopy the service indexes.
func (c *Client) MasterCopies(ctx context.Context) ([]MasterCopy, error) {
	var copies []MasterCopy
	if err := chain.GetJSON(ctx, c.httpClient, c.rateLimiter, c.MasterCopiesURL(), &copies); err != nil {
		return nil, err
	}
	return copies, nil
}

// MultisigTransactions returns the first page (newest nonce first, one
// result) of safe's trusted multisig transactions.
func (c *Client) MultisigTransactions(ctx context.Context, safe string, executed bool) (Page[MultisigTransaction], error) {
	var page Page[MultisigTransaction]
	if err := chain.GetJSON(ctx, c.httpClient, c.rateLimiter, c.MultisigTransactionsURL(safe, executed), &page); err != nil {
		return Page[MultisigTransaction]{}, err
	}
	return page, nil
}

// FindMasterCopy returns the entry of copies deployed at implementation.
func FindMasterCopy(copies []MasterCopy, implementation string) (MasterCopy, error) {
	for _, mc := range copies {
		if sameAddress(mc.Address, implementation) {
			return mc, nil
		}
	}
	return MasterCopy{}, checkerr.WithDetails(checkerr.ErrUnsupportedMastercopy, map[string]string{
		"implementation": implementation,
	})
}

func sameAddress(a, b string) bool {
	if common.IsHexAddress(a) && common.IsHexAddress(b) {
		return common.HexToAddress(a) == common.HexToAddress(b)
	}
	return a == b
}

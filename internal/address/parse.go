// Package address parses operator input into chain-qualified account identifiers.
package address

import (
	"strings"

	checkerr "github.com/mrz1836/safecheck/pkg/errors"
)

// DefaultNetwork is the short chain name assumed when the input has no prefix.
const DefaultNetwork = "eth"

// caipNamespace is the CAIP-10 namespace for EVM chains.
const caipNamespace = "eip155"

// AccountID is a chain-qualified account address.
type AccountID struct {
	Network string `json:"network"`
	ID      string `json:"id"`
}

// String returns the prefixed "network:address" form.
func (a AccountID) String() string {
	return a.Network + ":" + a.ID
}

// Parse turns raw operator text into an AccountID.
//
// Accepted shapes are "<address>" (network defaults to eth) and
// "<shortName>:<address>". CAIP-10 "eip155:<chainId>:<address>" is recognised
// but not supported yet.
func Parse(raw string) (AccountID, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")

	switch {
	case len(parts) == 1:
		id, err := Checksum(parts[0])
		if err != nil {
			return AccountID{}, err
		}
		return AccountID{Network: DefaultNetwork, ID: id}, nil

	case len(parts) == 2:
		id, err := Checksum(parts[1])
		if err != nil {
			return AccountID{}, err
		}
		return AccountID{Network: parts[0], ID: id}, nil

	case len(parts) == 3 && parts[0] == caipNamespace:
		// TODO: resolve the CAIP-2 chain reference to a short name via the chain registry.
		return AccountID{}, checkerr.WithDetails(checkerr.ErrUnsupportedScheme, map[string]string{
			"input":  raw,
			"scheme": caipNamespace,
		})

	default:
		return AccountID{}, checkerr.WithDetails(checkerr.ErrInvalidAddress, map[string]string{
			"input":  raw,
			"reason": "invalid address scheme",
		})
	}
}

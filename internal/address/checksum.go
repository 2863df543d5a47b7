package address

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"

	checkerr "github.com/mrz1836/safecheck/pkg/errors"
)

// hexLength is the number of hex characters in an account address.
const hexLength = 40

// IsValid reports whether s is syntactically an account address:
// 40 hex characters, optionally prefixed with "0x". Checksums are not verified.
func IsValid(s string) bool {
	s = strings.TrimPrefix(s, "0x")
	if len(s) != hexLength {
		return false
	}
	for _, c := range s {
		if !isHexChar(c) {
			return false
		}
	}
	return true
}

// Checksum validates s and returns its EIP-55 mixed-case form.
//
// All-lowercase and all-uppercase inputs are accepted as non-checksummed.
// Mixed-case input must already carry the correct checksum.
func Checksum(s string) (string, error) {
	if !IsValid(s) {
		return "", checkerr.WithDetails(checkerr.ErrInvalidAddress, map[string]string{
			"address": s,
		})
	}

	body := strings.TrimPrefix(s, "0x")
	expected := toChecksum(body)

	isMixed := body != strings.ToLower(body) && body != strings.ToUpper(body)
	if isMixed && "0x"+body != expected {
		return "", checkerr.WithDetails(checkerr.ErrInvalidAddress, map[string]string{
			"address":  s,
			"expected": expected,
			"reason":   "bad checksum",
		})
	}

	return expected, nil
}

// toChecksum encodes 40 hex characters as an EIP-55 address.
func toChecksum(body string) string {
	addr := strings.ToLower(body)

	hasher := sha3.NewLegacyKeccak256()
	hasher.Write([]byte(addr))
	hash := hex.EncodeToString(hasher.Sum(nil))

	result := make([]byte, 2+hexLength)
	result[0] = '0'
	result[1] = 'x'

	for i := 0; i < hexLength; i++ {
		c := addr[i]
		// Uppercase letters whose hash nibble is >= 8
		if hash[i] >= '8' && c >= 'a' && c <= 'f' {
			result[i+2] = c - 32
		} else {
			result[i+2] = c
		}
	}

	return string(result)
}

func isHexChar(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

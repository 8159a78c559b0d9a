package auth

import (
	"encoding/hex"
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
)

var (
	hexAddress   = regexp.MustCompile(`^0[xX][0-9a-fA-F]{40}$`)
	plainAddress = regexp.MustCompile(`^[A-Za-z0-9_.:-]{3,128}$`)
)

// NormalizeAddress returns the canonical form of a wallet address: EIP-55
// mixed case for 0x hex addresses, trimmed input for other wallet ids.
func NormalizeAddress(raw string) (string, error) {
	addr := strings.TrimSpace(raw)
	if hexAddress.MatchString(addr) {
		return checksumAddress(addr[2:]), nil
	}
	if !plainAddress.MatchString(addr) {
		return "", ErrInvalidAddress
	}
	return addr, nil
}

func checksumAddress(hexDigits string) string {
	lower := strings.ToLower(hexDigits)
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(lower))
	hash := hex.EncodeToString(h.Sum(nil))

	out := []byte(lower)
	for i, c := range out {
		if c >= 'a' && c <= 'f' && hash[i] >= '8' {
			out[i] = c - 'a' + 'A'
		}
	}
	return "0x" + string(out)
}

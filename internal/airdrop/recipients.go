package airdrop

import (
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	droperr "github.com/mrz1836/crossdrop/pkg/errors"
)

// ParseRecipients parses a comma separated address list. Entries are
// trimmed and trailing empty entries (a trailing comma) are dropped. Every
// remaining entry must be a valid address, listed once.
func ParseRecipients(list string) ([]common.Address, error) {
	parts := strings.Split(list, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	if len(parts) == 0 {
		return nil, droperr.ErrRecipientsRequired
	}

	recipients := make([]common.Address, 0, len(parts))
	seen := make(map[common.Address]int, len(parts))
	for i, p := range parts {
		addr, reason := parseAddress(p)
		if reason != "" {
			return nil, droperr.WithDetails(droperr.ErrInvalidAddress, map[string]string{
				"address": p,
				"index":   strconv.Itoa(i),
				"reason":  reason,
			})
		}
		if first, dup := seen[addr]; dup {
			return nil, droperr.WithSuggestion(droperr.WithDetails(droperr.ErrDuplicateRecipient, map[string]string{
				"address": addr.Hex(),
				"index":   strconv.Itoa(i),
				"first":   strconv.Itoa(first),
			}), "list each recipient once; the amount is split evenly per entry")
		}
		seen[addr] = i
		recipients = append(recipients, addr)
	}
	return recipients, nil
}

// parseAddress validates one entry. Mixed-case input must carry a valid
// EIP-55 checksum.
func parseAddress(s string) (common.Address, string) {
	if s == "" {
		return common.Address{}, "empty entry"
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return common.Address{}, "missing 0x prefix"
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, "not a 20-byte hex address"
	}

	addr := common.HexToAddress(s)
	body := s[2:]
	if body != strings.ToLower(body) && body != strings.ToUpper(body) && addr.Hex()[2:] != body {
		return common.Address{}, "bad checksum"
	}
	if addr == (common.Address{}) {
		return common.Address{}, "zero address"
	}
	return addr, ""
}

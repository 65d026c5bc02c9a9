package parser

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/exp/constraints"
)

var nonHexSpace = regexp.MustCompile(`[\s:]`)

// normalizeHex upper-cases a raw response and drops separators testers like to add.
func normalizeHex(raw string) (string, error) {
	s := strings.ToUpper(nonHexSpace.ReplaceAllString(raw, ""))
	if len(s)%2 != 0 {
		return "", fmt.Errorf("%w: odd number of hex digits (%d)", ErrMalformedResponse, len(s))
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return s, nil
}

// hexToNumber reads a big-endian hex string into an integer of type T.
func hexToNumber[T constraints.Integer](s string) (T, error) {
	if s == "" {
		return *new(T), fmt.Errorf("empty hex value")
	}
	if len(s) > 16 {
		return *new(T), fmt.Errorf("hex value %q wider than 64 bits", s)
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return *new(T), err
	}
	return T(v), nil
}

// takeBytes splits n bytes (2n hex digits) off the front of s. Short input is truncated.
func takeBytes(s string, n int) (head, rest string) {
	end := n * 2
	if end > len(s) {
		end = len(s)
	}
	return s[:end], s[end:]
}

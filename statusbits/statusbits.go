package statusbits

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidHex       = errors.New("status register needs exactly 2 hex digits")
	ErrInvalidBitString = errors.New("status register needs exactly 8 binary digits")
	ErrIncomparable     = errors.New("status registers of different kinds are not comparable")
)

type Kind uint8

const (
	KindPlain Kind = iota
	KindDtcStatus
	KindStatusIndicators
)

func (k Kind) String() string {
	switch k {
	case KindDtcStatus:
		return "DtcStatus"
	case KindStatusIndicators:
		return "StatusIndicators"
	default:
		return "StatusBits"
	}
}

// Flag names one bit of a register. Mask has exactly one bit set.
type Flag struct {
	Name string
	Mask byte
}

// StatusBits is an 8 bit flag register.
type StatusBits struct {
	value byte
	kind  Kind
	flags []Flag
}

// registerer is satisfied by every register variant so Equal can reach the embedded value.
type registerer interface {
	register() StatusBits
}

func (s StatusBits) register() StatusBits { return s }

// FromHex builds a plain register from a 2 digit hex string.
func FromHex(hexString string) (StatusBits, error) {
	v, err := parseHex(hexString)
	if err != nil {
		return StatusBits{}, err
	}
	return StatusBits{value: v}, nil
}

// FromBitString builds a plain register from "10100000" style input, most significant bit first.
func FromBitString(bits string) (StatusBits, error) {
	v, err := parseBits(bits)
	if err != nil {
		return StatusBits{}, err
	}
	return StatusBits{value: v}, nil
}

func FromByte(b byte) StatusBits {
	return StatusBits{value: b}
}

func parseHex(hexString string) (byte, error) {
	if len(hexString) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidHex, hexString)
	}
	b, err := hex.DecodeString(hexString)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidHex, hexString)
	}
	return b[0], nil
}

func parseBits(bits string) (byte, error) {
	if len(bits) != 8 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidBitString, bits)
	}
	v, err := strconv.ParseUint(bits, 2, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidBitString, bits)
	}
	return byte(v), nil
}

func (s StatusBits) Kind() Kind {
	return s.kind
}

func (s StatusBits) Byte() byte {
	return s.value
}

func (s StatusBits) Bytes() []byte {
	return []byte{s.value}
}

// Hex returns the register as two upper-case hex digits.
func (s StatusBits) Hex() string {
	return fmt.Sprintf("%02X", s.value)
}

// BitString returns the register most significant bit first.
func (s StatusBits) BitString() string {
	return fmt.Sprintf("%08b", s.value)
}

func (s StatusBits) String() string {
	return s.Hex()
}

func (s StatusBits) get(mask byte) bool {
	return s.value&mask != 0
}

func (s *StatusBits) set(mask byte, on bool) {
	if on {
		s.value |= mask
		return
	}
	s.value &^= mask
}

// Flags lists the register bits by name, least significant bit first.
func (s StatusBits) Flags() []Flag {
	return s.flags
}

// Set returns the names of the bits that are currently set.
func (s StatusBits) Set() []string {
	var names []string
	for _, f := range s.flags {
		if s.get(f.Mask) {
			names = append(names, f.Name)
		}
	}
	return names
}

// Map returns every named bit with its state.
func (s StatusBits) Map() map[string]bool {
	out := make(map[string]bool, len(s.flags))
	for _, f := range s.flags {
		out[f.Name] = s.get(f.Mask)
	}
	return out
}

// Describe renders set flags the way test logs print them: "24 [pendingDTC testFailedSinceLastClear]".
func (s StatusBits) Describe() string {
	return s.Hex() + " [" + strings.Join(s.Set(), " ") + "]"
}

// Equal compares against a hex string, a raw byte or another register of the same kind.
// Comparing registers of different kinds is reported as ErrIncomparable.
func (s StatusBits) Equal(other any) (bool, error) {
	switch o := other.(type) {
	case string:
		v, err := parseHex(strings.ToUpper(o))
		if err != nil {
			return false, err
		}
		return s.value == v, nil
	case byte:
		return s.value == o, nil
	case []byte:
		return len(o) == 1 && s.value == o[0], nil
	case registerer:
		r := o.register()
		if r.kind != s.kind {
			return false, fmt.Errorf("%w: %s and %s", ErrIncomparable, s.kind, r.kind)
		}
		return s.value == r.value, nil
	default:
		return false, fmt.Errorf("%w: %T", ErrIncomparable, other)
	}
}

func (s StatusBits) MarshalText() ([]byte, error) {
	return []byte(s.Hex()), nil
}

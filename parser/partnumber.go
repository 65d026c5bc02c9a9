package parser

import (
	"encoding/hex"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	partNumberDigits = 8
	suffixBytes      = 3
)

// ValidatePartNumber checks a 7 byte part number record: 8 BCD digits followed by a
// 3 character suffix of spaces and capital letters. NUL may pad the end of the suffix.
// A space in the middle forces a space in front of it and the last character is never
// a space.
func ValidatePartNumber(record string) bool {
	if len(record) != partNumberRecordBytes*2 {
		return false
	}
	if !isDecimal(record[:partNumberDigits]) {
		return false
	}
	suffix, err := hex.DecodeString(record[partNumberDigits:])
	if err != nil {
		return false
	}
	return validSuffix(suffix)
}

func validSuffix(s []byte) bool {
	if len(s) != suffixBytes {
		return false
	}
	var padding bool
	letters := 0
	for _, c := range s {
		switch {
		case c == 0x00:
			padding = true
		case padding:
			return false
		case c == ' ':
		case c >= 'A' && c <= 'Z':
			letters++
		default:
			return false
		}
	}
	if s[1] == ' ' && s[0] != ' ' {
		return false
	}
	if s[2] == ' ' {
		return false
	}
	return letters > 0
}

// PrettyPrintPartNumber renders a valid record as its digits followed by the suffix
// letters. Invalid records are returned unchanged and logged.
func PrettyPrintPartNumber(record string, logger *zap.Logger) string {
	if !ValidatePartNumber(record) {
		if logger != nil {
			logger.Warn("invalid part number", zap.String("record", record))
		}
		return record
	}
	suffix, _ := hex.DecodeString(record[partNumberDigits:])
	letters := strings.Map(func(r rune) rune {
		if r == ' ' || r == 0 {
			return -1
		}
		return r
	}, string(suffix))
	return record[:partNumberDigits] + letters
}

// ValidateSerialNumber checks a 4 byte BCD serial number.
func ValidateSerialNumber(record string) bool {
	return len(record) == serialNumberBytes*2 && isDecimal(record)
}

// ValidatePartNumberList checks a count prefixed list of part number records.
func ValidatePartNumberList(record string) bool {
	records, err := splitRecords(record, partNumberRecordBytes)
	if err != nil {
		return false
	}
	for _, r := range records {
		if !ValidatePartNumber(r) {
			return false
		}
	}
	return true
}

// ValidateSerialNumberList checks a count prefixed list of serial numbers.
func ValidateSerialNumberList(record string) bool {
	records, err := splitRecords(record, serialNumberBytes)
	if err != nil {
		return false
	}
	for _, r := range records {
		if !ValidateSerialNumber(r) {
			return false
		}
	}
	return true
}

// splitRecords splits a list whose first byte counts the fixed width records after it.
func splitRecords(record string, width int) ([]string, error) {
	countHex, rest := takeBytes(record, 1)
	count, err := hexToNumber[int](countHex)
	if err != nil {
		return nil, fmt.Errorf("record count: %w", err)
	}
	if len(rest) != count*width*2 {
		return nil, fmt.Errorf("%d records of %d bytes need %d hex digits, got %d", count, width, count*width*2, len(rest))
	}
	out := make([]string, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, rest[i*width*2:(i+1)*width*2])
	}
	return out, nil
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

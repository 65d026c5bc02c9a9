package parser

import (
	"testing"

	"go.uber.org/zap/zaptest"
	"gotest.tools/v3/assert"
)

func TestValidatePartNumber(t *testing.T) {
	tests := map[string]struct {
		record string
		valid  bool
		pretty string
	}{
		"two letters and padding": {record: "32263666414100", valid: true, pretty: "32263666AA"},
		"three letters":           {record: "30000123414142", valid: true, pretty: "30000123AAB"},
		"leading spaces":          {record: "31327845202041", valid: true, pretty: "31327845A"},
		"one letter and padding":  {record: "31327845410000", valid: true, pretty: "31327845A"},
		"middle space after letter": {
			record: "32263666412041", pretty: "32263666412041",
		},
		"trailing space":         {record: "32263666414120", pretty: "32263666414120"},
		"letter after padding":   {record: "32263666410041", pretty: "32263666410041"},
		"lower case letter":      {record: "32263666616161", pretty: "32263666616161"},
		"only padding":           {record: "32263666000000", pretty: "32263666000000"},
		"hex digit in number":    {record: "3226366A414100", pretty: "3226366A414100"},
		"too short":              {record: "322636664141", pretty: "322636664141"},
		"not hex in suffix":      {record: "3226366641ZZ00", pretty: "3226366641ZZ00"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, ValidatePartNumber(tc.record), tc.valid)
			assert.Equal(t, PrettyPrintPartNumber(tc.record, zaptest.NewLogger(t)), tc.pretty)
		})
	}
}

func TestValidateSerialNumber(t *testing.T) {
	tests := map[string]struct {
		record string
		valid  bool
	}{
		"bcd":       {record: "12345678", valid: true},
		"hex digit": {record: "1234567A"},
		"too long":  {record: "1234567890"},
		"empty":     {record: ""},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, ValidateSerialNumber(tc.record), tc.valid)
		})
	}
}

func TestValidateLists(t *testing.T) {
	tests := map[string]struct {
		record      string
		partNumbers bool
		serials     bool
	}{
		"part numbers": {
			record:      "02" + "32263666414100" + "30000123414142",
			partNumbers: true,
		},
		"part numbers with invalid record": {
			record: "02" + "32263666414100" + "32263666412041",
		},
		"count disagrees with records": {
			record: "03" + "32263666414100" + "30000123414142",
		},
		"serial numbers": {
			record:  "03" + "12345678" + "00000001" + "99999999",
			serials: true,
		},
		"empty list": {
			record:      "00",
			partNumbers: true,
			serials:     true,
		},
		"missing count": {
			record: "",
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, ValidatePartNumberList(tc.record), tc.partNumbers)
			assert.Equal(t, ValidateSerialNumberList(tc.record), tc.serials)
		})
	}
}

func TestEncodePartNumber(t *testing.T) {
	record, err := EncodePartNumber("32263666", "AA")
	assert.NilError(t, err)
	assert.Equal(t, record, "32263666414100")

	_, err = EncodePartNumber("3226366", "AA")
	assert.ErrorContains(t, err, "8 decimal digits")

	_, err = EncodePartNumber("32263666", "AAAA")
	assert.ErrorContains(t, err, "longer than 3")
}

package clickhouse

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/openfms/uds-decoder/parser"
	"gotest.tools/v3/assert"
)

func NewConnTest(t *testing.T) ResponseDBConn {
	dsn := os.Getenv("UDS_CLICKHOUSE")
	if dsn == "" {
		t.Skip("UDS_CLICKHOUSE is not set")
	}
	responseDB, err := ConnectResponseDB(dsn)
	assert.NilError(t, err)
	assert.NilError(t, responseDB.CreateTables(context.Background()))
	return responseDB
}

func TestNewDecodedDidColumns(t *testing.T) {
	now := time.Now()
	tests := map[string]struct {
		did      *parser.DecodedDid
		expected *DecodedDidColumns
	}{
		"scaled items with units": {
			did: &parser.DecodedDid{
				DID:     "DD01",
				Name:    "Battery Voltage",
				RawItem: "7B",
				ResponseItems: []parser.ScaledField{
					{Name: "Battery Voltage", Value: parser.IntValue(62), Unit: "V"},
					{Name: "Door Open", Value: parser.BoolValue(false)},
				},
			},
			expected: &DecodedDidColumns{
				Timestamp: now,
				ECU:       "BECM",
				DID:       "DD01",
				Name:      "Battery Voltage",
				Item:      "7B",
				Items:     map[string]string{"Battery Voltage": "62 V", "Door Open": "False"},
			},
		},
		"part number": {
			did: &parser.DecodedDid{
				DID:         "F120",
				RawItem:     "32263666414100",
				PrettyValue: "32263666AA",
			},
			expected: &DecodedDidColumns{
				Timestamp: now,
				ECU:       "BECM",
				DID:       "F120",
				Item:      "32263666414100",
				Items:     map[string]string{"pretty_value": "32263666AA"},
			},
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.DeepEqual(t, NewDecodedDidColumns("BECM", now, test.did), test.expected)
		})
	}
}

func TestResponseDataBase_Save(t *testing.T) {
	dbConn := NewConnTest(t)
	ctx := context.Background()
	now := time.Now()

	err := dbConn.SaveRawResponse(ctx, &RawResponse{
		Timestamp: now,
		ECU:       "BECM",
		Mode:      1,
		Payload:   "0462DD017B",
		Kind:      "positive",
	})
	assert.NilError(t, err)

	err = dbConn.SaveDecodedDids(ctx, "BECM", now, []*parser.DecodedDid{
		{DID: "DD01", Name: "Battery Voltage", RawItem: "7B", ResponseItems: []parser.ScaledField{
			{Name: "Battery Voltage", Value: parser.IntValue(62), Unit: "V"},
		}},
	})
	assert.NilError(t, err)
}

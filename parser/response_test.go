package parser

import (
	"errors"
	"testing"

	"github.com/openfms/uds-decoder/dictionary"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gotest.tools/v3/assert"
)

func newTestDecoder(t *testing.T) (*Decoder, *observer.ObservedLogs) {
	t.Helper()
	dict, err := dictionary.Load("testdata/dictionary.yaml")
	assert.NilError(t, err)
	core, logs := observer.New(zap.WarnLevel)
	return NewDecoder(dict, zap.New(core)), logs
}

func ptr[T any](v T) *T {
	return &v
}

func TestClassify(t *testing.T) {
	tests := map[string]struct {
		raw      string
		expected Response
		errWant  error
	}{
		"negative": {
			raw: "047F2231",
			expected: &NegativeResponse{
				ServiceID:   "22",
				ServiceName: "ReadDataByIdentifier",
				NRC:         "31",
				NRCName:     "requestOutOfRange",
			},
		},
		"negative lower case with spaces": {
			raw: "03 7f 27 35",
			expected: &NegativeResponse{
				ServiceID:   "27",
				ServiceName: "SecurityAccess",
				NRC:         "35",
				NRCName:     "invalidKey",
			},
		},
		"negative unknown nrc": {
			raw: "037F1965",
			expected: &NegativeResponse{
				ServiceID:   "19",
				ServiceName: "ReadDTCInformation",
				NRC:         "65",
				NRCName:     "unknownNRC_65",
			},
		},
		"positive single frame": {
			raw: "0462DD017B",
			expected: &PositiveResponse{
				ServiceID:   "62",
				ServiceName: "ReadDataByIdentifier",
				Body:        "DD017B",
			},
		},
		"positive first frame length": {
			raw: "100B5902FFD01F1624C12287AF",
			expected: &PositiveResponse{
				ServiceID:   "59",
				ServiceName: "ReadDTCInformation",
				Body:        "02FFD01F1624C12287AF",
			},
		},
		"odd length": {
			raw:     "047F223",
			errWant: ErrMalformedResponse,
		},
		"not hex": {
			raw:     "047F22ZZ",
			errWant: ErrMalformedResponse,
		},
		"unknown service": {
			raw:     "04220102",
			errWant: ErrMalformedResponse,
		},
		"empty": {
			raw:     "",
			errWant: ErrMalformedResponse,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			resp, err := Classify(tc.raw)
			if tc.errWant != nil {
				assert.Assert(t, errors.Is(err, tc.errWant), "got %v", err)
				return
			}
			assert.NilError(t, err)
			assert.DeepEqual(t, resp, tc.expected)
		})
	}
}

func TestDecoder_DecodeUnknownSessionMode(t *testing.T) {
	d, _ := newTestDecoder(t)
	_, err := d.Decode("047F2231", dictionary.SessionMode(7))
	assert.Assert(t, errors.Is(err, dictionary.ErrUnknownSessionMode))
}

func TestDecoder_DecodeServices(t *testing.T) {
	d, _ := newTestDecoder(t)
	tests := map[string]struct {
		raw      string
		expected ServiceDetails
	}{
		"session control with timings": {
			raw: "065003003201F4",
			expected: &SessionControl{
				SessionType:     "03",
				P2ServerMax:     ptr[uint16](50),
				P2StarServerMax: ptr[uint16](500),
			},
		},
		"session control without timings": {
			raw:      "025002",
			expected: &SessionControl{SessionType: "02"},
		},
		"ecu reset": {
			raw:      "03510405",
			expected: &ECUReset{ResetType: "04", PowerDownTime: ptr[uint8](5)},
		},
		"security access seed": {
			raw:      "066701AABBCCDD",
			expected: &SecurityAccess{SubFunction: "01", Seed: "AABBCCDD"},
		},
		"security access key accepted": {
			raw:      "026702",
			expected: &SecurityAccess{SubFunction: "02"},
		},
		"routine control": {
			raw: "067101020301AA",
			expected: &RoutineControl{
				ControlType:  "01",
				RoutineID:    "0203",
				RoutineInfo:  "01",
				StatusRecord: "AA",
			},
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			resp, err := d.Decode(tc.raw, dictionary.SessionDefault)
			assert.NilError(t, err)
			positive, ok := resp.(*PositiveResponse)
			assert.Assert(t, ok)
			assert.DeepEqual(t, positive.Details, tc.expected)
		})
	}
}

func TestDecoder_DecodeIOControl(t *testing.T) {
	d, _ := newTestDecoder(t)
	resp, err := d.Decode("056FDD01037B", dictionary.SessionDefault)
	assert.NilError(t, err)
	io, ok := resp.(*PositiveResponse).Details.(*IOControl)
	assert.Assert(t, ok)
	assert.Equal(t, io.DID, "DD01")
	assert.Equal(t, io.ControlParameter, "03")
	assert.Equal(t, io.State.Name, "Battery Voltage")
	assert.Equal(t, len(io.State.ResponseItems), 1)
	assert.Equal(t, io.State.ResponseItems[0].Value.Int, int64(62))
}

func TestDecoder_DecodeNegative(t *testing.T) {
	d, _ := newTestDecoder(t)
	resp, err := d.Decode(MakeNegativeResponse(ServiceReadDataByIdentifier, 0x31), dictionary.SessionDefault)
	assert.NilError(t, err)
	negative, ok := resp.(*NegativeResponse)
	assert.Assert(t, ok)
	assert.Equal(t, negative.NRCName, "requestOutOfRange")
	assert.Equal(t, negative.SID(), "22")
}

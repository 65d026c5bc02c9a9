package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/openfms/uds-decoder/db/clickhouse"
	"github.com/openfms/uds-decoder/db/clickhouse/mock_db"
	"github.com/openfms/uds-decoder/dictionary"
	"github.com/openfms/uds-decoder/parser"
	"github.com/openfms/uds-decoder/storage"
	"go.uber.org/zap/zaptest"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/testing/protocmp"
	"google.golang.org/protobuf/types/known/structpb"
	"gotest.tools/v3/assert"
)

type testReply struct {
	OK       bool           `json:"ok"`
	Response map[string]any `json:"response"`
	NewDTCs  []string       `json:"new_dtcs"`
	Error    string         `json:"error"`
}

func newTestDecoder(t *testing.T) *parser.Decoder {
	t.Helper()
	dict, err := dictionary.Load("testdata/dictionary.yaml")
	assert.NilError(t, err)
	return parser.NewDecoder(dict, zaptest.NewLogger(t))
}

func TestParseHandshake(t *testing.T) {
	tests := map[string]struct {
		line    string
		ecu     string
		errWant error
	}{
		"valid":           {line: "ECU BECM", ecu: "BECM"},
		"trailing spaces": {line: "  ECU CEM  \r", ecu: "CEM"},
		"missing prefix":  {line: "BECM", errWant: ErrInvalidHandshake},
		"empty name":      {line: "ECU ", errWant: ErrInvalidHandshake},
		"subject token":   {line: "ECU a.b", errWant: ErrInvalidHandshake},
		"wildcard":        {line: "ECU >", errWant: ErrInvalidHandshake},
		"colon":           {line: "ECU CEM:2", errWant: ErrInvalidHandshake},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			ecu, err := ParseHandshake(tc.line)
			if tc.errWant != nil {
				assert.Assert(t, errors.Is(err, tc.errWant), "got %v", err)
				return
			}
			assert.NilError(t, err)
			assert.Equal(t, ecu, tc.ecu)
		})
	}
}

func TestParseRequestLine(t *testing.T) {
	tests := map[string]struct {
		line    string
		mode    dictionary.SessionMode
		raw     string
		errWant error
	}{
		"default session":    {line: "1 0462DD017B", mode: dictionary.SessionDefault, raw: "0462DD017B"},
		"spaced hex":         {line: "3 04 62 DD 01 7B", mode: dictionary.SessionExtended, raw: "0462DD017B"},
		"session zero":       {line: "0 037F2231", mode: dictionary.SessionUnknown, raw: "037F2231"},
		"missing payload":    {line: "1", errWant: ErrInvalidRequest},
		"session not number": {line: "x 0462DD017B", errWant: ErrInvalidRequest},
		"unknown session":    {line: "7 0462DD017B", errWant: dictionary.ErrUnknownSessionMode},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			mode, raw, err := ParseRequestLine(tc.line)
			if tc.errWant != nil {
				assert.Assert(t, errors.Is(err, tc.errWant), "got %v", err)
				return
			}
			assert.NilError(t, err)
			assert.Equal(t, mode, tc.mode)
			assert.Equal(t, raw, tc.raw)
		})
	}
}

func TestResponseToStruct(t *testing.T) {
	resp, err := newTestDecoder(t).Decode(parser.MakeNegativeResponse(parser.ServiceReadDataByIdentifier, 0x31), dictionary.SessionDefault)
	assert.NilError(t, err)

	msg, err := ResponseToStruct("BECM", dictionary.SessionDefault, resp)
	assert.NilError(t, err)
	expected, err := structpb.NewStruct(map[string]any{
		"ecu":          "BECM",
		"session":      "default",
		"kind":         "negative",
		"service_id":   "22",
		"service_name": "ReadDataByIdentifier",
		"nrc":          "31",
		"nrc_name":     "requestOutOfRange",
	})
	assert.NilError(t, err)
	assert.DeepEqual(t, msg, expected, protocmp.Transform())
}

func TestDecoderServer(t *testing.T) {
	natsServer := RunNatsServerOnPort(-1)
	defer natsServer.Shutdown()
	nc := NewNatsConnection(t, natsServer.ClientURL())
	defer nc.Close()
	sub, err := nc.SubscribeSync(ResponseSubject("BECM"))
	assert.NilError(t, err)

	ctrl := gomock.NewController(t)
	responseDB := mock_db.NewMockResponseDBConn(ctrl)
	var (
		mu           sync.Mutex
		rawResponses []*clickhouse.RawResponse
	)
	responseDB.EXPECT().SaveRawResponse(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, raw *clickhouse.RawResponse) error {
			mu.Lock()
			defer mu.Unlock()
			rawResponses = append(rawResponses, raw)
			return nil
		}).Times(5)
	responseDB.EXPECT().SaveDecodedDids(gomock.Any(), "BECM", gomock.Any(), gomock.Len(1)).Return(nil).Times(1)

	dtcDB, err := storage.OpenDB(filepath.Join(t.TempDir(), "dtc.db"))
	assert.NilError(t, err)
	defer dtcDB.Close()

	addr := generateRandomHostPort()
	srv := NewServer(addr, zaptest.NewLogger(t), newTestDecoder(t), nc, responseDB, dtcDB)
	go srv.Start()
	defer srv.Stop()

	conn := dialServer(t, addr)
	defer conn.Close()
	reader := bufio.NewReader(conn)
	ECUHandshake(t, conn, reader, "BECM")

	dtcLine := "1 " + parser.MakeDTCByStatusMaskResponse(0xFF, parser.DTCStatusRecord{DTC: "0xD01F16", Status: 0x24})
	tests := []struct {
		name    string
		line    string
		ok      bool
		newDTCs []string
		service string
	}{
		{name: "read data", line: "1 " + parser.MakeReadDataByIdentifierResponse(parser.DIDRecord{DID: "DD01", Data: "7B"}), ok: true, service: "62"},
		{name: "first dtc report", line: dtcLine, ok: true, newDTCs: []string{"D01F16"}, service: "59"},
		{name: "repeated dtc report", line: dtcLine, ok: true, service: "59"},
		{name: "negative", line: "1 037F2231", ok: true, service: "22"},
		{name: "malformed", line: "1 ZZ"},
		{name: "invalid line", line: "hello"},
	}
	for _, tc := range tests {
		_, err := conn.Write([]byte(tc.line + "\n"))
		assert.NilError(t, err)
		var reply testReply
		assert.NilError(t, json.Unmarshal([]byte(readLine(t, reader)), &reply), tc.name)
		assert.Equal(t, reply.OK, tc.ok, tc.name)
		assert.DeepEqual(t, reply.NewDTCs, tc.newDTCs)
		if !tc.ok {
			assert.Assert(t, reply.Error != "", tc.name)
			continue
		}
		assert.Equal(t, reply.Response["service_id"], tc.service, tc.name)
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, len(rawResponses), 5)
	assert.Equal(t, rawResponses[0].Kind, "positive")
	assert.Equal(t, rawResponses[3].Kind, "negative")
	assert.Equal(t, rawResponses[4].Kind, "malformed")
	assert.Assert(t, rawResponses[4].Error != "")

	msg, err := sub.NextMsg(2 * time.Second)
	assert.NilError(t, err)
	published := &structpb.Struct{}
	assert.NilError(t, proto.Unmarshal(msg.Data, published))
	fields := published.AsMap()
	assert.Equal(t, fields["ecu"], "BECM")
	assert.Equal(t, fields["kind"], "positive")
	details := fields["details"].(map[string]any)
	dids := details["dids"].([]any)
	assert.Equal(t, len(dids), 1)
	assert.Equal(t, dids[0].(map[string]any)["did"], "DD01")

	for i := 0; i < 3; i++ {
		_, err := sub.NextMsg(2 * time.Second)
		assert.NilError(t, err)
	}
	_, err = sub.NextMsg(100 * time.Millisecond)
	assert.Assert(t, err != nil, "malformed responses are not published")

	ecuDTCs, err := storage.List(dtcDB, "BECM")
	assert.NilError(t, err)
	assert.DeepEqual(t, ecuDTCs, []string{"D01F16"})
}

func TestDecoderServer_RejectsBadHandshake(t *testing.T) {
	addr := generateRandomHostPort()
	srv := NewServer(addr, zaptest.NewLogger(t), newTestDecoder(t), nil, nil, nil)
	go srv.Start()
	defer srv.Stop()

	conn := dialServer(t, addr)
	defer conn.Close()
	_, err := conn.Write([]byte("IMEI 123\n"))
	assert.NilError(t, err)
	reader := bufio.NewReader(conn)
	line := readLine(t, reader)
	assert.Assert(t, len(line) > 4 && line[:4] == "ERR ", line)
}

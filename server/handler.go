package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/openfms/uds-decoder/db/clickhouse"
	"github.com/openfms/uds-decoder/dictionary"
	"github.com/openfms/uds-decoder/parser"
	"github.com/openfms/uds-decoder/storage"
	"go.uber.org/zap"
)

const (
	handshakePrefix = "ECU "
	maxLineBytes    = 64 * 1024
)

var (
	ErrInvalidHandshake = errors.New("invalid handshake")
	ErrInvalidRequest   = errors.New("invalid request line")
)

// Reply is written back as one JSON line per request line.
type Reply struct {
	OK       bool            `json:"ok"`
	Response parser.Response `json:"response,omitempty"`
	NewDTCs  []string        `json:"new_dtcs,omitempty"`
	Error    string          `json:"error,omitempty"`
}

func (ts *DecoderServer) HandleConnection(conn net.Conn) {
	defer ts.wg.Done()
	defer ts.untrack(conn)

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
			ts.log.Error("read failed", zap.Error(err))
		}
		return
	}
	ecu, err := ParseHandshake(scanner.Text())
	if err != nil {
		ts.log.Error("handshake failed",
			zap.String("ip", conn.RemoteAddr().String()),
			zap.Error(err),
		)
		ts.ResponseDecline(conn, err)
		return
	}
	ts.log.Info("ecu connected",
		zap.String("ip", conn.RemoteAddr().String()),
		zap.String("ecu", ecu),
	)
	ts.ResponseAcceptECU(conn)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		ts.writeReply(conn, ts.HandleLine(context.Background(), ecu, line))
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		ts.log.Error("read failed", zap.String("ecu", ecu), zap.Error(err))
	}
}

// ParseHandshake reads the "ECU <name>" line a client opens with. The name ends up in
// NATS subjects and registry keys, so it may not contain dots, wildcards, colons or spaces.
func ParseHandshake(line string) (string, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, handshakePrefix) {
		return "", fmt.Errorf("%w: %q", ErrInvalidHandshake, line)
	}
	ecu := strings.TrimSpace(strings.TrimPrefix(line, handshakePrefix))
	if ecu == "" || strings.ContainsAny(ecu, ".*>: \t") {
		return "", fmt.Errorf("%w: bad ecu name %q", ErrInvalidHandshake, ecu)
	}
	return ecu, nil
}

// ParseRequestLine splits "<session mode> <hex>" into its parts. The hex may contain spaces.
func ParseRequestLine(line string) (dictionary.SessionMode, string, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0, "", fmt.Errorf("%w: %q", ErrInvalidRequest, line)
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, "", fmt.Errorf("%w: session mode %q", ErrInvalidRequest, fields[0])
	}
	mode, err := dictionary.ParseSessionMode(n)
	if err != nil {
		return 0, "", err
	}
	return mode, strings.Join(fields[1:], ""), nil
}

// HandleLine decodes one request line, stores and publishes the result.
func (ts *DecoderServer) HandleLine(ctx context.Context, ecu, line string) *Reply {
	now := time.Now()
	mode, raw, err := ParseRequestLine(line)
	if err != nil {
		return &Reply{Error: err.Error()}
	}
	resp, err := ts.decoder.Decode(raw, mode)
	ts.saveRawResponse(ctx, &clickhouse.RawResponse{
		Timestamp: now,
		ECU:       ecu,
		Mode:      uint8(mode),
		Payload:   raw,
		Kind:      responseKind(resp),
		Error:     errorString(err),
	})
	if err != nil {
		ts.log.Warn("decode failed",
			zap.String("ecu", ecu),
			zap.String("raw", raw),
			zap.Error(err),
		)
		return &Reply{Error: err.Error()}
	}
	ts.PublishResponse(ecu, mode, resp)

	reply := &Reply{OK: true, Response: resp}
	if positive, ok := resp.(*parser.PositiveResponse); ok {
		ts.saveDecodedDids(ctx, ecu, now, positive.DIDs())
		reply.NewDTCs = ts.trackDTCs(ecu, positive)
	}
	return reply
}

func (ts *DecoderServer) saveRawResponse(ctx context.Context, raw *clickhouse.RawResponse) {
	if ts.responseDB == nil {
		return
	}
	if err := ts.responseDB.SaveRawResponse(ctx, raw); err != nil {
		ts.log.Error("save raw response failed", zap.Error(err))
	}
}

func (ts *DecoderServer) saveDecodedDids(ctx context.Context, ecu string, timestamp time.Time, dids []*parser.DecodedDid) {
	if ts.responseDB == nil || len(dids) == 0 {
		return
	}
	if err := ts.responseDB.SaveDecodedDids(ctx, ecu, timestamp, dids); err != nil {
		ts.log.Error("save decoded dids failed", zap.Error(err))
	}
}

// trackDTCs records reported DTCs in the registry and returns those the ECU had not
// reported before. A positive ClearDiagnosticInformation forgets the ECU's DTCs.
func (ts *DecoderServer) trackDTCs(ecu string, resp *parser.PositiveResponse) []string {
	if ts.dtcDB == nil {
		return nil
	}
	if resp.ServiceID == parser.ResponseServiceID(parser.ServiceClearDiagnosticInformation) {
		if err := storage.ClearECU(ts.dtcDB, ecu); err != nil {
			ts.log.Error("clear dtc registry failed", zap.String("ecu", ecu), zap.Error(err))
		}
		return nil
	}
	report := resp.DTCReport()
	if report == nil {
		return nil
	}
	var newDTCs []string
	for _, rec := range report.Records {
		var status byte
		if rec.Status != nil {
			status = rec.Status.Byte()
		}
		isNew, err := storage.IsNew(ts.dtcDB, ecu, rec.DtcID, status)
		if err != nil {
			ts.log.Error("dtc registry update failed", zap.String("dtc", rec.DtcID), zap.Error(err))
			continue
		}
		if isNew {
			ts.log.Info("new dtc reported",
				zap.String("ecu", ecu),
				zap.String("dtc", rec.DtcID),
				zap.String("name", rec.Name),
			)
			newDTCs = append(newDTCs, rec.DtcID)
		}
	}
	return newDTCs
}

func (ts *DecoderServer) writeReply(conn net.Conn, reply *Reply) {
	data, err := json.Marshal(reply)
	if err != nil {
		ts.log.Error("marshal reply failed", zap.Error(err))
		data, _ = json.Marshal(&Reply{Error: err.Error()})
	}
	if _, err := conn.Write(append(data, '\n')); err != nil {
		ts.log.Error("write reply failed", zap.Error(err))
	}
}

func (ts *DecoderServer) ResponseAcceptECU(conn net.Conn) {
	_, err := conn.Write([]byte("OK\n"))
	if err != nil {
		ts.log.Error("response accept ecu failed", zap.Error(err))
	}
}

func (ts *DecoderServer) ResponseDecline(conn net.Conn, reason error) {
	_, err := conn.Write([]byte("ERR " + reason.Error() + "\n"))
	if err != nil {
		ts.log.Error("response decline failed", zap.Error(err))
	}
}

func responseKind(resp parser.Response) string {
	switch resp.(type) {
	case *parser.PositiveResponse:
		return "positive"
	case *parser.NegativeResponse:
		return "negative"
	}
	return "malformed"
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

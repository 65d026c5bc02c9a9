package server

import (
	"encoding/json"
	"fmt"

	"github.com/openfms/uds-decoder/dictionary"
	"github.com/openfms/uds-decoder/parser"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

func ResponseSubject(ecu string) string {
	return fmt.Sprintf("uds.response.%s", ecu)
}

// ResponseToStruct converts a decoded response into a protobuf Struct, tagged with the
// ECU, the session it was decoded in and whether it was positive.
func ResponseToStruct(ecu string, mode dictionary.SessionMode, resp parser.Response) (*structpb.Struct, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]any)
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	fields["ecu"] = ecu
	fields["session"] = mode.String()
	fields["kind"] = responseKind(resp)
	return structpb.NewStruct(fields)
}

func (ts *DecoderServer) PublishResponse(ecu string, mode dictionary.SessionMode, resp parser.Response) {
	if ts.natsConn == nil {
		return
	}
	msg, err := ResponseToStruct(ecu, mode, resp)
	if err != nil {
		ts.log.Error("convert response failed", zap.Error(err))
		return
	}
	msgBytes, err := proto.Marshal(msg)
	if err != nil {
		ts.log.Error("marshal response failed", zap.Error(err))
		return
	}
	if e := ts.natsConn.Publish(ResponseSubject(ecu), msgBytes); e != nil {
		ts.log.Error("publish response failed", zap.Error(e))
	}
}

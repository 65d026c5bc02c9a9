package clickhouse

import (
	"context"
	"time"
)

// RawResponse is one response line as received from a tester, decoded or not.
type RawResponse struct {
	Timestamp time.Time `ch:"timestamp"`
	ECU       string    `ch:"ecu"`
	Mode      uint8     `ch:"mode"`
	Payload   string    `ch:"payload"`
	Kind      string    `ch:"kind"`
	Error     string    `ch:"error"`
}

const insertRawResponseQuery = `
	INSERT INTO raw_responses (timestamp, ecu, mode, payload, kind, error)
VALUES (?,?,?,?,?,?);
`

// SaveRawResponse saves a raw response to clickhouse
func (rdb *ResponseDataBase) SaveRawResponse(ctx context.Context, raw *RawResponse) error {
	batch, err := rdb.GetConn().PrepareBatch(ctx, insertRawResponseQuery)
	if err != nil {
		return err
	}
	if e := batch.AppendStruct(raw); e != nil {
		return e
	}
	return batch.Send()
}

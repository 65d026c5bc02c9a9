package clickhouse

import (
	"context"
	"time"

	"github.com/openfms/uds-decoder/parser"
)

type DecodedDidColumns struct {
	Timestamp time.Time         `ch:"timestamp"`
	ECU       string            `ch:"ecu"`
	DID       string            `ch:"did"`
	Name      string            `ch:"name"`
	Item      string            `ch:"item"`
	Items     map[string]string `ch:"items"`
}

const insertDecodedDidQuery = `
	INSERT INTO 
	    decoded_dids(timestamp, ecu, did, name, item, items)
	VALUES (?,?,?,?,?,?);
`

// NewDecodedDidColumns flattens a decoded DID into one row. Scaled values are stored as
// text together with their unit.
func NewDecodedDidColumns(ecu string, timestamp time.Time, did *parser.DecodedDid) *DecodedDidColumns {
	items := make(map[string]string, len(did.ResponseItems))
	for _, item := range did.ResponseItems {
		value := item.Value.String()
		if item.Unit != "" {
			value += " " + item.Unit
		}
		items[item.Name] = value
	}
	if did.PrettyValue != "" {
		items["pretty_value"] = did.PrettyValue
	}
	return &DecodedDidColumns{
		Timestamp: timestamp,
		ECU:       ecu,
		DID:       did.DID,
		Name:      did.Name,
		Item:      did.RawItem,
		Items:     items,
	}
}

// SaveDecodedDids saves decoded dids to clickhouse
func (rdb *ResponseDataBase) SaveDecodedDids(ctx context.Context, ecu string, timestamp time.Time, dids []*parser.DecodedDid) error {
	if len(dids) == 0 {
		return nil
	}
	batch, err := rdb.ClickhouseConn.PrepareBatch(ctx, insertDecodedDidQuery)
	if err != nil {
		return err
	}
	for _, did := range dids {
		if err := batch.AppendStruct(NewDecodedDidColumns(ecu, timestamp, did)); err != nil {
			return err
		}
	}
	return batch.Send()
}

package clickhouse

import (
	"context"
	"net"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/openfms/uds-decoder/parser"
)

//go:generate mockgen -source=$GOFILE -destination=mock_db/conn.go -package=mock_db
type ResponseDBConn interface {
	GetConn() driver.Conn
	CreateTables(ctx context.Context) error
	SaveRawResponse(ctx context.Context, raw *RawResponse) error
	SaveDecodedDids(ctx context.Context, ecu string, timestamp time.Time, dids []*parser.DecodedDid) error
}

var _ ResponseDBConn = &ResponseDataBase{}

type ResponseDataBase struct {
	ClickhouseConn driver.Conn
}

func (rdb *ResponseDataBase) GetConn() driver.Conn {
	return rdb.ClickhouseConn
}

func ConnectResponseDB(databaseURL string) (*ResponseDataBase, error) {
	opts, err := clickhouse.ParseDSN(databaseURL)
	if err != nil {
		return nil, err
	}
	opts.DialContext = func(ctx context.Context, addr string) (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, "tcp", addr)
	}
	opts.Compression = &clickhouse.Compression{
		Method: clickhouse.CompressionLZ4,
	}
	opts.DialTimeout = time.Second * 30
	opts.MaxOpenConns = 5
	opts.MaxIdleConns = 5
	opts.ConnMaxLifetime = time.Duration(10) * time.Minute
	opts.ConnOpenStrategy = clickhouse.ConnOpenInOrder

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, err
	}
	if e := conn.Ping(context.Background()); e != nil {
		return nil, e
	}
	return &ResponseDataBase{
		ClickhouseConn: conn,
	}, nil
}

var createTableQueries = []string{
	`CREATE TABLE IF NOT EXISTS raw_responses (
		timestamp DateTime64(3),
		ecu       LowCardinality(String),
		mode      UInt8,
		payload   String,
		kind      LowCardinality(String),
		error     String
	) ENGINE = MergeTree ORDER BY (ecu, timestamp)`,
	`CREATE TABLE IF NOT EXISTS decoded_dids (
		timestamp DateTime64(3),
		ecu       LowCardinality(String),
		did       FixedString(4),
		name      String,
		item      String,
		items     Map(String, String)
	) ENGINE = MergeTree ORDER BY (ecu, did, timestamp)`,
}

// CreateTables creates the response tables when they do not exist yet.
func (rdb *ResponseDataBase) CreateTables(ctx context.Context) error {
	for _, query := range createTableQueries {
		if err := rdb.ClickhouseConn.Exec(ctx, query); err != nil {
			return err
		}
	}
	return nil
}

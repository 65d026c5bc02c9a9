package server

import (
	"net"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/openfms/uds-decoder/db/clickhouse"
	"github.com/openfms/uds-decoder/parser"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

type Empty struct{}

// DecoderServer accepts raw UDS responses from test benches over TCP, one line per
// response, and answers each line with the decoded result as JSON.
type DecoderServer struct {
	listenAddr string
	ln         net.Listener
	quitChan   chan Empty
	wg         sync.WaitGroup
	mu         sync.Mutex
	conns      map[net.Conn]Empty
	log        *zap.Logger
	decoder    *parser.Decoder
	natsConn   *nats.Conn
	responseDB clickhouse.ResponseDBConn
	dtcDB      *bolt.DB
}

type TcpServerInterface interface {
	Start()
	Stop()
}

var (
	_ TcpServerInterface = &DecoderServer{}
)

// NewServer wires a decode server. natsConn, responseDB and dtcDB may be nil, in which
// case publishing, storing or DTC tracking is skipped.
func NewServer(listenAddr string, logger *zap.Logger, decoder *parser.Decoder, natsConn *nats.Conn,
	responseDB clickhouse.ResponseDBConn, dtcDB *bolt.DB) *DecoderServer {
	return &DecoderServer{
		listenAddr: listenAddr,
		quitChan:   make(chan Empty),
		conns:      make(map[net.Conn]Empty),
		log:        logger,
		decoder:    decoder,
		natsConn:   natsConn,
		responseDB: responseDB,
		dtcDB:      dtcDB,
	}
}

func (ts *DecoderServer) Start() {
	ln, err := net.Listen("tcp", ts.listenAddr)
	if err != nil {
		ts.log.Error("failed to listen", zap.Error(err))
		return
	}
	defer ln.Close()
	ts.mu.Lock()
	ts.ln = ln
	ts.mu.Unlock()

	go ts.acceptConnections(ln)
	ts.log.Info("server started",
		zap.String("ListenAddress", ts.listenAddr),
	)
	<-ts.quitChan
}

func (ts *DecoderServer) acceptConnections(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ts.quitChan:
				return
			default:
			}
			ts.log.Error("accept connection error", zap.Error(err))
			continue
		}
		ts.log.Info("new Connection to the server", zap.String("Address", conn.RemoteAddr().String()))
		if !ts.track(conn) {
			return
		}
		go ts.HandleConnection(conn)
	}
}

// track registers conn unless the server is stopping.
func (ts *DecoderServer) track(conn net.Conn) bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	select {
	case <-ts.quitChan:
		conn.Close()
		return false
	default:
	}
	ts.conns[conn] = Empty{}
	ts.wg.Add(1)
	return true
}

func (ts *DecoderServer) untrack(conn net.Conn) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	delete(ts.conns, conn)
	conn.Close()
}

// Stop closes the listener and every open connection, then waits for the handlers.
func (ts *DecoderServer) Stop() {
	close(ts.quitChan)
	ts.mu.Lock()
	if ts.ln != nil {
		ts.ln.Close()
	}
	for conn := range ts.conns {
		conn.Close()
	}
	ts.mu.Unlock()
	ts.wg.Wait()
	ts.log.Info("stop server")
}

package server

import (
	"bufio"
	"fmt"
	"math/rand"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	natstest "github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"gotest.tools/v3/assert"
)

func generateRandomHostPort() string {
	port := rand.Intn(65535-1024) + 1024
	return net.JoinHostPort("127.0.0.1", fmt.Sprintf("%d", port))
}

// RunNatsServerOnPort will run a nats server on the given port.
func RunNatsServerOnPort(port int) *server.Server {
	opts := natstest.DefaultTestOptions
	opts.Port = port
	return RunNatsServerWithOptions(&opts)
}

// RunNatsServerWithOptions will run a server with the given options.
func RunNatsServerWithOptions(opts *server.Options) *server.Server {
	return natstest.RunServer(opts)
}

func NewNatsConnection(t *testing.T, url string) *nats.Conn {
	nc, err := nats.Connect(url)
	if err != nil {
		t.Fatalf("Failed to create default connection: %v\n", err)
	}
	return nc
}

// dialServer retries until the server under test is listening.
func dialServer(t *testing.T, addr string) net.Conn {
	t.Helper()
	var lastErr error
	for i := 0; i < 50; i++ {
		conn, err := net.Dial("tcp", addr)
		if err == nil {
			return conn
		}
		lastErr = err
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("dial %s: %v", addr, lastErr)
	return nil
}

func readLine(t *testing.T, reader *bufio.Reader) string {
	t.Helper()
	line, err := reader.ReadString('\n')
	assert.NilError(t, err)
	return strings.TrimSuffix(line, "\n")
}

func ECUHandshake(t *testing.T, clientConn net.Conn, reader *bufio.Reader, ecu string) {
	_, err := clientConn.Write([]byte("ECU " + ecu + "\n"))
	assert.NilError(t, err)
	assert.Equal(t, readLine(t, reader), "OK")
}

package simulator

import (
	"bufio"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/openfms/uds-decoder/dictionary"
	"go.uber.org/zap"
)

// TesterDevice plays a test bench: it connects to the decode server as one ECU and
// streams raw responses to it.
type TesterDevice struct {
	serverAddr, ecu string
	mode            dictionary.SessionMode
	interval        time.Duration
	conn            net.Conn
	reader          *bufio.Reader
	quitChan        chan struct{}
	stopOnce        sync.Once
	log             *zap.Logger
}

type TesterInterface interface {
	Connect() error
	Stop()
	Handshake() error
	SendResponse(raw string) (*Reply, error)
	SendRandomResponses()
}

var (
	_ TesterInterface = &TesterDevice{}
)

func NewTesterDevice(serverAddr, ecu string, mode dictionary.SessionMode, interval time.Duration, logger *zap.Logger) *TesterDevice {
	return &TesterDevice{
		serverAddr: serverAddr,
		ecu:        ecu,
		mode:       mode,
		interval:   interval,
		quitChan:   make(chan struct{}),
		log:        logger,
	}
}

func (td *TesterDevice) Connect() error {
	conn, err := net.Dial("tcp", td.serverAddr)
	if err != nil {
		return fmt.Errorf("failed to dial server: %w", err)
	}
	td.conn = conn
	td.reader = bufio.NewReader(conn)
	return nil
}

func (td *TesterDevice) Stop() {
	td.stopOnce.Do(func() {
		close(td.quitChan)
		if td.conn != nil {
			td.conn.Close()
		}
	})
	td.log.Info("stop tester simulator", zap.String("ecu", td.ecu))
}

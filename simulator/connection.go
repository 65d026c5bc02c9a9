package simulator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrHandshakeRejected = errors.New("handshake not accepted")

// Reply mirrors the JSON line the decode server answers every response with.
type Reply struct {
	OK       bool            `json:"ok"`
	Response json.RawMessage `json:"response,omitempty"`
	NewDTCs  []string        `json:"new_dtcs,omitempty"`
	Error    string          `json:"error,omitempty"`
}

func (td *TesterDevice) readLine() (string, error) {
	line, err := td.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (td *TesterDevice) Handshake() error {
	if _, err := fmt.Fprintf(td.conn, "ECU %s\n", td.ecu); err != nil {
		return fmt.Errorf("failed to send handshake: %w", err)
	}
	line, err := td.readLine()
	if err != nil {
		return fmt.Errorf("failed to read handshake response: %w", err)
	}
	if line != "OK" {
		return fmt.Errorf("%w: %s", ErrHandshakeRejected, line)
	}
	return nil
}

// SendResponse sends one raw response in the tester's session mode and waits for the
// decoded reply.
func (td *TesterDevice) SendResponse(raw string) (*Reply, error) {
	if _, err := fmt.Fprintf(td.conn, "%d %s\n", int(td.mode), raw); err != nil {
		return nil, fmt.Errorf("failed to send response: %w", err)
	}
	line, err := td.readLine()
	if err != nil {
		return nil, fmt.Errorf("failed to read reply: %w", err)
	}
	reply := &Reply{}
	if err := json.Unmarshal([]byte(line), reply); err != nil {
		return nil, fmt.Errorf("failed to parse reply: %w", err)
	}
	return reply, nil
}

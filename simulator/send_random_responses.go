package simulator

import (
	"time"

	"go.uber.org/zap"
)

// SendRandomResponses handshakes and then sends one random response per interval until
// Stop is called or the connection fails.
func (td *TesterDevice) SendRandomResponses() {
	if err := td.Handshake(); err != nil {
		td.log.Error("ecu handshake failed", zap.Error(err))
		return
	}

	ticker := time.NewTicker(td.interval)
	defer ticker.Stop()
	for {
		raw := generateRandomResponse()
		reply, err := td.SendResponse(raw)
		if err != nil {
			select {
			case <-td.quitChan:
			default:
				td.log.Error("failed to send response", zap.Error(err))
			}
			return
		}
		td.log.Info("sent response",
			zap.String("ecu", td.ecu),
			zap.String("raw", raw),
			zap.Bool("ok", reply.OK),
			zap.Strings("new_dtcs", reply.NewDTCs),
			zap.String("error", reply.Error),
		)

		select {
		case <-td.quitChan:
			return
		case <-ticker.C:
		}
	}
}

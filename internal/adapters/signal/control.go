package signal

import "github.com/dkeye/Valley/internal/core"

func (ctl *SignalWSController) handlePing(conn *WsSignalConn) {
	ctl.sendJSON(conn, core.NewEvent(core.EvPong, nil))
}

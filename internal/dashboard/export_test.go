package dashboard

import "time"

func (handler *Handler) SetPingInterval(d time.Duration) {
	handler.pingInterval = d
}

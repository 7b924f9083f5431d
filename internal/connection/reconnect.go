package connection

import "github.com/janisvco/stepfeed/internal/readings"

// scheduleReconnect arms the one-shot retry timer. It is a no-op while a
// retry is pending or an auth attempt is in flight.
func (s *session) scheduleReconnect() {
	if s.closed || s.reconnectTimer != nil || s.state == readings.StateAuthenticating {
		return
	}

	delay := ReconnectDelay(s.attempts, s.cfg.ReconnectBaseDelay, s.cfg.ReconnectMaxDelay)
	token := s.nextToken()
	post := s.post

	s.reconnectToken = token
	s.reconnectTimer = s.clock.AfterFunc(delay, func() {
		post(event{kind: evReconnectDue, gen: token})
	})

	s.logger.Info("reconnect scheduled", "delay", delay, "attempt", s.attempts+1)
}

func (s *session) cancelReconnect() {
	if s.reconnectTimer != nil {
		s.reconnectTimer.Stop()
	}
	s.reconnectTimer = nil
	s.reconnectToken = 0
}

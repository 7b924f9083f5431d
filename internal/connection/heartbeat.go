package connection

import "github.com/janisvco/stepfeed/internal/protocol"

// startHeartbeat resets the tracker and arms the first tick.
func (s *session) startHeartbeat() {
	s.stopHeartbeat()
	s.armHeartbeat()
}

func (s *session) armHeartbeat() {
	if s.cfg.HeartbeatInterval <= 0 {
		return
	}
	token := s.nextToken()
	post := s.post

	s.heartbeatToken = token
	s.heartbeatTimer = s.clock.AfterFunc(s.cfg.HeartbeatInterval, func() {
		post(event{kind: evHeartbeatTick, gen: token})
	})
}

// heartbeatTick pings and counts. The next tick is armed before anything
// else so replies never shift the cadence.
func (s *session) heartbeatTick() {
	s.armHeartbeat()

	if s.conn == nil {
		return
	}

	if err := s.conn.Send(protocol.NewPing()); err != nil {
		s.log.Error("failed to send heartbeat", "error", err)
		s.dropConnection()
		return
	}

	s.missed++
	if s.missed > s.cfg.HeartbeatMissesAllowed {
		s.log.Warn("missed heartbeats, forcing reconnect",
			"missed", s.missed,
			"allowed", s.cfg.HeartbeatMissesAllowed,
		)
		s.dropConnection()
	}
}

func (s *session) stopHeartbeat() {
	if s.heartbeatTimer != nil {
		s.heartbeatTimer.Stop()
	}
	s.heartbeatTimer = nil
	s.heartbeatToken = 0
	s.missed = 0
}

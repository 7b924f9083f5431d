package web

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/janisvco/stepfeed/internal/readings"
)

// HealthJSON is the /healthz body.
type HealthJSON struct {
	Status string `json:"status"`
}

func (s *Server) handleReadings(c echo.Context) error {
	return c.JSON(http.StatusOK, s.src.Readings().Snapshot())
}

func (s *Server) handleHealth(c echo.Context) error {
	st := s.src.State()
	code := http.StatusServiceUnavailable
	if st == readings.StateConnected {
		code = http.StatusOK
	}
	return c.JSON(code, HealthJSON{Status: st.String()})
}

func (s *Server) handleStartSteps(c echo.Context) error {
	s.ctrl.StartMockStepData()
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleStopSteps(c echo.Context) error {
	s.ctrl.StopMockStepData()
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleStartHeart(c echo.Context) error {
	s.ctrl.StartMockHeartData()
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleStopHeart(c echo.Context) error {
	s.ctrl.StopMockHeartData()
	return c.NoContent(http.StatusNoContent)
}

type stateRequest struct {
	State string `json:"state"`
}

func (s *Server) handleSetState(c echo.Context) error {
	var req stateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	st, ok := readings.ParseConnectionState(req.State)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown state "+req.State)
	}
	s.ctrl.SetConnectionState(st)
	return c.JSON(http.StatusOK, HealthJSON{Status: st.String()})
}

type flagsRequest struct {
	BRBEnabled   *bool `json:"brbEnabled"`
	HeartEnabled *bool `json:"heartEnabled"`
}

func (s *Server) handleSetFlags(c echo.Context) error {
	var req flagsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.BRBEnabled == nil && req.HeartEnabled == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "no flags given")
	}
	if req.BRBEnabled != nil {
		s.ctrl.SetBRBEnabled(*req.BRBEnabled)
	}
	if req.HeartEnabled != nil {
		s.ctrl.SetHeartEnabled(*req.HeartEnabled)
	}
	return c.JSON(http.StatusOK, s.src.Readings().Snapshot())
}

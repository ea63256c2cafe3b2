package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/skylight-cinema/box-office/internal/model"
	"github.com/skylight-cinema/box-office/internal/service"
)

// SeatStatusHandler serves the merged seat-occupancy view and the
// write endpoints feeding it: online-channel marks and the terminal's
// live seat selection.
type SeatStatusHandler struct {
	Status *service.SeatStatusService
}

func NewSeatStatusHandler(s *service.SeatStatusService) *SeatStatusHandler {
	return &SeatStatusHandler{Status: s}
}

type seatMarkReq struct {
	Date  string   `json:"date"` // YYYY-MM-DD
	Show  string   `json:"show"`
	Seats []string `json:"seats"`
}

func (r seatMarkReq) parse() (time.Time, model.Show, error) {
	date, err := parseDate(r.Date)
	if err != nil {
		return time.Time{}, "", err
	}
	show, err := model.ParseShow(r.Show)
	if err != nil {
		return time.Time{}, "", err
	}
	return date, show, nil
}

// Get returns the occupancy view for one screening.  Both date and
// show are required; a seat appearing in more than one source is
// reported in each of them.
func (h *SeatStatusHandler) Get(c echo.Context) error {
	date, err := parseDate(c.QueryParam("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	show, err := model.ParseShow(c.QueryParam("show"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown show"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	return c.JSON(http.StatusOK, h.Status.Project(ctx, date, show))
}

// SetSelection replaces the live seat selection for a screening.  An
// empty seat list clears it.
func (h *SeatStatusHandler) SetSelection(c echo.Context) error {
	var req seatMarkReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	date, show, err := req.parse()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	h.Status.SetSelection(date, show, req.Seats)
	return c.NoContent(http.StatusNoContent)
}

// MarkOnline records seats as sold through the online channel.
func (h *SeatStatusHandler) MarkOnline(c echo.Context) error {
	var req seatMarkReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	date, show, err := req.parse()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if len(req.Seats) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seats required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Status.MarkOnline(ctx, date, show, req.Seats); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "mark online failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// UnmarkOnline removes online-channel marks, e.g. after an online
// refund.
func (h *SeatStatusHandler) UnmarkOnline(c echo.Context) error {
	var req seatMarkReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	date, show, err := req.parse()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if len(req.Seats) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seats required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Status.UnmarkOnline(ctx, date, show, req.Seats); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unmark online failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

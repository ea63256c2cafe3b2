package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/skylight-cinema/box-office/internal/model"
	"github.com/skylight-cinema/box-office/internal/repository"
	"github.com/skylight-cinema/box-office/internal/service"
)

// BookingHandler exposes the booking lifecycle over HTTP.
type BookingHandler struct {
	Bookings *service.BookingService
}

func NewBookingHandler(b *service.BookingService) *BookingHandler {
	return &BookingHandler{Bookings: b}
}

// ----- DTOs -----

type createBookingReq struct {
	Date          string   `json:"date"` // YYYY-MM-DD
	Show          string   `json:"show"`
	Screen        string   `json:"screen"`
	MovieTitle    string   `json:"movie_title"`
	MovieLanguage string   `json:"movie_language"`
	Seats         []string `json:"seats"`
	TotalPrice    int64    `json:"total_price"`
	Source        string   `json:"source"`
	CustomerName  string   `json:"customer_name"`
	CustomerPhone string   `json:"customer_phone"`
}

type bookingResp struct {
	Booking   *model.Booking `json:"booking"`
	Duplicate bool           `json:"duplicate"`
}

type updateBookingReq struct {
	Screen        *string `json:"screen"`
	MovieTitle    *string `json:"movie_title"`
	MovieLanguage *string `json:"movie_language"`
	Status        *string `json:"status"`
	Synced        *bool   `json:"synced"`
	CustomerName  *string `json:"customer_name"`
	CustomerPhone *string `json:"customer_phone"`
}

// Create records a counter sale.  Resubmitting an identical booking
// (same date, show and seat set) returns the original row with
// duplicate=true instead of writing a second one.
func (h *BookingHandler) Create(c echo.Context) error {
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	show, err := model.ParseShow(req.Show)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown show"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	b, duplicate, err := h.Bookings.Create(ctx, service.CreateBookingInput{
		Date:          date,
		Show:          show,
		Screen:        req.Screen,
		MovieTitle:    req.MovieTitle,
		MovieLanguage: req.MovieLanguage,
		Seats:         req.Seats,
		TotalPrice:    req.TotalPrice,
		Source:        strings.ToUpper(strings.TrimSpace(req.Source)),
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoSeats),
			errors.Is(err, service.ErrNegativePrice),
			errors.Is(err, service.ErrMissingDate):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create booking failed"})
		}
	}
	status := http.StatusCreated
	if duplicate {
		status = http.StatusOK
	}
	return c.JSON(status, bookingResp{Booking: b, Duplicate: duplicate})
}

// List returns bookings matching optional date, show and status
// query filters, newest first.
func (h *BookingHandler) List(c echo.Context) error {
	date, show, err := parseShowFilters(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	status := strings.ToUpper(strings.TrimSpace(c.QueryParam("status")))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Bookings.List(ctx, date, show, status)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list bookings failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "count": len(items)})
}

// Stats returns aggregate sales figures for an optional date and show.
func (h *BookingHandler) Stats(c echo.Context) error {
	date, show, err := parseShowFilters(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stats, err := h.Bookings.Stats(ctx, date, show)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "compute stats failed"})
	}
	return c.JSON(http.StatusOK, stats)
}

// Update applies a partial update to a booking.
func (h *BookingHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Status != nil {
		s := strings.ToUpper(strings.TrimSpace(*req.Status))
		if s != model.BookingConfirmed && s != model.BookingCancelled && s != model.BookingRefunded {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
		}
		req.Status = &s
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	b, err := h.Bookings.Update(ctx, id, repository.BookingPatch{
		Screen:        req.Screen,
		MovieTitle:    req.MovieTitle,
		MovieLanguage: req.MovieLanguage,
		Status:        req.Status,
		Synced:        req.Synced,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update booking failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": b})
}

// MarkPrinted stamps the booking as printed now, e.g. after a reprint.
func (h *BookingHandler) MarkPrinted(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	b, err := h.Bookings.MarkPrinted(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "mark printed failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": b})
}

// Delete removes a booking permanently.
func (h *BookingHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Bookings.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete booking failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- shared query helpers -----

func parseID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", strings.TrimSpace(s))
}

// parseShowFilters reads the optional ?date= and ?show= query params.
func parseShowFilters(c echo.Context) (*time.Time, model.Show, error) {
	var date *time.Time
	if raw := c.QueryParam("date"); raw != "" {
		d, err := parseDate(raw)
		if err != nil {
			return nil, "", errors.New("date must be YYYY-MM-DD")
		}
		date = &d
	}
	var show model.Show
	if raw := c.QueryParam("show"); raw != "" {
		s, err := model.ParseShow(raw)
		if err != nil {
			return nil, "", errors.New("unknown show")
		}
		show = s
	}
	return date, show, nil
}

package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/skylight-cinema/box-office/internal/model"
	"github.com/skylight-cinema/box-office/internal/printer"
	"github.com/skylight-cinema/box-office/internal/sequence"
)

// PrintHandler exposes the ticket number sequence and the print
// pipeline.
type PrintHandler struct {
	Sequence *sequence.Issuer
	Pipeline *printer.Pipeline
}

func NewPrintHandler(seq *sequence.Issuer, pipe *printer.Pipeline) *PrintHandler {
	return &PrintHandler{Sequence: seq, Pipeline: pipe}
}

// SequenceInfo returns the current counter value and format without
// advancing it.
func (h *PrintHandler) SequenceInfo(c echo.Context) error {
	st := h.Sequence.Config()
	return c.JSON(http.StatusOK, echo.Map{
		"current":    h.Sequence.Current(),
		"current_id": st.CurrentID,
		"prefix":     st.Prefix,
		"padding":    st.Padding,
	})
}

// SequenceNext issues the next ticket number.
func (h *PrintHandler) SequenceNext(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"ticket_no": h.Sequence.Next()})
}

type sequenceResetReq struct {
	Value int64 `json:"value"`
}

// SequenceReset overwrites the counter, e.g. at the start of a
// financial year.  Manager only.
func (h *PrintHandler) SequenceReset(c echo.Context) error {
	var req sequenceResetReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := h.Sequence.Reset(req.Value); err != nil {
		if errors.Is(err, sequence.ErrNegativeValue) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset sequence failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"current": h.Sequence.Current()})
}

type printReq struct {
	TicketNo string `json:"ticket_no"`
	Content  string `json:"content"`
	Device   string `json:"device"`
}

// Print submits a render-ready ticket payload to the pipeline and
// reports the job's terminal state.
func (h *PrintHandler) Print(c echo.Context) error {
	var req printReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Content) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "content required"})
	}

	jobID, err := h.Pipeline.Submit(c.Request().Context(), model.PrintPayload{
		TicketNo: req.TicketNo,
		Content:  req.Content,
		Device:   req.Device,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "submit print job failed"})
	}

	// Submit blocks until the job is terminal, so the status below is
	// final for this request.
	for _, j := range h.Pipeline.GetQueueStatus().Jobs {
		if j.ID == jobID {
			status := http.StatusOK
			if j.Status == model.PrintFailed {
				status = http.StatusBadGateway
			}
			return c.JSON(status, echo.Map{"job": j})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"job_id": jobID})
}

// PrintStatus returns the in-memory job list for operational
// visibility.
func (h *PrintHandler) PrintStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Pipeline.GetQueueStatus())
}

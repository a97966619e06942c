package http

import (
	"context"
	"errors"
	"net/http"

	echo "github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/jmehdipour/wablast/internal/dispatch"
	"github.com/jmehdipour/wablast/internal/model"
)

type sendReq struct {
	Message string `json:"message"`
}

// sendHandler runs a manual broadcast to the current recipient list. The
// request blocks until the pass completes or is canceled, mirroring the
// synchronous contract of the original panel.
func sendHandler(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req sendReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, model.Err("request body is missing or could not be parsed"))
		}

		campaign := model.Campaign{
			Message:    req.Message,
			ScheduleID: model.ManualScheduleID,
			Recipients: d.Recipients.Current(),
		}

		// The pass outlives any client timeout or disconnect; only the
		// explicit cancel endpoint stops it.
		res, err := d.Engine.Run(context.WithoutCancel(c.Request().Context()), campaign)
		if err != nil {
			if errors.Is(err, dispatch.ErrBusy) {
				return c.JSON(http.StatusConflict, res)
			}
			d.Log.Error("dispatch failed", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, model.Err("server error while sending"))
		}
		return c.JSON(http.StatusOK, res)
	}
}

func cancelHandler(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, d.Engine.Cancel(c.Request().Context()))
	}
}

func progressHandler(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]int{"progress": d.Engine.Progress()})
	}
}

package http

import (
	"net/http"

	echo "github.com/labstack/echo/v4"

	"github.com/jmehdipour/wablast/internal/model"
	"github.com/jmehdipour/wablast/internal/schedule"
)

type createScheduleReq struct {
	Time    string `json:"time"` // "HH:MM"
	Days    []int  `json:"days"`
	Message string `json:"message"`
}

type scheduleRes struct {
	model.Result
	ScheduleID string `json:"schedule_id,omitempty"`
}

func createScheduleHandler(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req createScheduleReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, model.Err("request body is missing or could not be parsed"))
		}

		id, res := d.Registry.Create(c.Request().Context(), schedule.CreateInput{
			Time:    req.Time,
			Days:    req.Days,
			Message: req.Message,
		})
		if res.Status != model.ResultSuccess {
			return c.JSON(http.StatusBadRequest, res)
		}
		return c.JSON(http.StatusOK, scheduleRes{Result: res, ScheduleID: id})
	}
}

type editScheduleReq struct {
	ID      string `json:"id"`
	Time    string `json:"time"`
	Days    []int  `json:"days"`
	Message string `json:"message"`
}

func editScheduleHandler(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req editScheduleReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, model.Err("request body is missing or could not be parsed"))
		}

		res := d.Registry.Edit(c.Request().Context(), schedule.EditInput{
			ID:      req.ID,
			Time:    req.Time,
			Days:    req.Days,
			Message: req.Message,
		})
		if res.Status != model.ResultSuccess {
			return c.JSON(http.StatusBadRequest, res)
		}
		return c.JSON(http.StatusOK, res)
	}
}

type deleteScheduleReq struct {
	ID string `json:"id"`
}

func deleteScheduleHandler(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req deleteScheduleReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, model.Err("request body is missing or could not be parsed"))
		}

		res := d.Registry.Delete(c.Request().Context(), req.ID)
		if res.Status != model.ResultSuccess {
			return c.JSON(http.StatusBadRequest, res)
		}
		return c.JSON(http.StatusOK, res)
	}
}

func listSchedulesHandler(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, d.Registry.List())
	}
}

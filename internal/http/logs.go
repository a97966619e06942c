package http

import (
	"fmt"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/jmehdipour/wablast/internal/model"
)

func queryDate(c echo.Context) string {
	if d := c.QueryParam("date"); d != "" {
		return d
	}
	// log rows are stamped in UTC
	return time.Now().UTC().Format("2006-01-02")
}

func logsHandler(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		date := queryDate(c)
		logs, err := d.Audit.ListByDate(c.Request().Context(), date, c.QueryParam("schedule_id"))
		if err != nil {
			d.Log.Error("log query failed", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, model.Err("server error while fetching logs"))
		}
		if logs == nil {
			logs = []string{}
		}
		return c.JSON(http.StatusOK, map[string]any{"logs": logs, "date": date})
	}
}

func logDatesHandler(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		dates, err := d.Audit.Dates(c.Request().Context())
		if err != nil {
			d.Log.Error("log dates query failed", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, []string{})
		}
		if dates == nil {
			dates = []string{}
		}
		return c.JSON(http.StatusOK, dates)
	}
}

func logExportHandler(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		date := queryDate(c)
		content, err := d.Audit.Export(c.Request().Context(), date, c.QueryParam("schedule_id"))
		if err != nil {
			d.Log.Error("log export failed", zap.Error(err))
			return c.String(http.StatusInternalServerError, "error")
		}
		c.Response().Header().Set(echo.HeaderContentDisposition,
			fmt.Sprintf("attachment; filename=logs_%s.txt", date))
		return c.Blob(http.StatusOK, echo.MIMETextPlainCharsetUTF8, []byte(content))
	}
}

func sessionsHandler(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		ids, err := d.Audit.Sessions(c.Request().Context(), queryDate(c))
		if err != nil {
			d.Log.Error("sessions query failed", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, []string{})
		}
		if ids == nil {
			ids = []string{}
		}
		return c.JSON(http.StatusOK, ids)
	}
}

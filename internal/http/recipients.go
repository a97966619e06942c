package http

import (
	"fmt"
	"net/http"

	echo "github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/jmehdipour/wablast/internal/model"
)

type replaceRecipientsReq struct {
	Numbers []string `json:"numbers"`
}

// replaceRecipientsHandler swaps in a new recipient list from raw tokens.
// Invalid tokens are reported back and excluded; they never block the
// valid remainder. Every stored schedule's recipient-count snapshot is
// refreshed to the new size.
func replaceRecipientsHandler(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req replaceRecipientsReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, model.Err("request body is missing or could not be parsed"))
		}

		ctx := c.Request().Context()
		valid := make([]model.RecipientID, 0, len(req.Numbers))
		var invalid []string
		for i, raw := range req.Numbers {
			id, err := d.Normalizer.Normalize(ctx, raw)
			if err != nil {
				invalid = append(invalid, fmt.Sprintf("entry %d: %s", i+1, raw))
				continue
			}
			valid = append(valid, id)
		}

		if len(valid) == 0 {
			d.Audit.Append(ctx, "[ERROR] no valid numbers in the submitted list", "", "", "")
			return c.JSON(http.StatusBadRequest, map[string]any{
				"status":          model.ResultError,
				"message":         "no valid numbers in the submitted list",
				"invalid_numbers": invalid,
			})
		}

		total := d.Recipients.Replace(valid)
		if err := d.Registry.UpdateRecipientCounts(ctx, total); err != nil {
			d.Log.Error("recipient count update failed", zap.Error(err))
		}
		if len(invalid) > 0 {
			d.Audit.Append(ctx, fmt.Sprintf("[WARNING] found %d invalid numbers in the submitted list", len(invalid)), "", "", "")
		}
		d.Audit.Append(ctx, fmt.Sprintf("[SUCCESS] recipient list loaded with %d valid numbers", total), "", "", "")

		if invalid == nil {
			invalid = []string{}
		}
		return c.JSON(http.StatusOK, map[string]any{
			"status":          model.ResultSuccess,
			"message":         fmt.Sprintf("numbers loaded, %d valid", total),
			"total_contacts":  total,
			"invalid_numbers": invalid,
		})
	}
}

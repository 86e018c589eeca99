package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tidepool-org/caretrack/auth"
	"github.com/tidepool-org/caretrack/errors"
	"github.com/tidepool-org/caretrack/summary"
)

// RebuildSummary recounts the daily summary of a patient on behalf of the authenticated caller
// (POST /v1/summaries/rebuild)
func (h *Handler) RebuildSummary(ec echo.Context) error {
	ctx := ec.Request().Context()

	request := summary.RebuildRequest{}
	if err := ec.Bind(&request); err != nil {
		return fmt.Errorf("%w: invalid request body", errors.InvalidArgument)
	}

	result, err := h.summaries.Rebuild(ctx, auth.GetSubjectId(ctx), request)
	if err != nil {
		return err
	}

	return ec.JSON(http.StatusOK, result)
}

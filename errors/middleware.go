package errors

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	e := HttpError{}
	if errors.As(err, &e) {
		_ = c.JSON(e.Code, ErrorResponse{Error: ErrorBody{Status: e.Status, Message: err.Error()}})
		return
	}

	he := &echo.HTTPError{}
	if errors.As(err, &he) && he.Code != http.StatusInternalServerError {
		c.Echo().DefaultHTTPErrorHandler(err, c)
		return
	}

	_ = c.JSON(http.StatusInternalServerError, ErrorResponse{Error: ErrorBody{Status: Internal.Status, Message: Internal.Error()}})
}

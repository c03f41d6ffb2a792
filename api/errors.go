package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"flowboard-api/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

func statusFor(code string) int {
	switch code {
	case domain.CodeValidation:
		return http.StatusBadRequest
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// respondErr translates service errors into HTTP responses. Anything
// outside the domain error taxonomy is absorbed into a bare 500.
func respondErr(c echo.Context, err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return c.JSON(statusFor(de.Code), errorResponse{Error: de.Message})
	}
	c.Logger().Error(err)
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

func respondAuthErr(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
}

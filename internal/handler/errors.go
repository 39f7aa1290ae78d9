package handler

import (
	"errors"
	"net/http"

	"sparkshop/internal/usecase"
	"sparkshop/internal/validator"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	var fe *validator.FieldErrors
	if errors.As(err, &fe) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation error", Fields: fe.Fields})
	}
	if errors.Is(err, validator.ErrInvalidInput) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation error"})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// bodyを読んでvalidateタグを検証する
func bindAndValidate(c echo.Context, dest any) error {
	if err := c.Bind(dest); err != nil {
		return usecase.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(dest); err != nil {
		return err
	}
	return nil
}

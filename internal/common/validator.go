package common

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

// GenericEchoValidator validates bound request structs for echo handlers
type GenericEchoValidator struct {
	Validator *validator.Validate
	once      sync.Once
}

func (gv *GenericEchoValidator) Validate(i interface{}) error {
	gv.once.Do(func() {
		if gv.Validator == nil {
			gv.Validator = validator.New()
		}
	})

	err := gv.Validator.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("received invalid request: %v", err))
	}
	problems := make([]string, 0, len(fieldErrors))
	for _, fieldErr := range fieldErrors {
		rule := fieldErr.Tag()
		if fieldErr.Param() != "" {
			rule += "=" + fieldErr.Param()
		}
		problems = append(problems, fmt.Sprintf("%s fails %s", fieldErr.Field(), rule))
	}
	return echo.NewHTTPError(http.StatusBadRequest, "received invalid request: "+strings.Join(problems, "; "))
}

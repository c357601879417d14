package httpapi

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"pbx-api/internal/apperr"
	"pbx-api/internal/cdr"
	"pbx-api/internal/export"
)

var validate = validator.New()

type callsQuery struct {
	Period string `validate:"omitempty,oneof=today week month year"`
	Page   int    `validate:"min=1"`
	Size   int    `validate:"min=1,max=1000"`
}

type exportQuery struct {
	Period string `validate:"omitempty,oneof=today week month year"`
	Format string `validate:"omitempty,oneof=csv xlsx"`
}

type queueBody struct {
	Queue string `json:"queue" validate:"required,max=128"`
}

// intParam reads key from q, falling back to def when it is absent.
func intParam(q url.Values, key string, def int) (int, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", apperr.ErrInvalidInput, key)
	}
	return n, nil
}

func parseCallsQuery(q url.Values) (cdr.Period, int, int, error) {
	page, err := intParam(q, "page", 1)
	if err != nil {
		return "", 0, 0, err
	}
	size, err := intParam(q, "size", cdr.DefaultPageSize)
	if err != nil {
		return "", 0, 0, err
	}

	cq := callsQuery{Period: q.Get("period"), Page: page, Size: size}
	if err := validateStruct(cq); err != nil {
		return "", 0, 0, err
	}

	period, err := cdr.ParsePeriod(cq.Period)
	if err != nil {
		return "", 0, 0, err
	}
	return period, cq.Page, cq.Size, nil
}

func parseExportQuery(q url.Values) (cdr.Period, export.Format, error) {
	eq := exportQuery{Period: q.Get("period"), Format: q.Get("format")}
	if err := validateStruct(eq); err != nil {
		return "", "", err
	}
	period, err := cdr.ParsePeriod(eq.Period)
	if err != nil {
		return "", "", err
	}
	format, err := export.ParseFormat(eq.Format)
	if err != nil {
		return "", "", err
	}
	return period, format, nil
}

func parsePeriodQuery(q url.Values) (cdr.Period, error) {
	return cdr.ParsePeriod(q.Get("period"))
}

// validateStruct runs the validator and folds its field errors into one
// ErrInvalidInput message.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", apperr.ErrInvalidInput, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/erp/fincore/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var setupValidator sync.Once

// SetupValidator makes gin's validator report JSON (or form) field names
// and compare decimal amounts by value. Repeated calls are no-ops.
func SetupValidator() {
	setupValidator.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
				switch name {
				case "-":
					return ""
				case "":
					continue
				}
				return name
			}
			return ""
		})
		v.RegisterCustomTypeFunc(func(field reflect.Value) any {
			var d decimal.NullDecimal
			switch val := field.Interface().(type) {
			case decimal.Decimal:
				d = decimal.NullDecimal{Decimal: val, Valid: true}
			case decimal.NullDecimal:
				d = val
			}
			if !d.Valid {
				return nil
			}
			f, _ := d.Decimal.Float64()
			return f
		}, decimal.Decimal{}, decimal.NullDecimal{})
	})
}

// AbortWithBindError answers a failed bind with 400. Validation failures
// list every rejected field; anything else is malformed input.
func AbortWithBindError(c *gin.Context, err error) {
	requestID := GetRequestID(c)
	var failures validator.ValidationErrors
	if !errors.As(err, &failures) {
		c.AbortWithStatusJSON(http.StatusBadRequest,
			dto.NewErrorResponseWithRequestID(dto.ErrCodeInvalidInput, "Malformed request: "+err.Error(), requestID))
		return
	}

	details := make([]dto.ValidationDetail, len(failures))
	for i, fe := range failures {
		details[i] = dto.ValidationDetail{Field: fieldPath(fe), Message: failureMessage(fe)}
	}
	c.AbortWithStatusJSON(http.StatusBadRequest,
		dto.NewValidationErrorResponse("Request validation failed", requestID, details))
}

// fieldPath drops the struct name so nested items read as items[0].quantity.
func fieldPath(fe validator.FieldError) string {
	if _, path, ok := strings.Cut(fe.Namespace(), "."); ok {
		return path
	}
	return fe.Field()
}

var failureMessages = map[string]string{
	"required": "This field is required",
	"email":    "Invalid email format",
	"uuid":     "Invalid UUID format",
	"len":      "Must be exactly %s characters",
	"oneof":    "Must be one of: %s",
	"min":      "Must be at least %s",
	"max":      "Must be at most %s",
	"gt":       "Must be greater than %s",
	"gte":      "Must be greater than or equal to %s",
	"lt":       "Must be less than %s",
	"lte":      "Must be less than or equal to %s",
	"datetime": "Must be a date in the format %s",
}

func failureMessage(fe validator.FieldError) string {
	tag := fe.Tag()
	switch {
	case tag == "min" && fe.Kind() == reflect.Slice:
		return fmt.Sprintf("Must contain at least %s item(s)", fe.Param())
	case (tag == "min" || tag == "max") && fe.Kind() == reflect.String:
		return fmt.Sprintf(failureMessages[tag]+" characters", fe.Param())
	}
	msg, ok := failureMessages[tag]
	if !ok {
		return "Invalid value"
	}
	if strings.Contains(msg, "%s") {
		return fmt.Sprintf(msg, fe.Param())
	}
	return msg
}

package validators

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	nonstandard "github.com/go-playground/validator/v10/non-standard/validators"
)

// New returns a validator with the custom rules used by request shapes
// registered, and with field names reported by their json tag.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails on empty tags or nil funcs.
	_ = v.RegisterValidation("lnglat", validateLngLat)
	_ = v.RegisterValidation("notblank", nonstandard.NotBlank)
	return v
}

// validateLngLat checks a GeoJSON [longitude, latitude] pair.
func validateLngLat(fl validator.FieldLevel) bool {
	coords, ok := fl.Field().Interface().([]float64)
	if !ok || len(coords) != 2 {
		return false
	}
	lng, lat := coords[0], coords[1]
	return lng >= -180 && lng <= 180 && lat >= -90 && lat <= 90
}

// EchoValidator adapts a validator to echo.Validator.
type EchoValidator struct {
	validate *validator.Validate
}

// NewValidator returns an echo.Validator backed by New().
func NewValidator() *EchoValidator {
	return &EchoValidator{validate: New()}
}

// NewEchoValidator wraps an existing validator so Echo and the services share rules.
func NewEchoValidator(v *validator.Validate) *EchoValidator {
	return &EchoValidator{validate: v}
}

func (cv *EchoValidator) Validate(i interface{}) error {
	return cv.validate.Struct(i)
}

// Describe turns validation errors into a short message fit for clients.
func Describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeField(fe))
	}
	return strings.Join(msgs, "; ")
}

func describeField(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), structName(fe)+".")
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "notblank":
		return field + " must not be blank"
	case "lnglat":
		return field + " must be [longitude, latitude] within [-180,180] and [-90,90]"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "eq":
		return fmt.Sprintf("%s must be %q", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "url":
		return field + " must be a valid URL"
	default:
		return fmt.Sprintf("%s failed %q", field, fe.Tag())
	}
}

func structName(fe validator.FieldError) string {
	return strings.SplitN(fe.Namespace(), ".", 2)[0]
}

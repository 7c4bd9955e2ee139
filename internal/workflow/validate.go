package workflow

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/blacklisthub/blacklisthub-backend/internal/apperrors"
	"github.com/blacklisthub/blacklisthub-backend/internal/models"
	"github.com/go-playground/validator/v10"
)

var reasonCodePattern = regexp.MustCompile(`^[a-z0-9_]+\.[a-z0-9_]+$`)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		mustRegister(v, "entity_type", func(fl validator.FieldLevel) bool {
			return models.EntityType(fl.Field().String()).Valid()
		})
		mustRegister(v, "risk_level", func(fl validator.FieldLevel) bool {
			return models.RiskLevel(fl.Field().String()).Valid()
		})
		mustRegister(v, "status", func(fl validator.FieldLevel) bool {
			return models.Status(fl.Field().String()).Valid()
		})
		mustRegister(v, "visibility", func(fl validator.FieldLevel) bool {
			return models.Visibility(fl.Field().String()).Valid()
		})
		mustRegister(v, "reason_code", func(fl validator.FieldLevel) bool {
			return reasonCodePattern.MatchString(fl.Field().String())
		})
		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %s: %v", tag, err))
	}
}

// Validate checks s against its validate tags and reports the first failures as a validation error
func Validate(s any) error {
	err := validatorInstance().Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.Validation("invalid request: %v", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return apperrors.Validation("%s", strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "entity_type", "risk_level", "status", "visibility":
		return fmt.Sprintf("%s has invalid value %v", field, fe.Value())
	case "reason_code":
		return fmt.Sprintf("%s must look like category.subtype, got %v", field, fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

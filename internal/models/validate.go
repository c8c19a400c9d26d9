package models

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go-fleetdata/internal/fleeterr"
	"go-fleetdata/internal/pss"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator with the model specific tags
// registered.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("rank", func(fl validator.FieldLevel) bool {
			r, ok := fl.Field().Interface().(pss.Rank)
			return ok && r.Valid()
		})
		_ = validate.RegisterValidation("notbeforeepoch", func(fl validator.FieldLevel) bool {
			switch v := fl.Field().Interface().(type) {
			case time.Time:
				return pss.CheckNotBeforeEpoch(v) == nil
			case *time.Time:
				return v == nil || pss.CheckNotBeforeEpoch(*v) == nil
			}
			return false
		})
	})
	return validate
}

// Validate checks every bound of c and its children. Failures are reported
// as schema validation errors naming the offending field.
func (c *Collection) Validate() error {
	if err := pss.CheckNotBeforeEpoch(c.CollectedAt); err != nil {
		return fleeterr.SchemaValidation("meta.timestamp: %v", err)
	}

	err := Validator().Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fleeterr.SchemaValidation("%v", err)
	}

	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, describe(fe))
	}
	return fleeterr.SchemaValidation("%s", strings.Join(problems, "; "))
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Collection.")
	switch fe.Tag() {
	case "rank":
		return fmt.Sprintf("%s: %q is not a valid alliance membership", field, fe.Value())
	case "notbeforeepoch":
		return fmt.Sprintf("%s: must not be earlier than %s", field, pss.Epoch.Format(time.RFC3339))
	case "required":
		return fmt.Sprintf("%s: is required", field)
	}
	if fe.Param() != "" {
		return fmt.Sprintf("%s: failed %s=%s (got %v)", field, fe.Tag(), fe.Param(), fe.Value())
	}
	return fmt.Sprintf("%s: failed %s (got %v)", field, fe.Tag(), fe.Value())
}

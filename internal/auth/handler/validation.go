package handler

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var (
	loginPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,10}$`)
	emailPattern = regexp.MustCompile(`^[\w.-]+@([\w-]+\.)+[\w-]{2,4}$`)
)

// Validator checks request bodies and reports failures by JSON field name.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "login", func(fl validator.FieldLevel) bool {
		return loginPattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "login_or_email", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return loginPattern.MatchString(s) || emailPattern.MatchString(s)
	})

	return &Validator{validate: v}
}

// mustRegister panics on a bad tag so a broken rule fails at startup instead
// of silently accepting every value.
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %q: %v", tag, err))
	}
}

// Struct returns one FieldError per invalid field, or nil.
func (v *Validator) Struct(s interface{}) []FieldError {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldError{{Message: err.Error(), Field: ""}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Message: describe(fe), Field: fe.Field()})
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email", fe.Field())
	case "login":
		return fmt.Sprintf("%s must be 3-10 letters, digits, '_' or '-'", fe.Field())
	case "login_or_email":
		return fmt.Sprintf("%s must be a login or an email", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// bind parses the JSON body into dst and validates it. It writes the 400
// response itself and reports whether the handler may continue.
func (v *Validator) bind(c *fiber.Ctx, dst interface{}) (bool, error) {
	if err := c.BodyParser(dst); err != nil {
		return false, badRequest(c, FieldError{Message: "invalid input", Field: ""})
	}
	if errs := v.Struct(dst); len(errs) > 0 {
		return false, badRequest(c, errs...)
	}
	return true, nil
}

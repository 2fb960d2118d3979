package validation

import (
	"fmt"
	"net/url"

	"github.com/go-playground/validator/v10"
	"github.com/ulule/limiter/v3"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	if err := Validate.RegisterValidation("rate", validateRate); err != nil {
		panic(fmt.Sprintf("failed to register rate validator: %v", err))
	}
	if err := Validate.RegisterValidation("mongo_uri", validateMongoURI); err != nil {
		panic(fmt.Sprintf("failed to register mongo_uri validator: %v", err))
	}
}

// validateRate accepts limiter formatted rates such as "5-S" or "100-M".
func validateRate(fl validator.FieldLevel) bool {
	_, err := limiter.NewRateFromFormatted(fl.Field().String())
	return err == nil
}

// validateMongoURI accepts mongodb:// and mongodb+srv:// connection strings.
func validateMongoURI(fl validator.FieldLevel) bool {
	return ValidateMongoURI(fl.Field().String()) == nil
}

// ValidateMongoURI checks the scheme and host of a connection string.
func ValidateMongoURI(value string) error {
	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid connection string")
	}
	if u.Scheme != "mongodb" && u.Scheme != "mongodb+srv" {
		return fmt.Errorf("invalid scheme %q: must be mongodb or mongodb+srv", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("connection string has no host")
	}
	return nil
}

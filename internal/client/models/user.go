// Package models defines client-side data models used by the storefront client.
package models

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// User is the identity of the authenticated account as returned by the API.
type User struct {
	ID          string `json:"_id"`
	Email       string `json:"email"`
	DisplayName string `json:"username"`
}

// Credentials is the payload of the register and login endpoints.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Session is the login response: the user and the token issued for them.
type Session struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

var credentialsValidator = newCredentialsValidator()

func newCredentialsValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var credentialMessages = map[string]string{
	"email.required":    "Email is required",
	"email.email":       "Email is invalid",
	"password.required": "Password is required",
	"password.min":      "Password must be at least 6 characters",
}

// ValidateCredentials checks the credentials before they are sent to the server.
// The password is checked after trimming surrounding spaces for presence only.
// An empty map means the credentials are acceptable.
func ValidateCredentials(c Credentials) map[string]string {
	errs := make(map[string]string)

	if strings.TrimSpace(c.Password) == "" {
		c.Password = ""
	}

	err := credentialsValidator.Struct(c)
	if err == nil {
		return errs
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs["form"] = err.Error()
		return errs
	}

	for _, fe := range verrs {
		if _, seen := errs[fe.Field()]; seen {
			continue
		}
		msg, ok := credentialMessages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = fe.Error()
		}
		errs[fe.Field()] = msg
	}
	return errs
}

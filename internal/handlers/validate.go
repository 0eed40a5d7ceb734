package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	maxBodyBytes = 1 << 20

	schemaKey        = "_schema"
	msgInvalidInput  = "Invalid input type."
	msgRequired      = "Missing data for required field."
	msgNull          = "Field may not be null."
	msgUnknown       = "Unknown field."
	msgNotString     = "Not a valid string."
	msgNotInteger    = "Not a valid integer."
	msgRatingRange   = "Must be greater than or equal to 1 and less than or equal to 5."
	msgInvalidValue  = "Invalid value."
	msgLongerThanFmt = "Longer than maximum length %s."
)

type registrationRequest struct {
	FirstName *string `json:"first_name" validate:"required,max=15"`
	LastName  *string `json:"last_name" validate:"required,max=20"`
	Email     *string `json:"email" validate:"required,max=30"`
	Username  *string `json:"username" validate:"required,max=15"`
	Password  *string `json:"password" validate:"required,max=100"`
}

type loginRequest struct {
	Username *string `json:"username" validate:"required"`
	Password *string `json:"password" validate:"required"`
}

type creationRequest struct {
	Name        *string `json:"name" validate:"required,max=30"`
	Ingredients *string `json:"r_ingredients" validate:"required,max=300"`
	Text        *string `json:"text" validate:"required,max=500"`
}

type ratingRequest struct {
	RecipeID *uint `json:"rcp_id" validate:"required"`
	Rating   *int  `json:"rating" validate:"required,rating"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)
	v.RegisterAlias("rating", "gte=1,lte=5")
	return v
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// decode reads a JSON object into dst, a pointer to one of the request
// structs, and validates it. Problems are returned keyed by JSON field name;
// a nil map means dst is ready to use.
func (h *Handler) decode(r *http.Request, dst any) map[string][]string {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return map[string][]string{schemaKey: {msgInvalidInput}}
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return map[string][]string{schemaKey: {msgInvalidInput}}
	}

	problems := make(map[string][]string)
	rv := reflect.ValueOf(dst).Elem()
	rt := rv.Type()
	known := make(map[string]struct{}, rt.NumField())
	for i := range rt.NumField() {
		field := rt.Field(i)
		name := jsonName(field)
		known[name] = struct{}{}

		value, ok := raw[name]
		if !ok {
			continue
		}
		if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			problems[name] = append(problems[name], msgNull)
			continue
		}
		if err := json.Unmarshal(value, rv.Field(i).Addr().Interface()); err != nil {
			problems[name] = append(problems[name], typeMessage(field.Type))
		}
	}
	for name := range raw {
		if _, ok := known[name]; !ok {
			problems[name] = append(problems[name], msgUnknown)
		}
	}

	var verrs validator.ValidationErrors
	if err := h.validate.Struct(dst); errors.As(err, &verrs) {
		for _, fe := range verrs {
			if _, reported := problems[fe.Field()]; reported {
				continue
			}
			problems[fe.Field()] = append(problems[fe.Field()], fieldMessage(fe))
		}
	} else if err != nil {
		problems[schemaKey] = append(problems[schemaKey], msgInvalidInput)
	}

	if len(problems) == 0 {
		return nil
	}
	return problems
}

func typeMessage(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return msgNotString
	case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint64:
		return msgNotInteger
	default:
		return msgInvalidValue
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return msgRequired
	case "rating":
		return msgRatingRange
	case "max":
		return fmt.Sprintf(msgLongerThanFmt, fe.Param())
	default:
		return msgInvalidValue
	}
}

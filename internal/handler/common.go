package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gameforge-studio/internal/middleware"
	"github.com/iliyamo/gameforge-studio/internal/repository"
)

// maxBodyBytes caps request bodies read by bind.
const maxBodyBytes = 1 << 20

// immutableKeys are silently dropped from PATCH bodies.
var immutableKeys = []string{
	"id", "createdAt", "updatedAt", "lastUpdated", "password",
	"ownerId", "createdBy", "userId", "chatId", "username", "editedAt",
}

// Validator adapts validator/v10 to echo.Validator. Field errors are
// reported under their JSON names.
type Validator struct {
	v *validator.Validate
}

// NewValidator builds the request validator.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return &Validator{v: v}
}

func (cv *Validator) Validate(i interface{}) error { return cv.v.Struct(i) }

// FieldError names one invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned by bind. It is rendered as 400 with the
// complete list of field errors.
type ValidationError struct {
	Message string
	Fields  []FieldError
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(fields ...FieldError) *ValidationError {
	return &ValidationError{Message: "Validation failed", Fields: fields}
}

// normalizer is implemented by request types that clean their fields
// (trimming, case folding) before validation.
type normalizer interface {
	normalize()
}

// bind decodes the JSON body into dst, rejecting unknown keys, then runs
// the validator. Keys listed in strip are removed before decoding.
func bind(c echo.Context, dst interface{}, strip ...string) error {
	raw, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodyBytes))
	if err != nil {
		return &ValidationError{Message: "Could not read request body"}
	}
	body := map[string]json.RawMessage{}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil || body == nil {
			return &ValidationError{Message: "Request body must be a JSON object"}
		}
	}
	for _, k := range strip {
		delete(body, k)
	}

	known := jsonFields(reflect.TypeOf(dst))
	var unknown []FieldError
	for k := range body {
		if !known[k] {
			unknown = append(unknown, FieldError{Field: k, Message: "is not allowed"})
		}
	}
	if len(unknown) > 0 {
		sort.Slice(unknown, func(i, j int) bool { return unknown[i].Field < unknown[j].Field })
		return invalid(unknown...)
	}

	if len(body) > 0 {
		cleaned, _ := json.Marshal(body)
		if err := json.Unmarshal(cleaned, dst); err != nil {
			var te *json.UnmarshalTypeError
			if errors.As(err, &te) {
				return invalid(FieldError{Field: te.Field, Message: "must be a " + jsonKind(te.Type)})
			}
			return invalid(FieldError{Field: "body", Message: "is malformed"})
		}
	}

	if n, ok := dst.(normalizer); ok {
		n.normalize()
	}
	if err := c.Validate(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return invalid(fieldErrors(verrs)...)
		}
		return err
	}
	return nil
}

var fieldCache sync.Map // reflect.Type -> map[string]bool

// jsonFields lists the top-level JSON keys a struct accepts.
func jsonFields(t reflect.Type) map[string]bool {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if v, ok := fieldCache.Load(t); ok {
		return v.(map[string]bool)
	}
	out := map[string]bool{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			continue
		case "":
			name = f.Name
		}
		out[name] = true
	}
	fieldCache.Store(t, out)
	return out
}

func jsonKind(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "list"
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Float32, reflect.Float64:
		return "number"
	default:
		return "integer"
	}
}

func fieldErrors(verrs validator.ValidationErrors) []FieldError {
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		out = append(out, FieldError{Field: field, Message: fieldMessage(fe)})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "eqfield":
		return "must match " + lowerFirst(fe.Param())
	case "min":
		if isSized(fe.Kind()) {
			return fmt.Sprintf("must contain at least %s characters or items", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max":
		if isSized(fe.Kind()) {
			return fmt.Sprintf("must contain at most %s characters or items", fe.Param())
		}
		return "must be at most " + fe.Param()
	}
	return "is invalid"
}

func isSized(k reflect.Kind) bool {
	return k == reflect.String || k == reflect.Slice || k == reflect.Map || k == reflect.Array
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// badRequest renders err from bind.
func badRequest(c echo.Context, err error) error {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return internalError(err)
	}
	body := echo.Map{"message": ve.Message}
	if len(ve.Fields) > 0 {
		body["errors"] = ve.Fields
	}
	return c.JSON(http.StatusBadRequest, body)
}

func message(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"message": msg})
}

func notFound(c echo.Context, what string) error {
	return message(c, http.StatusNotFound, what+" not found")
}

func forbidden(c echo.Context) error {
	return message(c, http.StatusForbidden, "Not authorized")
}

func unauthenticated(c echo.Context) error {
	return message(c, http.StatusUnauthorized, "Not authenticated")
}

// internalError hides err from the client; the request logger records it.
func internalError(err error) error {
	return &echo.HTTPError{
		Code:     http.StatusInternalServerError,
		Message:  echo.Map{"message": "Internal server error"},
		Internal: err,
	}
}

// storageError maps repository errors to responses.
func storageError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrConflict):
		return message(c, http.StatusConflict, "Resource already exists")
	case errors.Is(err, repository.ErrForbidden):
		return forbidden(c)
	case errors.Is(err, repository.ErrInvalidCartItem):
		return badRequest(c, invalid(FieldError{Field: "assetId", Message: "exactly one of assetId or bundleId is required"}))
	}
	return internalError(err)
}

// getUserID returns the session user or "" when anonymous.
func getUserID(c echo.Context) string { return middleware.UserID(c) }

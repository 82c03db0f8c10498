// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package validation

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// CodeValidation is the API error code for every validation failure.
const CodeValidation = "VALIDATION_ERROR"

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is one failed rule on one field.
type FieldError struct {
	Field   string
	Tag     string
	Param   string
	Value   interface{}
	Message string
}

// RequestValidationError collects the field errors of one request.
type RequestValidationError struct {
	Fields []FieldError
}

func (ve *RequestValidationError) Error() string {
	if len(ve.Fields) == 0 {
		return "validation failed"
	}
	return strings.Join(ve.messages(), "; ")
}

func (ve *RequestValidationError) messages() []string {
	out := make([]string, len(ve.Fields))
	for i := range ve.Fields {
		out[i] = ve.Fields[i].Message
	}
	return out
}

// APIError is the shape the API layer renders for a validation failure.
type APIError struct {
	Code    string
	Message string
	Details map[string]interface{}
}

// ToAPIError flattens the field errors. A single error reports its field,
// tag and value directly; several are listed under "fields".
func (ve *RequestValidationError) ToAPIError() *APIError {
	apiErr := &APIError{Code: CodeValidation, Message: "Validation failed"}

	switch len(ve.Fields) {
	case 0:
	case 1:
		fe := ve.Fields[0]
		apiErr.Message = fe.Message
		apiErr.Details = map[string]interface{}{"field": fe.Field, "tag": fe.Tag, "value": fe.Value}
	default:
		fields := make([]map[string]interface{}, 0, len(ve.Fields))
		for _, fe := range ve.Fields {
			fields = append(fields, map[string]interface{}{"field": fe.Field, "tag": fe.Tag, "message": fe.Message})
		}
		apiErr.Message = ve.Error()
		apiErr.Details = map[string]interface{}{"fields": fields}
	}
	return apiErr
}

// GetValidator returns the shared validator. Errors name fields by their
// json tag so messages match request bodies.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(jsonFieldName)
		// Registration only fails for an empty tag or nil func.
		_ = v.RegisterValidation("feedsource", isFeedSource)
		_ = v.RegisterValidation("dedupkey", isDedupKey)
		validate = v
	})
	return validate
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return fld.Name
	}
	return name
}

// isFeedSource accepts a filesystem path or a file, http or https URL.
func isFeedSource(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	// No scheme, or a one-letter drive prefix: treat as a path.
	if err != nil || len(u.Scheme) <= 1 {
		return !strings.ContainsRune(s, 0)
	}
	switch strings.ToLower(u.Scheme) {
	case "file":
		return u.Path != ""
	case "http", "https":
		return u.Host != ""
	}
	return false
}

// isDedupKey accepts "<train uid>_<YYYY-MM-DD>".
func isDedupKey(fl validator.FieldLevel) bool {
	uid, date, ok := cutLast(fl.Field().String(), '_')
	if !ok || uid == "" || len(date) != len("2006-01-02") {
		return false
	}
	for i := 0; i < len(date); i++ {
		c := date[i]
		switch i {
		case 4, 7:
			if c != '-' {
				return false
			}
		default:
			if c < '0' || c > '9' {
				return false
			}
		}
	}
	return true
}

func cutLast(s string, sep byte) (before, after string, found bool) {
	if i := strings.LastIndexByte(s, sep); i >= 0 {
		return s[:i], s[i+1:], true
	}
	return s, "", false
}

// ValidateStruct runs the struct's validate tags. It returns nil when s is
// valid.
func ValidateStruct(s interface{}) *RequestValidationError {
	return collect(GetValidator().Struct(s), "")
}

// ValidateVar checks a single value against tag and reports it as name.
func ValidateVar(name string, value interface{}, tag string) *RequestValidationError {
	verr := collect(GetValidator().Var(value, tag), name)
	if verr != nil && len(verr.Fields) == 1 && verr.Fields[0].Tag == "" {
		verr.Fields[0].Tag = tag
		verr.Fields[0].Value = value
	}
	return verr
}

// collect converts a validator error. A non-empty name replaces the field
// name, which Var errors leave blank.
func collect(err error, name string) *RequestValidationError {
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		field := name
		if field == "" {
			field = "unknown"
		}
		return &RequestValidationError{Fields: []FieldError{{Field: field, Message: err.Error()}}}
	}

	out := &RequestValidationError{Fields: make([]FieldError, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		field := fe.Field()
		if name != "" {
			field = name
		}
		out.Fields = append(out.Fields, FieldError{
			Field:   field,
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Value:   fe.Value(),
			Message: describe(field, fe),
		})
	}
	return out
}

// messages keyed by tag; %[1]s is the field, %[2]s the tag parameter.
var messages = map[string]string{
	"required":   "%[1]s is required",
	"feedsource": "%[1]s must be a file path or a file, http or https URL",
	"dedupkey":   "%[1]s must look like <train uid>_<YYYY-MM-DD>",
	"uuid":       "%[1]s must be a valid UUID",
	"url":        "%[1]s must be a valid URL",
	"oneof":      "%[1]s must be one of: %[2]s",
	"gte":        "%[1]s must be greater than or equal to %[2]s",
	"lte":        "%[1]s must be less than or equal to %[2]s",
	"gt":         "%[1]s must be greater than %[2]s",
	"lt":         "%[1]s must be less than %[2]s",
	"min":        "%[1]s must be at least %[2]s",
	"max":        "%[1]s must be at most %[2]s",
}

func describe(field string, fe validator.FieldError) string {
	tmpl, ok := messages[fe.Tag()]
	if !ok {
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
	msg := fmt.Sprintf(tmpl, field, fe.Param())
	if (fe.Tag() == "min" || fe.Tag() == "max") && fe.Kind() == reflect.String {
		msg += " characters"
	}
	return msg
}

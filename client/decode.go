package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var validate *validator.Validate
var translator ut.Translator

func init() {
	validate = validator.New()
	var ok bool
	translator, ok = ut.New(en.New(), en.New()).GetTranslator("en")
	if !ok {
		panic("client: failed to get 'en' translator")
	}

	if err := en_translations.RegisterDefaultTranslations(validate, translator); err != nil {
		panic(err)
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})
}

// DecodeOption is a functional option for [Response.JSON].
type DecodeOption func(*decodeOpts) error

type decodeOpts struct {
	useJSONNum     bool
	disallowFields bool
	validate       bool
}

// WithJSONNumber tells the JSON decoder to use [json.Decoder.UseNumber],
// preserving number precision as [json.Number] instead of float64.
func WithJSONNumber() DecodeOption {
	return func(opts *decodeOpts) error {
		opts.useJSONNum = true
		return nil
	}
}

// WithDisallowUnknownFields rejects objects with keys that do not map to
// a destination field.
func WithDisallowUnknownFields() DecodeOption {
	return func(opts *decodeOpts) error {
		opts.disallowFields = true
		return nil
	}
}

// WithValidation checks the decoded struct against its `validate` tags.
// Failures are returned as [FieldErrors] wrapped in [ErrDecode].
func WithValidation() DecodeOption {
	return func(opts *decodeOpts) error {
		opts.validate = true
		return nil
	}
}

func decodeJSON(r io.Reader, v any, opts decodeOpts) error {
	d := json.NewDecoder(r)
	if opts.useJSONNum {
		d.UseNumber()
	}
	if opts.disallowFields {
		d.DisallowUnknownFields()
	}

	if err := d.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}

	// The body must hold exactly one value.
	if _, err := d.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: unexpected data after JSON value", ErrDecode)
	}

	if opts.validate {
		if err := Validate(v); err != nil {
			return fmt.Errorf("%w: %w", ErrDecode, err)
		}
	}

	return nil
}

// Validate checks val against its declared tags. Non-struct values pass.
func Validate(val any) error {
	rv := reflect.ValueOf(val)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	if err := validate.Struct(rv.Interface()); err != nil {
		var verrors validator.ValidationErrors
		if !errors.As(err, &verrors) {
			return err
		}

		fields := make(FieldErrors, 0, len(verrors))
		for _, verror := range verrors {
			fields = append(fields, FieldError{
				Field: verror.Field(),
				Err:   customErrForTag(verror.Tag(), verror),
			})
		}
		return fields
	}

	return nil
}

// FieldError represents a single validation error for a specific field.
type FieldError struct {
	Field string `json:"field"`
	Err   string `json:"error"`
}

// FieldErrors represents a collection of field errors.
type FieldErrors []FieldError

// Error implements the error interface, returning a human-readable
// summary of all field errors.
func (fe FieldErrors) Error() string {
	parts := make([]string, len(fe))
	for i, f := range fe {
		parts[i] = f.Field + ": " + f.Err
	}
	return strings.Join(parts, "; ")
}

// Fields returns the failing fields keyed by name.
func (fe FieldErrors) Fields() map[string]string {
	m := make(map[string]string, len(fe))
	for _, fld := range fe {
		m[fld.Field] = fld.Err
	}
	return m
}

func customErrForTag(tag string, verror validator.FieldError) string {
	switch tag {
	case "required":
		return "This field is required"
	default:
		return verror.Translate(translator)
	}
}

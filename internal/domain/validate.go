package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		// Report json names so messages match the wire format.
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// ValidateStruct runs the struct tags of v and converts failures into a *ValidationError.
func ValidateStruct(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ValidationError{Problems: []string{err.Error()}}
	}

	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, describe(fe))
	}
	return &ValidationError{Problems: problems}
}

func describe(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", ns)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", ns, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", ns, fe.Tag())
	}
}

// Validate checks a document before it reaches a store.
func (d Document) Validate() error {
	if err := ValidateStruct(d); err != nil {
		return err
	}

	var problems []string

	seenCats := make(map[string]bool, len(d.Categories))
	for _, c := range d.Categories {
		if seenCats[c.ID] {
			problems = append(problems, fmt.Sprintf("duplicate category id %q", c.ID))
		}
		seenCats[c.ID] = true
	}

	seenLinks := make(map[string]bool, len(d.Links))
	for _, l := range d.Links {
		if seenLinks[l.ID] {
			problems = append(problems, fmt.Sprintf("duplicate link id %q", l.ID))
		}
		seenLinks[l.ID] = true
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// Package validation holds the field rules shared by request models.
// Each request builds a Form and applies rules explicitly per field.
package validation

import (
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"unicode/utf8"
)

// FieldErrors maps a field name to its validation messages.
type FieldErrors map[string][]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.Join(e[f], ", ")))
	}
	return strings.Join(parts, "; ")
}

// Rule checks one value and returns a message, or "" when the value is acceptable.
type Rule func(value string) string

// Form collects field errors for one request.
type Form struct {
	errs FieldErrors
}

// NewForm returns an empty form.
func NewForm() *Form {
	return &Form{errs: FieldErrors{}}
}

// Field applies rules in order and stops at the first failure for that field.
func (f *Form) Field(name, value string, rules ...Rule) *Form {
	for _, rule := range rules {
		if msg := rule(value); msg != "" {
			f.Add(name, msg)
			break
		}
	}
	return f
}

// Check records msg against name when ok is false.
func (f *Form) Check(ok bool, name, msg string) *Form {
	if !ok {
		f.Add(name, msg)
	}
	return f
}

// Add records a message for a field.
func (f *Form) Add(name, msg string) {
	f.errs[name] = append(f.errs[name], msg)
}

// Valid reports whether no rule failed.
func (f *Form) Valid() bool {
	return len(f.errs) == 0
}

// Err returns the collected FieldErrors, or nil.
func (f *Form) Err() error {
	if f.Valid() {
		return nil
	}
	return f.errs
}

// Required rejects blank values.
func Required() Rule {
	return func(value string) string {
		if strings.TrimSpace(value) == "" {
			return "this field is required"
		}
		return ""
	}
}

// MaxLen limits the value to n characters.
func MaxLen(n int) Rule {
	return func(value string) string {
		if utf8.RuneCountInString(value) > n {
			return fmt.Sprintf("must be at most %d characters", n)
		}
		return ""
	}
}

// MinLen requires at least n characters.
func MinLen(n int) Rule {
	return func(value string) string {
		if utf8.RuneCountInString(value) < n {
			return fmt.Sprintf("must be at least %d characters", n)
		}
		return ""
	}
}

// Email accepts a bare address such as user@example.com.
func Email() Rule {
	return func(value string) string {
		addr, err := mail.ParseAddress(value)
		if err != nil || addr.Address != value || !strings.Contains(addr.Address[strings.LastIndex(addr.Address, "@")+1:], ".") {
			return "enter a valid email address"
		}
		return ""
	}
}

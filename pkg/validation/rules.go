package validation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CodeInvalid is used for failures that carry no validator tag
const CodeInvalid = "invalid"

var defaultTagMessages = map[string]string{
	"required": "is required",
	"email":    "must be a valid email",
	"url":      "must be a valid URL",
	"numeric":  "must be numeric",
	"alpha":    "must contain only letters",
	"alphanum": "must contain only letters and numbers",
	"uuid":     "must be a valid UUID",
	"min":      "must be at least %s",
	"max":      "must be at most %s",
	"len":      "must have length %s",
	"gte":      "must be greater than or equal to %s",
	"lte":      "must be less than or equal to %s",
	"gt":       "must be greater than %s",
	"lt":       "must be less than %s",
	"oneof":    "must be one of [%s]",
}

// RulesSchema validates records against go-playground/validator tag rules.
// Rules mirror the record: a string value holds tags, a nested map holds
// the rules of a nested object.
type RulesSchema struct {
	validate *validator.Validate
	rules    map[string]any
	messages map[string]string
}

// RulesOption configures a RulesSchema
type RulesOption func(*RulesSchema)

// WithValidator uses v instead of a fresh validator
func WithValidator(v *validator.Validate) RulesOption {
	return func(s *RulesSchema) {
		s.validate = v
	}
}

// WithTagMessage sets the message for a tag. A %s verb receives the tag param.
func WithTagMessage(tag, message string) RulesOption {
	return func(s *RulesSchema) {
		s.messages[tag] = message
	}
}

// Rules builds a schema from validator tag rules
func Rules(rules map[string]any, opts ...RulesOption) *RulesSchema {
	s := &RulesSchema{
		rules:    rules,
		messages: make(map[string]string, len(defaultTagMessages)),
	}
	for tag, msg := range defaultTagMessages {
		s.messages[tag] = msg
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.validate == nil {
		s.validate = validator.New()
	}
	return s
}

// SafeParse validates data and reports issues ordered by path
func (s *RulesSchema) SafeParse(ctx context.Context, data map[string]any) []Issue {
	if data == nil {
		data = map[string]any{}
	}
	var issues []Issue
	s.collect(nil, s.validate.ValidateMapCtx(ctx, data, s.rules), &issues)
	return issues
}

func (s *RulesSchema) collect(prefix []string, errs map[string]any, issues *[]Issue) {
	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		path := append(append([]string(nil), prefix...), field)

		switch e := errs[field].(type) {
		case map[string]any:
			s.collect(path, e, issues)
		case error:
			var verrs validator.ValidationErrors
			if errors.As(e, &verrs) {
				for _, fe := range verrs {
					*issues = append(*issues, Issue{Path: path, Code: fe.Tag(), Message: s.message(fe)})
				}
				continue
			}
			if strings.Contains(e.Error(), "is not a map to dive") {
				*issues = append(*issues, Issue{Path: path, Code: CodeExpectedObject, Message: "expected object"})
				continue
			}
			*issues = append(*issues, Issue{Path: path, Code: CodeInvalid, Message: e.Error()})
		}
	}
}

func (s *RulesSchema) message(fe validator.FieldError) string {
	msg, ok := s.messages[fe.Tag()]
	if !ok {
		return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
	}
	if strings.Contains(msg, "%s") {
		return fmt.Sprintf(msg, fe.Param())
	}
	return msg
}

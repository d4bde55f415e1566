package schema

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"onduty-admin/internal/model"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	requiredTag  = "required"
	requiredText = "{0} is required"

	minTag  = "min"
	minText = "{0} must be at least {1}"
)

// Validator applies the declaration table of each entity kind. It is safe for
// concurrent use once built.
type Validator struct {
	validate       *validator.Validate
	translator     ut.Translator
	schemas        map[model.EntityKind]Schema
	now            func() time.Time
	minBatchYear   int
	batchLookahead int
}

type Option func(*Validator)

// WithClock sets the clock used for the batch-year ceiling.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) { v.now = now }
}

// WithBatchRange sets the accepted batch years to [minYear, now+lookahead].
func WithBatchRange(minYear, lookahead int) Option {
	return func(v *Validator) {
		v.minBatchYear = minYear
		v.batchLookahead = lookahead
	}
}

func NewValidator(opts ...Option) *Validator {
	v := &Validator{
		validate:       validator.New(),
		now:            time.Now,
		minBatchYear:   2000,
		batchLookahead: 6,
	}
	for _, opt := range opts {
		opt(v)
	}

	_en := en.New()
	uni := ut.New(_en, _en)
	v.translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v.validate, v.translator)

	// Use JSON tag names for errors instead of Go struct names.
	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.registerTranslation(requiredTag, requiredText)
	v.registerTranslation(minTag, minText)

	v.schemas = v.buildSchemas()
	return v
}

func (v *Validator) registerTranslation(tag, text string) {
	_ = v.validate.RegisterTranslation(
		tag, v.translator,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field(), fe.Param())
			return s
		},
	)
}

// Schema returns the declaration table of kind.
func (v *Validator) Schema(kind model.EntityKind) (Schema, bool) {
	s, ok := v.schemas[kind]
	return s, ok
}

// Validate checks record against its kind's schema and collects every
// violated rule. It never panics on malformed values.
func (v *Validator) Validate(record model.CandidateRecord) model.ValidationOutcome {
	outcome := model.ValidationOutcome{
		RowIndex: record.RowIndex,
		Record:   record,
	}

	schema, ok := v.schemas[record.Kind]
	if !ok {
		outcome.Reasons = []model.Reason{{
			Field:   "kind",
			Message: fmt.Sprintf("unknown entity kind %q", record.Kind),
		}}
		return outcome
	}

	failed := make(map[string]bool)
	for _, rule := range schema.Fields {
		if reason, bad := v.checkField(rule, record.Fields[rule.Field]); bad {
			outcome.Reasons = append(outcome.Reasons, reason)
			failed[rule.Field] = true
		}
	}

	for _, cross := range schema.Cross {
		skip := false
		for _, f := range cross.Fields {
			if failed[f] {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		if msg := cross.Check(record); msg != "" {
			outcome.Reasons = append(outcome.Reasons, model.Reason{Field: cross.Report, Message: msg})
		}
	}

	return outcome
}

func (v *Validator) checkField(rule FieldRule, value any) (model.Reason, bool) {
	if isEmpty(value) {
		if rule.Required != "" {
			return model.Reason{Field: rule.Field, Message: rule.Required}, true
		}
		return model.Reason{}, false
	}

	switch rule.Type {
	case NumberValue:
		if _, ok := value.(int); !ok {
			return model.Reason{Field: rule.Field, Message: "expected number", Value: value}, true
		}
	case StringValue:
		if _, ok := value.(string); !ok {
			return model.Reason{Field: rule.Field, Message: "expected string", Value: value}, true
		}
	}

	for _, check := range rule.Checks {
		if msg := check(value); msg != "" {
			return model.Reason{Field: rule.Field, Message: msg, Value: value}, true
		}
	}
	return model.Reason{}, false
}

func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	s, ok := value.(string)
	return ok && strings.TrimSpace(s) == ""
}

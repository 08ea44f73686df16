// Package schema validates the properties.json document found at the root of
// every campaign archive and builds the corresponding ArchiveMeta.
//
// Validation is declarative: ArchiveMetaFields lists one descriptor per field
// and Validate evaluates every descriptor against the decoded document,
// collecting all failures. Nothing is logged here; callers decide what to do
// with a ValidationErrors value.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/neilberkman/dmclient/internal/core/models"
)

// Reason classifies a field failure
type Reason string

const (
	ReasonMissing   Reason = "missing"
	ReasonWrongType Reason = "wrong_type"
	ReasonMalformed Reason = "malformed"
)

// ErrNotUTF8 is returned when properties.json is not valid UTF-8 text
var ErrNotUTF8 = errors.New("properties are not valid UTF-8")

// errWrongType is returned by parsers when the JSON value has the wrong type
var errWrongType = errors.New("wrong type")

// FieldError describes why a single field failed validation
type FieldError struct {
	Field  string
	Reason Reason
	Detail string
}

func (e FieldError) Error() string {
	field := e.Field
	if field == "" {
		field = "(document)"
	}
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", field, e.Reason)
	}
	return fmt.Sprintf("%s: %s (%s)", field, e.Reason, e.Detail)
}

// ValidationErrors is the non-empty set of field failures for one document
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, fe := range v {
		parts[i] = fe.Error()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields returns the names of the fields that failed
func (v ValidationErrors) Fields() []string {
	names := make([]string, len(v))
	for i, fe := range v {
		names[i] = fe.Field
	}
	return names
}

// SyntaxError wraps a JSON decoding failure
type SyntaxError struct {
	Err error
}

func (e *SyntaxError) Error() string { return "malformed JSON: " + e.Err.Error() }
func (e *SyntaxError) Unwrap() error { return e.Err }

// Field is a declarative rule for one properties.json key
type Field struct {
	Name     string
	Required bool
	// Parse converts the decoded JSON value. Returning an error wrapping
	// errWrongType reports ReasonWrongType, anything else ReasonMalformed.
	Parse   func(raw any) (any, error)
	Default any
	Apply   func(m *models.ArchiveMeta, v any)
}

// ArchiveMetaFields is the field contract of properties.json
var ArchiveMetaFields = []Field{
	{
		Name:     "id",
		Required: true,
		Parse:    parseUUID,
		Apply:    func(m *models.ArchiveMeta, v any) { m.ID = v.(uuid.UUID) },
	},
	{
		Name:     "game_system_id",
		Required: true,
		Parse:    parseNonEmptyString,
		Apply:    func(m *models.ArchiveMeta, v any) { m.GameSystemID = v.(string) },
	},
	stringField("name", func(m *models.ArchiveMeta, s string) { m.Name = s }),
	stringField("description", func(m *models.ArchiveMeta, s string) { m.Description = s }),
	stringField("author", func(m *models.ArchiveMeta, s string) { m.Author = s }),
	dateField("creation_date", func(m *models.ArchiveMeta, t *time.Time) { m.CreationDate = t }),
	dateField("revision_date", func(m *models.ArchiveMeta, t *time.Time) { m.RevisionDate = t }),
	stringField("isbn", func(m *models.ArchiveMeta, s string) { m.ISBN = s }),
}

func stringField(name string, set func(*models.ArchiveMeta, string)) Field {
	return Field{
		Name:    name,
		Parse:   parseString,
		Default: "",
		Apply:   func(m *models.ArchiveMeta, v any) { set(m, v.(string)) },
	}
}

func dateField(name string, set func(*models.ArchiveMeta, *time.Time)) Field {
	return Field{
		Name:    name,
		Parse:   parseDate,
		Default: (*time.Time)(nil),
		Apply:   func(m *models.ArchiveMeta, v any) { set(m, v.(*time.Time)) },
	}
}

// ValidateJSON decodes properties.json bytes and validates the result.
// Malformed text yields ErrNotUTF8 or a *SyntaxError; a well-formed document
// that breaks the field contract yields ValidationErrors.
func ValidateJSON(data []byte) (*models.ArchiveMeta, error) {
	if !utf8.Valid(data) {
		return nil, ErrNotUTF8
	}

	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, &SyntaxError{Err: err}
	}

	doc, ok := decoded.(map[string]any)
	if !ok {
		return nil, ValidationErrors{{
			Reason: ReasonWrongType,
			Detail: fmt.Sprintf("expected a JSON object, got %s", jsonKind(decoded)),
		}}
	}
	return Validate(doc)
}

// Validate checks a decoded document against ArchiveMetaFields. Keys outside
// the contract are ignored. No record is returned unless every field passes.
func Validate(doc map[string]any) (*models.ArchiveMeta, error) {
	shape, err := checkShape(doc)
	if err != nil {
		return nil, err
	}

	var errs ValidationErrors
	if fe, ok := shape[""]; ok {
		errs = append(errs, fe)
	}

	values := make([]any, len(ArchiveMetaFields))
	for i, f := range ArchiveMetaFields {
		if fe, ok := shape[f.Name]; ok {
			errs = append(errs, fe)
			continue
		}

		raw, present := doc[f.Name]
		if !present || raw == nil {
			if f.Required {
				errs = append(errs, FieldError{Field: f.Name, Reason: ReasonMissing, Detail: "field is required"})
				continue
			}
			values[i] = f.Default
			continue
		}

		v, err := f.Parse(raw)
		if err != nil {
			reason := ReasonMalformed
			if errors.Is(err, errWrongType) {
				reason = ReasonWrongType
			}
			errs = append(errs, FieldError{Field: f.Name, Reason: reason, Detail: err.Error()})
			continue
		}
		values[i] = v
	}

	if len(errs) > 0 {
		return nil, errs
	}

	meta := &models.ArchiveMeta{}
	for i, f := range ArchiveMetaFields {
		f.Apply(meta, values[i])
	}
	return meta, nil
}

func parseString(raw any) (any, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("%w: expected string, got %s", errWrongType, jsonKind(raw))
	}
	return s, nil
}

func parseNonEmptyString(raw any) (any, error) {
	v, err := parseString(raw)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(v.(string)) == "" {
		return nil, errors.New("must not be empty")
	}
	return v, nil
}

func parseUUID(raw any) (any, error) {
	v, err := parseString(raw)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(v.(string))
	if err != nil {
		return nil, fmt.Errorf("not a valid UUID: %w", err)
	}
	if id == uuid.Nil {
		return nil, errors.New("nil UUID is not allowed")
	}
	return id, nil
}

func parseDate(raw any) (any, error) {
	v, err := parseString(raw)
	if err != nil {
		return nil, err
	}
	t, err := ParseISO8601(v.(string))
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64, json.Number:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

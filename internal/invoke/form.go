// Package invoke turns a normalized operation schema into a fillable,
// validated request. The form owns one invocation draft at a time; the
// draft is discarded after submission or when a different operation is
// selected. The transport is never called while validation fails or while
// a declared confirmation is outstanding.
package invoke

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pinctl/pinctl/internal/api"
	"github.com/pinctl/pinctl/internal/errors"
	"github.com/pinctl/pinctl/internal/schema"
)

// ErrDeclined is returned by Submit when the operator declines the
// confirmation gate. The transport is not called and nothing changes.
var ErrDeclined = stderrors.New("invocation declined")

// ConfirmFunc asks the operator to confirm a guarded operation.
// It receives the server-declared message and reports the decision.
type ConfirmFunc func(message string) bool

// Form is the in-progress invocation of one operation.
type Form struct {
	operation string
	schema    *schema.Schema
	draft     map[string]interface{}
	raw       string
	flagged   map[string]string
}

// NewForm creates a form for the named operation, seeding the draft with
// any schema-declared defaults.
func NewForm(operation string, s *schema.Schema) *Form {
	if s == nil {
		s = &schema.Schema{}
	}
	f := &Form{
		operation: operation,
		schema:    s,
		draft:     make(map[string]interface{}),
		flagged:   make(map[string]string),
	}
	for _, field := range s.Fields {
		if field.Default != nil {
			f.draft[field.Name] = field.Default
		}
	}
	return f
}

// Operation returns the name of the operation this form invokes.
func (f *Form) Operation() string {
	return f.operation
}

// Schema returns the normalized schema backing the form.
func (f *Form) Schema() *schema.Schema {
	return f.schema
}

// Set stores a value for the named field. Setting any field clears its
// validation flag; the raw view is derived from the draft, never the
// other way around.
func (f *Form) Set(name string, value interface{}) error {
	if _, ok := f.schema.Field(name); !ok {
		return errors.New(errors.ErrValidate,
			fmt.Sprintf("Operation %s has no parameter %q", f.operation, name),
			"Run 'pinctl ops' to inspect the operation's parameters")
	}
	f.draft[name] = value
	delete(f.flagged, name)
	return nil
}

// SetText stores a textual input for the named field, coercing it to the
// field's declared type. Object and array text is kept verbatim and parsed
// at serialization time.
func (f *Form) SetText(name, text string) error {
	field, ok := f.schema.Field(name)
	if !ok {
		return errors.New(errors.ErrValidate,
			fmt.Sprintf("Operation %s has no parameter %q", f.operation, name),
			"Run 'pinctl ops' to inspect the operation's parameters")
	}

	switch field.Type {
	case schema.TypeNumber:
		if text == "" {
			delete(f.draft, name)
			delete(f.flagged, name)
			return nil
		}
		n, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return errors.New(errors.ErrValidate,
				fmt.Sprintf("%q is not a number for %s", text, name), "")
		}
		return f.Set(name, n)
	case schema.TypeBoolean:
		if text == "" {
			delete(f.draft, name)
			delete(f.flagged, name)
			return nil
		}
		b, err := strconv.ParseBool(text)
		if err != nil {
			return errors.New(errors.ErrValidate,
				fmt.Sprintf("%q is not a boolean for %s", text, name),
				"Use true or false")
		}
		return f.Set(name, b)
	default:
		// string, object, array: stored as text; structured kinds are
		// parsed in Args.
		return f.Set(name, text)
	}
}

// SetRaw stores a raw JSON argument object. It is the escape hatch for
// operations that declare no structured schema; when structured fields
// exist, the draft is the single source of truth and SetRaw is rejected.
func (f *Form) SetRaw(jsonText string) error {
	if f.schema.HasFields() {
		return errors.New(errors.ErrValidate,
			fmt.Sprintf("Operation %s declares structured parameters", f.operation),
			"Set fields individually; raw JSON input is only for schema-less operations")
	}
	var probe map[string]interface{}
	if err := json.Unmarshal([]byte(jsonText), &probe); err != nil {
		return errors.WrapWithCode(err, errors.ErrValidate,
			"Raw arguments are not a JSON object", "")
	}
	f.raw = jsonText
	return nil
}

// Draft returns a copy of the current field values.
func (f *Form) Draft() map[string]interface{} {
	out := make(map[string]interface{}, len(f.draft))
	for k, v := range f.draft {
		out[k] = v
	}
	return out
}

// Flagged returns the fields that failed the last validation, with reasons.
func (f *Form) Flagged() map[string]string {
	out := make(map[string]string, len(f.flagged))
	for k, v := range f.flagged {
		out[k] = v
	}
	return out
}

// Validate checks that every required field holds a non-empty value.
// A boolean field counts as provided regardless of true/false. Offending
// fields are flagged and an ErrValidate error names them.
func (f *Form) Validate() error {
	f.flagged = make(map[string]string)

	for _, field := range f.schema.Fields {
		if !field.Required {
			continue
		}
		v, ok := f.draft[field.Name]
		if !ok {
			f.flagged[field.Name] = "required"
			continue
		}
		switch val := v.(type) {
		case string:
			if strings.TrimSpace(val) == "" {
				f.flagged[field.Name] = "required"
			}
		case nil:
			f.flagged[field.Name] = "required"
		}
		// bool false and numeric zero are provided values.
	}

	if len(f.flagged) == 0 {
		return nil
	}

	names := make([]string, 0, len(f.flagged))
	for name := range f.flagged {
		names = append(names, name)
	}
	sort.Strings(names)
	return errors.New(errors.ErrValidate,
		"Missing required fields: "+strings.Join(names, ", "),
		"Provide a value for each required field")
}

// Args serializes the draft to a plain argument map matching the field
// types. Object and array fields held as text are parsed here; a parse
// failure is an ErrValidate error, not a crash.
func (f *Form) Args() (map[string]interface{}, error) {
	if !f.schema.HasFields() {
		if f.raw == "" {
			return map[string]interface{}{}, nil
		}
		var args map[string]interface{}
		if err := json.Unmarshal([]byte(f.raw), &args); err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrValidate,
				"Raw arguments are not a JSON object", "")
		}
		return args, nil
	}

	args := make(map[string]interface{}, len(f.draft))
	for _, field := range f.schema.Fields {
		v, ok := f.draft[field.Name]
		if !ok {
			continue
		}

		switch field.Type {
		case schema.TypeObject, schema.TypeArray:
			text, isText := v.(string)
			if !isText {
				args[field.Name] = v
				continue
			}
			if strings.TrimSpace(text) == "" {
				continue
			}
			var parsed interface{}
			if err := json.Unmarshal([]byte(text), &parsed); err != nil {
				return nil, errors.WrapWithCode(err, errors.ErrValidate,
					fmt.Sprintf("Field %s is not valid JSON", field.Name),
					"Enter a JSON "+field.Type)
			}
			args[field.Name] = parsed
		default:
			args[field.Name] = v
		}
	}
	return args, nil
}

// Submit validates the draft, runs the confirmation gate, and dispatches
// the invocation through the transport. Declining the confirmation aborts
// with ErrDeclined and no side effect. The returned payload, result or
// remote error, is surfaced to the caller unchanged.
func (f *Form) Submit(ctx context.Context, inv api.Invoker, confirm ConfirmFunc) (json.RawMessage, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	args, err := f.Args()
	if err != nil {
		return nil, err
	}

	if f.schema.Confirm != "" {
		if confirm == nil || !confirm(f.schema.Confirm) {
			return nil, ErrDeclined
		}
	}

	return inv.Invoke(ctx, f.operation, args)
}

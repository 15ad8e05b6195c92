package column

import "fmt"

// DefaultErrorMessage is used when a failing rule has no configured message.
const DefaultErrorMessage = "invalid value"

// FieldError is a failed rule on one field.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Field, e.Message, e.Rule)
}

// Check runs the rule chain of col against value. Rules run in order and the
// first failure wins. A nil result means the value is valid.
func Check(col *ColumnConfig, value any) *FieldError {
	if col.Edit == nil {
		return nil
	}
	for _, rule := range col.Edit.Rules() {
		if rule.Valid(value) {
			continue
		}
		msg, ok := col.Edit.Errors[rule.Name]
		if !ok || msg == "" {
			msg = DefaultErrorMessage
		}
		return &FieldError{Field: col.Field, Rule: rule.Name, Message: msg}
	}
	return nil
}

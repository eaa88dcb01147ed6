package domain

// Severity distinguishes a blocking violation from an advisory.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Violation is a single named rule outcome so tests and callers can check
// rule identity and severity without string matching.
type Violation struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// ValidationResult is the structured output of every safety check.
// Valid is false iff at least one violation has error severity.
type ValidationResult struct {
	Valid      bool        `json:"valid"`
	Violations []Violation `json:"violations,omitempty"`
}

// AddError appends an error-severity violation and marks the result invalid.
func (r *ValidationResult) AddError(rule, message string) {
	r.Valid = false
	r.Violations = append(r.Violations, Violation{Rule: rule, Severity: SeverityError, Message: message})
}

// AddWarning appends an advisory violation without affecting validity.
func (r *ValidationResult) AddWarning(rule, message string) {
	r.Violations = append(r.Violations, Violation{Rule: rule, Severity: SeverityWarning, Message: message})
}

// Warnings returns only the warning-severity violations.
func (r *ValidationResult) Warnings() []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity == SeverityWarning {
			out = append(out, v)
		}
	}
	return out
}

// Errors returns only the error-severity violations.
func (r *ValidationResult) Errors() []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity == SeverityError {
			out = append(out, v)
		}
	}
	return out
}

// HasRule reports whether any violation carries the given rule name.
func (r *ValidationResult) HasRule(rule string) bool {
	for _, v := range r.Violations {
		if v.Rule == rule {
			return true
		}
	}
	return false
}

// NewValidationResult returns a result that is valid until an error is added.
func NewValidationResult() *ValidationResult {
	return &ValidationResult{Valid: true}
}

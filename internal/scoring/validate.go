package scoring

import "math"

// Validate checks the structural invariants of an applicant. Unknown
// categorical values pass; only empty ones are rejected.
func Validate(a Applicant) error {
	var fields []FieldError
	add := func(field, reason string) {
		fields = append(fields, FieldError{Field: field, Reason: reason})
	}

	if a.Age <= 0 {
		add("age", "must be positive")
	}
	checkAmount := func(field string, v float64) {
		switch {
		case math.IsNaN(v) || math.IsInf(v, 0):
			add(field, "must be a finite number")
		case v <= 0:
			add(field, "must be positive")
		}
	}
	checkAmount("loanAmount", a.LoanAmount)
	if a.LoanTerm <= 0 {
		add("loanTerm", "must be positive")
	}
	checkAmount("income", a.Income)

	categorical := []struct {
		field string
		value string
	}{
		{"education", string(a.Education)},
		{"gender", string(a.Gender)},
		{"maritalStatus", string(a.MaritalStatus)},
		{"employmentStatus", string(a.EmploymentStatus)},
		{"loanType", string(a.LoanType)},
		{"loanAppType", string(a.LoanAppType)},
		{"modeOfPayment", string(a.ModeOfPayment)},
	}
	for _, c := range categorical {
		if c.value == "" {
			add(c.field, "is required")
		}
	}

	if len(fields) > 0 {
		return &InvalidInputError{Fields: fields}
	}
	return nil
}

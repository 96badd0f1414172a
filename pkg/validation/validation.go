package validation

// Field names used by the forms. They match the remote form keys.
const (
	FieldUser            = "user"
	FieldPassword        = "password"
	FieldOldPassword     = "old-password"
	FieldNewPassword     = "new-password"
	FieldConfirmPassword = "confirm-password"
	FieldInvitation      = "invitation"
)

const ResponseEmpty = "field must not be empty"

type ValidationResponse string

func (r ValidationResponse) Valid() bool {
	return r == ""
}

// ValidationBag collects one response per field, in the order fields were checked.
type ValidationBag struct {
	Responses map[string]ValidationResponse
	order     []string
}

func NewValidationBag() *ValidationBag {
	bag := ValidationBag{
		Responses: make(map[string]ValidationResponse),
	}

	return &bag
}

func (b *ValidationBag) Set(field string, response ValidationResponse) {
	if _, ok := b.Responses[field]; !ok {
		b.order = append(b.order, field)
	}
	b.Responses[field] = response
}

func (b *ValidationBag) Valid() bool {
	for _, r := range b.Responses {
		if !r.Valid() {
			return false
		}
	}

	return true
}

// Invalid lists the failing fields in the order they were checked.
func (b *ValidationBag) Invalid() []string {
	fields := []string{}
	for _, f := range b.order {
		if !b.Responses[f].Valid() {
			fields = append(fields, f)
		}
	}

	return fields
}

type Field struct {
	Name  string
	Value string
}

// ValidateRequired checks each field for an empty raw value. Whitespace counts as content.
func ValidateRequired(fields ...Field) *ValidationBag {
	bag := NewValidationBag()
	for _, f := range fields {
		bag.Set(f.Name, validatePresent(f.Value))
	}

	return bag
}

type CredentialCheck struct {
	Valid       bool
	EmptyFields []string
}

func ValidateCredentials(user string, password string) CredentialCheck {
	bag := ValidateRequired(
		Field{Name: FieldUser, Value: user},
		Field{Name: FieldPassword, Value: password},
	)

	return CredentialCheck{
		Valid:       bag.Valid(),
		EmptyFields: bag.Invalid(),
	}
}

// ValidateMatch is an exact, case-sensitive comparison.
func ValidateMatch(a string, b string) bool {
	return a == b
}

func validatePresent(value string) ValidationResponse {
	if value == "" {
		return ResponseEmpty
	}

	return ""
}

package client

type Credentials struct {
	User     string
	Password string
}

type PasswordChangeRequest struct {
	User        string
	OldPassword string
	NewPassword string
}

type RegistrationRequest struct {
	User       string
	Password   string
	Invitation string
}

// RegistrationError is the reason a registration was refused.
type RegistrationError int

const (
	RegistrationErrorNone RegistrationError = iota
	RegistrationErrorDisabled
	RegistrationErrorInvalidInvitation
	RegistrationErrorDuplicatedUser
	RegistrationErrorUnknown
)

// Error tags written by the server in the body of a refused registration.
const (
	TagDisabled   = "disabled"
	TagInvitation = "invitation"
	TagDuplicated = "duplicated"
)

func (e RegistrationError) String() string {
	switch e {
	case RegistrationErrorNone:
		return "none"
	case RegistrationErrorDisabled:
		return "disabled"
	case RegistrationErrorInvalidInvitation:
		return "invalid-invitation"
	case RegistrationErrorDuplicatedUser:
		return "duplicated-user"
	default:
		return "unknown"
	}
}

// ParseRegistrationError maps a response body to an error variant. Matching is exact.
func ParseRegistrationError(tag string) RegistrationError {
	switch tag {
	case TagDisabled:
		return RegistrationErrorDisabled
	case TagInvitation:
		return RegistrationErrorInvalidInvitation
	case TagDuplicated:
		return RegistrationErrorDuplicatedUser
	default:
		return RegistrationErrorUnknown
	}
}

type RegistrationResult struct {
	Success bool
	Error   RegistrationError
}

// AccessResult is the outcome of a privilege-scoped session check.
type AccessResult int

const (
	AccessUnauthenticated AccessResult = iota
	AccessForbidden
	AccessGranted
)

func (r AccessResult) String() string {
	switch r {
	case AccessGranted:
		return "granted"
	case AccessForbidden:
		return "forbidden"
	default:
		return "unauthenticated"
	}
}

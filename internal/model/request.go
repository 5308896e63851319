package model

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn,omitempty"`
}

type SignupRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Gender    Gender `json:"gender"`
	Password  string `json:"password"`
}

type VerifyEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type ResendCodeRequest struct {
	Email string `json:"email"`
}

// MessageResponse is the opaque success payload returned by signup,
// verification and resend calls.
type MessageResponse struct {
	Message string `json:"message,omitempty"`
}

type AdvancedOptions struct {
	AnnotatorRegistrationEnabled  bool `json:"annotatorRegistrationEnabled"`
	AnnotatorLoginEnabled         bool `json:"annotatorLoginEnabled"`
	AnnotatorProfileUpdateEnabled bool `json:"annotatorProfileUpdateEnabled"`
}

package dto

type StartImpersonationRequest struct {
	TargetCode uint `json:"target_code" validate:"required"`
}

// ImpersonationResponse carries the new session when Active changed.
// Session is nil when stop was called without an active impersonation.
type ImpersonationResponse struct {
	Active  bool           `json:"active"`
	Message string         `json:"message"`
	Session *LoginResponse `json:"session,omitempty"`
}

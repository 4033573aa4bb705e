package model

// Identity names one account acting in a request.
type Identity struct {
	Code     uint   `json:"code"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// ActingIdentity is the caller of a request. Effective is who the request acts
// as; Original is set only while an impersonation is active and names the
// account that started it.
type ActingIdentity struct {
	Effective Identity  `json:"effective"`
	Original  *Identity `json:"original,omitempty"`
}

func (a ActingIdentity) Impersonating() bool { return a.Original != nil }

// RealActor is the account accountable for the request.
func (a ActingIdentity) RealActor() Identity {
	if a.Original != nil {
		return *a.Original
	}
	return a.Effective
}

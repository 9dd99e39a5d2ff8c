package kernel

// AuthContext is the authenticated identity injected into a request after
// session validation.
type AuthContext struct {
	Email     Email    `json:"email"`
	ClientIDs []string `json:"client_ids"`
}

// IsValid reports whether the context carries a usable identity.
func (ac *AuthContext) IsValid() bool {
	return ac != nil && !ac.Email.IsEmpty() && ac.ClientIDs != nil
}

// HasClient reports whether the session is scoped to the given instance.
// An identity-scoped session (empty client_ids) is not scoped to any.
func (ac *AuthContext) HasClient(clientID ClientID) bool {
	for _, id := range ac.ClientIDs {
		if id == clientID.String() {
			return true
		}
	}
	return false
}

// ContextKey is the type for fiber locals keys used by this module.
type ContextKey string

const (
	// AuthContextKey stores the AuthContext on an authenticated request.
	AuthContextKey ContextKey = "auth_context"
)

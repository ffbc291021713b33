// Package identity defines the caller descriptor passed into every core
// operation. It is resolved at the HTTP boundary by the auth middleware and
// carried explicitly so the service layer never inspects credentials itself.
package identity

// Caller identifies the authenticated principal making a request.
type Caller struct {
	UserID  string
	IsAdmin bool
}

// CanAccess reports whether the caller may read records owned by ownerID.
// Shared-scope records (nil owner) are readable by everyone.
func (c Caller) CanAccess(ownerID *string) bool {
	if ownerID == nil {
		return true
	}
	return c.IsAdmin || *ownerID == c.UserID
}

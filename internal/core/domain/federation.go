package domain

// ExternalProfile is the normalized view of an identity returned by an
// external provider. It is consumed immediately by the auth flows and is
// never persisted as such.
//
// Email may be empty for providers that do not guarantee one (Facebook);
// the requesting flow decides whether that is acceptable.
type ExternalProfile struct {
	ProviderUserID string
	Email          string
	FirstName      string
	LastName       string
	PictureURL     string
}

// SignupRequest carries the registration payload supplied by the user.
// During two-phase signup it is held verbatim in the verification store
// until the code is confirmed; the password stays plaintext until the
// account is actually created.
type SignupRequest struct {
	Email        string
	Password     string
	FirstName    string
	LastName     string
	Role         string
	Organization string
}

package domain

// WikiIdentity represents an authenticated Wikimedia user for the duration of
// one request. The delegated token pair is issued by the identity provider
// during the OAuth handshake and is never persisted by this service.
type WikiIdentity struct {
	// UserID is the stable Wikimedia user ID
	UserID string

	// Username is the display name used for authorship attribution
	Username string

	// Token is the delegated OAuth access token
	Token string

	// TokenSecret is the delegated OAuth access token secret
	TokenSecret string
}

// HasCredentials reports whether the identity carries a usable token pair.
// Both halves must be present for a signed call to succeed.
func (i *WikiIdentity) HasCredentials() bool {
	return i != nil && i.Token != "" && i.TokenSecret != ""
}

// CredentialKind distinguishes how a credential pair was obtained
type CredentialKind string

const (
	// CredentialPerUser is a delegated token pair belonging to the submitting user
	CredentialPerUser CredentialKind = "per_user"

	// CredentialServiceOwner is the shared owner-of-record pair configured in the
	// environment. Only selected when no per-user identity is available, which is
	// restricted to non-production operation.
	CredentialServiceOwner CredentialKind = "service_owner"
)

// Credentials is the token pair selected for signing remote calls, tagged with
// its provenance so the fallback path stays visible to callers and tests.
type Credentials struct {
	Kind   CredentialKind
	Key    string
	Secret string
}

// PerUserCredentials builds credentials from a user's delegated token pair
func PerUserCredentials(key, secret string) Credentials {
	return Credentials{Kind: CredentialPerUser, Key: key, Secret: secret}
}

// ServiceOwnerCredentials builds credentials from the configured owner pair
func ServiceOwnerCredentials(key, secret string) Credentials {
	return Credentials{Kind: CredentialServiceOwner, Key: key, Secret: secret}
}

// UploadResult is the canonical stored identity of a committed asset. The
// repository may have renamed the file relative to the requested title.
type UploadResult struct {
	// Filename is the final stored filename
	Filename string `json:"filename"`

	// URL is the publicly resolvable file page URL
	URL string `json:"url"`
}

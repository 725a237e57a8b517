package model

// AccessTier is the authorization tier carried by an authenticated session.
// Actors with TierAll see private documents and may edit or delete; TierPublic
// actors are restricted to public documents.
type AccessTier string

const (
	TierAll    AccessTier = "all"
	TierPublic AccessTier = "public"
)

// Actor is the authenticated principal behind a request.
type Actor struct {
	SessionID string     `json:"session_id"`
	Access    AccessTier `json:"access"`
}

// CanViewPrivate reports whether the actor may see or create private documents.
func (a Actor) CanViewPrivate() bool {
	return a.Access == TierAll
}

// CanAdminister reports whether the actor may edit or delete documents.
func (a Actor) CanAdminister() bool {
	return a.Access == TierAll
}

package models

// EventDescriptor is the structured form of one calendar occasion extracted
// from free-form input. It is transient: produced by the extraction step and
// consumed exactly once by the calendar synchronizer.
type EventDescriptor struct {
	Title       string `json:"title"`
	Date        string `json:"date"`               // YYYY-MM-DD
	EndDate     string `json:"end_date,omitempty"` // defaults to Date
	StartTime   string `json:"start_time"`         // HH:MM
	EndTime     string `json:"end_time"`           // HH:MM
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
}

// Credential is the single stored OAuth token pair for the calendar owner.
// RefreshToken must never be dropped: providers may omit it on renewal, in
// which case the previous value is carried forward.
type Credential struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"` // unix seconds
}

// RemoteEvent is the provider's view of a created event. The ID is the only
// handle retained after creation, embedded in the confirmation's delete
// button.
type RemoteEvent struct {
	ID          string
	Title       string
	Start       string // RFC3339 in the configured zone
	End         string
	Description string
	Location    string
	HTMLLink    string
}

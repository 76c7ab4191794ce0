package model

// NotificationPrefs is the per-channel notification toggle set.
type NotificationPrefs struct {
	Email bool `json:"email"`
	Push  bool `json:"push"`
	InApp bool `json:"in_app"`
}

// Profile is the normalized user-preference bag. Every field has an
// explicit fallback so consumers never observe a missing value.
type Profile struct {
	AnonymousID   string             `json:"anonymous_id"`
	Username      string             `json:"username"`
	FullName      string             `json:"full_name"`
	Bio           string             `json:"bio"`
	Locale        string             `json:"locale"`
	IsPublic      bool               `json:"is_public"`
	ShowActivity  bool               `json:"show_activity"`
	Notifications *NotificationPrefs `json:"notifications"`
}

const profileFallback = "-"

// Normalize fills absent fields with their documented defaults: "-" for
// strings, false for flags, a default object for nested prefs.
func (p *Profile) Normalize() {
	if p.Username == "" {
		p.Username = profileFallback
	}
	if p.FullName == "" {
		p.FullName = profileFallback
	}
	if p.Bio == "" {
		p.Bio = profileFallback
	}
	if p.Locale == "" {
		p.Locale = "en"
	}
	if p.Notifications == nil {
		p.Notifications = &NotificationPrefs{}
	}
}

// PointsEntry is one line of the points history ledger.
type PointsEntry struct {
	EntryID   string `json:"entry_id"`
	Delta     int    `json:"delta"`
	Reason    string `json:"reason"`
	CreatedAt string `json:"created_at"`
}

// Points is the user's current balance plus its recent history.
type Points struct {
	AnonymousID string        `json:"anonymous_id"`
	Balance     int           `json:"balance"`
	History     []PointsEntry `json:"history,omitempty"`
}

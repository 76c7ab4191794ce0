package model

import (
	"testing"
	"time"
)

func TestProfileNormalizeDefaults(t *testing.T) {
	p := Profile{}
	p.Normalize()

	if p.Username != "-" || p.FullName != "-" || p.Bio != "-" {
		t.Fatalf("expected string fallbacks, got %+v", p)
	}
	if p.Locale != "en" {
		t.Fatalf("expected default locale en, got %q", p.Locale)
	}
	if p.Notifications == nil {
		t.Fatal("expected default notification prefs object")
	}
}

func TestProfileNormalizeKeepsValues(t *testing.T) {
	p := Profile{Username: "ada", Locale: "fr", Notifications: &NotificationPrefs{Push: true}}
	p.Normalize()

	if p.Username != "ada" || p.Locale != "fr" {
		t.Fatalf("normalize overwrote present values: %+v", p)
	}
	if !p.Notifications.Push {
		t.Fatal("normalize replaced present prefs")
	}
}

func TestEntityIDKinds(t *testing.T) {
	local := NewLocalID()
	if local.Confirmed() {
		t.Fatal("fresh local id must not read as confirmed")
	}
	if local.Value == "" {
		t.Fatal("local id needs a value for collection lookups")
	}
	other := NewLocalID()
	if local.Value == other.Value {
		t.Fatal("local ids must be unique")
	}

	conf := ConfirmedID("abc")
	if !conf.Confirmed() || conf.Value != "abc" {
		t.Fatalf("unexpected confirmed id: %+v", conf)
	}
}

func TestUnreadCountIgnoresOwnMessages(t *testing.T) {
	msgs := []Message{
		{SenderID: "me", IsRead: false},
		{SenderID: "other", IsRead: false},
		{SenderID: "other", IsRead: true},
	}
	if n := UnreadCount(msgs, "me"); n != 1 {
		t.Fatalf("expected 1 unread, got %d", n)
	}
}

func TestLastMessagePicksNewest(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	msgs := []Message{
		{MessageID: "a", Timestamp: base.Add(time.Hour)},
		{MessageID: "b", Timestamp: base.Add(2 * time.Hour)},
		{MessageID: "c", Timestamp: base},
	}
	if m := LastMessage(msgs); m == nil || m.MessageID != "b" {
		t.Fatalf("expected newest message b, got %+v", m)
	}
	if m := LastMessage(nil); m != nil {
		t.Fatalf("expected nil for empty collection, got %+v", m)
	}
}

func TestTweetLikedByUser(t *testing.T) {
	tw := Tweet{LikedBy: []string{"a", "b"}}
	if !tw.LikedByUser("a") || tw.LikedByUser("z") {
		t.Fatalf("like set membership wrong: %+v", tw.LikedBy)
	}
}

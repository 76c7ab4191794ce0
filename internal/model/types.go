package model

import "time"

// ContentType enumerates the kinds of content a tweet can carry.
type ContentType string

const (
	ContentText         ContentType = "text"
	ContentImage        ContentType = "image"
	ContentVideo        ContentType = "video"
	ContentAudio        ContentType = "audio"
	ContentFile         ContentType = "file"
	ContentPoll         ContentType = "poll"
	ContentEvent        ContentType = "event"
	ContentLink         ContentType = "link"
	ContentQuote        ContentType = "quote"
	ContentEmbed        ContentType = "embed"
	ContentVoice        ContentType = "voice"
	ContentVideoMessage ContentType = "video_message"
)

// ContentTypes lists every valid content type for enum checks.
var ContentTypes = []ContentType{
	ContentText, ContentImage, ContentVideo, ContentAudio, ContentFile,
	ContentPoll, ContentEvent, ContentLink, ContentQuote, ContentEmbed,
	ContentVoice, ContentVideoMessage,
}

// TweetStatus is the moderation/lifecycle status assigned by the server.
type TweetStatus string

const (
	StatusPending      TweetStatus = "pending"
	StatusApproved     TweetStatus = "approved"
	StatusRejected     TweetStatus = "rejected"
	StatusAnnouncement TweetStatus = "announcement"
	StatusReminder     TweetStatus = "reminder"
	StatusPinned       TweetStatus = "pinned"
	StatusArchived     TweetStatus = "archived"
)

// TweetStatuses lists every valid status for enum checks.
var TweetStatuses = []TweetStatus{
	StatusPending, StatusApproved, StatusRejected, StatusAnnouncement,
	StatusReminder, StatusPinned, StatusArchived,
}

// Position is a tweet's spatial placement on its board.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PollOption is one choice in a poll content block.
type PollOption struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Votes int    `json:"votes"`
}

// EventDetails describes an event content block.
type EventDetails struct {
	Title    string     `json:"title"`
	Location string     `json:"location,omitempty"`
	StartsAt *time.Time `json:"starts_at,omitempty"`
	EndsAt   *time.Time `json:"ends_at,omitempty"`
}

// FileRef points at an uploaded attachment by its storage key.
type FileRef struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size,omitempty"`
	URL         string `json:"url,omitempty"`
}

// ContentMetadata is the per-type metadata bag attached to tweet content.
type ContentMetadata struct {
	Files        []FileRef         `json:"files,omitempty"`
	Hashtags     []string          `json:"hashtags,omitempty"`
	Mentions     []string          `json:"mentions,omitempty"`
	Style        map[string]string `json:"style,omitempty"`
	PollOptions  []PollOption      `json:"poll_options,omitempty"`
	EventDetails *EventDetails     `json:"event_details,omitempty"`
	QuoteRef     string            `json:"quote_ref,omitempty"`
	EmbedData    map[string]any    `json:"embed_data,omitempty"`
}

// Content is the typed value+metadata union carried by a tweet.
type Content struct {
	Type     ContentType     `json:"type"`
	Value    string          `json:"value"`
	Metadata ContentMetadata `json:"metadata"`
}

// ShareRecord logs one share of a tweet.
type ShareRecord struct {
	AnonymousID string    `json:"anonymous_id"`
	SharedAt    time.Time `json:"shared_at"`
}

// Tweet is a positioned post pinned on a board. Tweets form a tree via
// ParentTweetID/ChildTweetIDs.
type Tweet struct {
	// ID distinguishes optimistic placeholders from confirmed records.
	// Not part of the wire format.
	ID EntityID `json:"-"`

	TweetID       string        `json:"tweet_id"`
	BoardID       string        `json:"board_id"`
	Content       Content       `json:"content"`
	Position      Position      `json:"position"`
	ParentTweetID *string       `json:"parent_tweet_id,omitempty"`
	ChildTweetIDs []string      `json:"child_tweet_ids,omitempty"`
	AnonymousID   string        `json:"anonymous_id"`
	Username      string        `json:"username"`
	IsAnonymous   bool          `json:"is_anonymous"`
	LikedBy       []string      `json:"liked_by"`
	LikeCount     int           `json:"like_count"`
	Status        TweetStatus   `json:"status"`
	ScheduledAt   *time.Time    `json:"scheduled_at,omitempty"`
	ReminderAt    *time.Time    `json:"reminder_at,omitempty"`
	IsPinned      bool          `json:"is_pinned"`
	Shares        []ShareRecord `json:"shares,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// LikedByUser reports whether the given anonymous id is in the like set.
func (t *Tweet) LikedByUser(anonymousID string) bool {
	for _, id := range t.LikedBy {
		if id == anonymousID {
			return true
		}
	}
	return false
}

// Board is the spatial container tweets are pinned on. Boards nest under
// classes and gates through their parent identifiers.
type Board struct {
	BoardID     string    `json:"board_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ClassID     string    `json:"class_id,omitempty"`
	GateID      string    `json:"gate_id,omitempty"`
	IsPublic    bool      `json:"is_public"`
	TweetCount  int       `json:"tweet_count"`
	CreatedAt   time.Time `json:"created_at"`
}

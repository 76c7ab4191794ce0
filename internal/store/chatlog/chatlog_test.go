package chatlog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"hubclient/internal/model"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestSaveAndLoadMessages(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	msgs := []model.Message{
		{MessageID: "m2", SenderID: "a", Content: "second", Timestamp: base.Add(time.Minute)},
		{MessageID: "m1", SenderID: "b", Content: "first", IsRead: true, Timestamp: base},
	}
	if err := d.SaveMessages(ctx, "conv1", msgs); err != nil {
		t.Fatal(err)
	}

	got, err := d.LoadMessages(ctx, "conv1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got))
	}
	if got[0].MessageID != "m1" || got[1].MessageID != "m2" {
		t.Fatalf("expected timestamp order, got %v %v", got[0].MessageID, got[1].MessageID)
	}
	if !got[0].IsRead || got[1].IsRead {
		t.Fatalf("read flags lost: %+v", got)
	}
	if !got[0].ID.Confirmed() {
		t.Fatal("journaled messages must carry confirmed ids")
	}
}

func TestSaveMessageUpserts(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	m := model.Message{MessageID: "m1", SenderID: "a", Content: "v1", Timestamp: time.Now()}

	if err := d.SaveMessage(ctx, "conv1", m); err != nil {
		t.Fatal(err)
	}
	m.Content = "v2"
	if err := d.SaveMessage(ctx, "conv1", m); err != nil {
		t.Fatal(err)
	}

	got, err := d.LoadMessages(ctx, "conv1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Content != "v2" {
		t.Fatalf("expected single upserted row with v2, got %+v", got)
	}
}

func TestMarkRead(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	m := model.Message{MessageID: "m1", SenderID: "a", Content: "hi", Timestamp: time.Now()}
	if err := d.SaveMessage(ctx, "conv1", m); err != nil {
		t.Fatal(err)
	}
	if err := d.MarkRead(ctx, "m1"); err != nil {
		t.Fatal(err)
	}
	got, err := d.LoadMessages(ctx, "conv1")
	if err != nil {
		t.Fatal(err)
	}
	if !got[0].IsRead {
		t.Fatal("expected read flag persisted")
	}
}

func TestMessagesScopedByConversation(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	now := time.Now()
	_ = d.SaveMessage(ctx, "conv1", model.Message{MessageID: "m1", SenderID: "a", Content: "x", Timestamp: now})
	_ = d.SaveMessage(ctx, "conv2", model.Message{MessageID: "m2", SenderID: "a", Content: "y", Timestamp: now})

	got, err := d.LoadMessages(ctx, "conv1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].MessageID != "m1" {
		t.Fatalf("expected conv1 scoped load, got %+v", got)
	}
}

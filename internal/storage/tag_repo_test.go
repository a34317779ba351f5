package storage

import (
	"context"
	"reflect"
	"testing"
	"time"
)

func TestTagRepo_InsertAndList(t *testing.T) {
	db := newTestDB(t)
	repo := NewTagRepo(db)
	ctx := context.Background()
	entry := insertTestEntry(t, NewEntryRepo(db))

	if err := repo.Insert(ctx, entry.ID, nil); err != nil {
		t.Fatalf("Insert(nil) error = %v", err)
	}
	if err := repo.Insert(ctx, entry.ID, []string{"travel", "family"}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	// Existing names are ignored.
	if err := repo.Insert(ctx, entry.ID, []string{"family", "lake"}); err != nil {
		t.Fatalf("Insert() second call error = %v", err)
	}

	got, err := repo.ListByEntry(ctx, entry.ID)
	if err != nil {
		t.Fatalf("ListByEntry() error = %v", err)
	}
	want := []string{"travel", "family", "lake"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ListByEntry() = %v, want %v", got, want)
	}

	empty, err := repo.ListByEntry(ctx, 424242)
	if err != nil {
		t.Fatalf("ListByEntry() missing entry error = %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("ListByEntry() missing entry = %#v, want empty slice", empty)
	}
}

func TestTagRepo_InsertUnknownEntry(t *testing.T) {
	repo := NewTagRepo(newTestDB(t))

	if err := repo.Insert(context.Background(), 424242, []string{"x"}); err == nil {
		t.Error("Insert() expected foreign key error, got nil")
	}
}

func TestTagRepo_ListByUser(t *testing.T) {
	db := newTestDB(t)
	repo := NewTagRepo(db)
	entries := NewEntryRepo(db)
	ctx := context.Background()

	mine := insertTestEntry(t, entries)
	untagged := insertTestEntry(t, entries)
	other := &EntryRecord{UserID: "user-2", EntryDate: time.Now(), FullText: "theirs"}
	if err := entries.Insert(ctx, other); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	if err := repo.Insert(ctx, mine.ID, []string{"work", "rain"}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := repo.Insert(ctx, other.ID, []string{"secret"}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	got, err := repo.ListByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	want := map[int64][]string{mine.ID: {"work", "rain"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ListByUser() = %v, want %v", got, want)
	}
	if _, ok := got[untagged.ID]; ok {
		t.Error("ListByUser() should omit untagged entries")
	}
}

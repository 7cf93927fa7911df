//go:build !js && !wasm
// +build !js,!wasm

package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/MarciaSuzuki/Tripod/pkg/models"
	"gorm.io/gorm"
)

// Helper function to create a temporary test database
func setupTestDB(t *testing.T) (*DBClient, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test_tripod.sqlite3")
	client, err := NewDBClientWithPath(dbPath)
	if err != nil {
		t.Fatalf("Failed to create test DB client: %v", err)
	}

	t.Cleanup(func() {
		client.Close()
	})

	return client, dbPath
}

func sampleEntry(id string) models.Entry {
	return models.Entry{
		ID:         id,
		CreatedAt:  time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC),
		RecordedOn: "2025-03-14",
		Language:   models.Language{Name: "Kikuyu", Code: "kik", Dialect: "Gichugu"},
		Genre:      "narrative",
		Register:   "informal",
		Style:      "casual",
		Speaker:    "Wanjiru",
		Collector:  "M. Suzuki",
		Consent:    "public",
		Transcript: models.TranscriptText{
			Rich:  `<p>The chief spoke. <span data-marker="LA:CHAIN_medial">Then</span> the rains came!</p>`,
			Plain: "The chief spoke. Then the rains came!\n",
		},
		MarkersUsed: []string{"LA:CHAIN_medial"},
	}
}

func TestNewDBClient(t *testing.T) {
	client, dbPath := setupTestDB(t)

	if client.DB == nil {
		t.Fatal("Expected non-nil GORM DB handle")
	}
	if client.db == nil {
		t.Fatal("Expected non-nil sql.DB handle")
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("Database file was not created at %s", dbPath)
	}
}

func TestNewDBClientFromEnv(t *testing.T) {
	customPath := filepath.Join(t.TempDir(), "subdir", "custom.db")
	t.Setenv("TRIPOD_DB_PATH", customPath)

	client, err := NewDBClient()
	if err != nil {
		t.Fatalf("Failed to create DB client: %v", err)
	}
	defer client.Close()

	if _, err := os.Stat(customPath); os.IsNotExist(err) {
		t.Errorf("Database file was not created at %s", customPath)
	}
}

func TestNilClient(t *testing.T) {
	var c *DBClient
	if err := c.Put(context.Background(), sampleEntry("LA-1"), nil); err == nil {
		t.Error("Expected error from nil client")
	}
	if err := c.Close(); err != nil {
		t.Errorf("Expected nil error closing nil client, got %v", err)
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	client, _ := setupTestDB(t)
	ctx := context.Background()

	duration := 12.5
	entry := sampleEntry("LA-1")
	entry.Audio.DurationSec = &duration
	audio := &models.AudioBlob{MimeType: "audio/wav", Data: []byte("RIFF....WAVEfmt ")}

	if err := client.Put(ctx, entry, audio); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, gotAudio, err := client.Get(ctx, "LA-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil || gotAudio == nil {
		t.Fatalf("Expected entry and audio, got %v / %v", got, gotAudio)
	}

	want := entry
	want.Audio = models.AudioInfo{Present: true, MimeType: "audio/wav", Size: int64(len(audio.Data)), DurationSec: &duration}
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("Entry mismatch:\nexpected %+v\ngot      %+v", want, *got)
	}
	if gotAudio.MimeType != "audio/wav" || !bytes.Equal(gotAudio.Data, audio.Data) {
		t.Errorf("Audio mismatch: got %q %q", gotAudio.MimeType, gotAudio.Data)
	}
}

func TestGetUnknown(t *testing.T) {
	client, _ := setupTestDB(t)

	entry, audio, err := client.Get(context.Background(), "LA-missing")
	if err != nil {
		t.Fatalf("Expected no error for unknown id, got %v", err)
	}
	if entry != nil || audio != nil {
		t.Errorf("Expected nil entry and audio, got %v / %v", entry, audio)
	}
}

func TestMetadataOnlyPutKeepsAudio(t *testing.T) {
	client, _ := setupTestDB(t)
	ctx := context.Background()

	audioA := &models.AudioBlob{MimeType: "audio/webm", Data: []byte{1, 2, 3, 4}}
	if err := client.Put(ctx, sampleEntry("LA-1"), audioA); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	updated := sampleEntry("LA-1")
	updated.Genre = "lament"
	if err := client.Put(ctx, updated, nil); err != nil {
		t.Fatalf("Metadata put failed: %v", err)
	}

	got, gotAudio, err := client.Get(ctx, "LA-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Genre != "lament" {
		t.Errorf("Expected genre lament, got %q", got.Genre)
	}
	if gotAudio == nil || !bytes.Equal(gotAudio.Data, audioA.Data) {
		t.Fatalf("Expected original audio to be kept, got %v", gotAudio)
	}
	if !got.Audio.Present || got.Audio.MimeType != "audio/webm" || got.Audio.Size != 4 {
		t.Errorf("Expected audio metadata to be kept, got %+v", got.Audio)
	}
}

func TestPutReplacesAudio(t *testing.T) {
	client, _ := setupTestDB(t)
	ctx := context.Background()

	if err := client.Put(ctx, sampleEntry("LA-1"), &models.AudioBlob{MimeType: "audio/webm", Data: []byte{1}}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := client.Put(ctx, sampleEntry("LA-1"), &models.AudioBlob{MimeType: "audio/wav", Data: []byte{9, 9}}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, gotAudio, _ := client.Get(ctx, "LA-1")
	if gotAudio.MimeType != "audio/wav" || !bytes.Equal(gotAudio.Data, []byte{9, 9}) {
		t.Errorf("Expected replaced audio, got %q %v", gotAudio.MimeType, gotAudio.Data)
	}
	if got.Audio.Size != 2 {
		t.Errorf("Expected audio size 2, got %d", got.Audio.Size)
	}

	n, err := client.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 entry after upserts, got %d", n)
	}
}

func TestPutRollsBackAudioWhenEntryFails(t *testing.T) {
	client, _ := setupTestDB(t)
	ctx := context.Background()

	audioA := &models.AudioBlob{MimeType: "audio/webm", Data: []byte{1, 2, 3}}
	if err := client.Put(ctx, sampleEntry("LA-1"), audioA); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	err := client.DB.Callback().Create().Before("gorm:create").Register("test:fail_entries", func(tx *gorm.DB) {
		if tx.Statement.Table == "entries" {
			tx.AddError(errors.New("entries write failed"))
		}
	})
	if err != nil {
		t.Fatalf("Failed to register callback: %v", err)
	}

	audioB := &models.AudioBlob{MimeType: "audio/wav", Data: []byte{9, 9, 9, 9}}
	if err := client.Put(ctx, sampleEntry("LA-1"), audioB); err == nil {
		t.Fatal("Expected put to fail when the entry row cannot be written")
	}
	got, gotAudio, err := client.Get(ctx, "LA-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if gotAudio == nil || gotAudio.MimeType != "audio/webm" || !bytes.Equal(gotAudio.Data, audioA.Data) {
		t.Errorf("Expected the original audio after a failed put, got %v", gotAudio)
	}
	if got.Audio.Size != 3 {
		t.Errorf("Expected audio size 3, got %d", got.Audio.Size)
	}

	if err := client.Put(ctx, sampleEntry("LA-2"), audioB); err == nil {
		t.Fatal("Expected put of a new entry to fail")
	}
	got, gotAudio, err = client.Get(ctx, "LA-2")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil || gotAudio != nil {
		t.Errorf("Expected no entry and no audio for LA-2, got %v %v", got, gotAudio)
	}
}

func TestPutKeepsCreatedAt(t *testing.T) {
	client, _ := setupTestDB(t)
	ctx := context.Background()

	original := sampleEntry("LA-1")
	if err := client.Put(ctx, original, nil); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	tests := []struct {
		name      string
		createdAt time.Time
	}{
		{"later time", time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"zero time", time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := sampleEntry("LA-1")
			e.CreatedAt = tt.createdAt
			e.Notes = tt.name
			if err := client.Put(ctx, e, nil); err != nil {
				t.Fatalf("Put failed: %v", err)
			}

			got, _, err := client.Get(ctx, "LA-1")
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if got.Notes != tt.name {
				t.Errorf("Expected notes %q, got %q", tt.name, got.Notes)
			}
			if !got.CreatedAt.Equal(original.CreatedAt) {
				t.Errorf("Expected created %v, got %v", original.CreatedAt, got.CreatedAt)
			}

			entries, err := client.List(ctx)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(entries) != 1 || !entries[0].CreatedAt.Equal(original.CreatedAt) {
				t.Errorf("Expected listed entry created %v, got %+v", original.CreatedAt, entries)
			}

			var rec EntryRecord
			if err := client.DB.Where("id = ?", "LA-1").Take(&rec).Error; err != nil {
				t.Fatalf("Reading row failed: %v", err)
			}
			if !rec.CreatedAt.Equal(original.CreatedAt) {
				t.Errorf("Expected created_at column %v, got %v", original.CreatedAt, rec.CreatedAt)
			}
		})
	}
}

func TestListOrder(t *testing.T) {
	client, _ := setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"LA-3", "LA-1", "LA-2"} {
		e := sampleEntry(id)
		e.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := client.Put(ctx, e, nil); err != nil {
			t.Fatalf("Put %s failed: %v", id, err)
		}
	}

	entries, err := client.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	for i, want := range []string{"LA-3", "LA-1", "LA-2"} {
		if entries[i].ID != want {
			t.Errorf("Position %d: expected %s, got %s", i, want, entries[i].ID)
		}
	}
}

func TestSearch(t *testing.T) {
	client, _ := setupTestDB(t)
	ctx := context.Background()

	en := sampleEntry("LA-1")
	en.Language = models.Language{Name: "English", Code: "en"}
	en.Speaker = "Ana"
	en.Transcript.Plain = "The river was wide."

	kik := sampleEntry("LA-2")
	kik.CreatedAt = kik.CreatedAt.Add(time.Hour)
	kik.Transcript.Plain = "Mũndũ ũmwe nĩ aathiire."

	for _, e := range []models.Entry{en, kik} {
		if err := client.Put(ctx, e, nil); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"EN", []string{"LA-1"}},
		{"english", []string{"LA-1"}},
		{"kik", []string{"LA-2"}},
		{"GICHUGU", []string{"LA-2"}},
		{"MŨNDŨ", []string{"LA-2"}},
		{"river WAS", []string{"LA-1"}},
		{"la-", []string{"LA-1", "LA-2"}},
		{"nothing-matches", nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := client.Search(ctx, tt.query)
			if err != nil {
				t.Fatalf("Search failed: %v", err)
			}
			ids := make([]string, 0, len(got))
			for _, e := range got {
				ids = append(ids, e.ID)
			}
			if len(ids) != len(tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, ids)
			}
			for i := range ids {
				if ids[i] != tt.want[i] {
					t.Errorf("Expected %v, got %v", tt.want, ids)
				}
			}
		})
	}

	all, _ := client.List(ctx)
	blank, err := client.Search(ctx, "   ")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if !reflect.DeepEqual(all, blank) {
		t.Errorf("Expected blank search to equal List")
	}
}

func TestDelete(t *testing.T) {
	client, _ := setupTestDB(t)
	ctx := context.Background()

	if err := client.Put(ctx, sampleEntry("LA-1"), &models.AudioBlob{MimeType: "audio/wav", Data: []byte{1}}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := client.Delete(ctx, "LA-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	entry, audio, err := client.Get(ctx, "LA-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry != nil || audio != nil {
		t.Errorf("Expected entry and audio to be gone, got %v / %v", entry, audio)
	}

	if err := client.Delete(ctx, "LA-1"); err != nil {
		t.Errorf("Expected deleting a missing entry to succeed, got %v", err)
	}
}

func TestDeleteAudio(t *testing.T) {
	client, _ := setupTestDB(t)
	ctx := context.Background()

	if err := client.Put(ctx, sampleEntry("LA-1"), &models.AudioBlob{MimeType: "audio/wav", Data: []byte{1, 2}}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := client.DeleteAudio(ctx, "LA-1"); err != nil {
		t.Fatalf("DeleteAudio failed: %v", err)
	}

	entry, audio, _ := client.Get(ctx, "LA-1")
	if audio != nil {
		t.Errorf("Expected audio to be removed")
	}
	if entry == nil || entry.Audio.Present || entry.Audio.Size != 0 {
		t.Errorf("Expected cleared audio metadata, got %+v", entry)
	}
}

func TestCanceledContext(t *testing.T) {
	client, _ := setupTestDB(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := client.Put(ctx, sampleEntry("LA-1"), nil); err == nil {
		t.Error("Expected error for canceled context")
	}

	n, err := client.Count(context.Background())
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Expected no entries after failed put, got %d", n)
	}
}

func TestConcurrentPuts(t *testing.T) {
	client, _ := setupTestDB(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e := sampleEntry("LA-same")
			e.Notes = string(rune('a' + i))
			errs <- client.Put(ctx, e, nil)
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("Concurrent put failed: %v", err)
		}
	}

	n, _ := client.Count(ctx)
	if n != 1 {
		t.Errorf("Expected 1 entry, got %d", n)
	}
}

//go:build !js && !wasm
// +build !js,!wasm

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MarciaSuzuki/Tripod/pkg/models"
	"github.com/glebarez/sqlite"
	"golang.org/x/text/cases"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const DefaultDBFile = "tripod.sqlite3"
const errDBClientNil = "db client is nil"

type DBClient struct {
	DB *gorm.DB
	db *sql.DB
}

// EntryRecord is one row of the entries table. The indexed columns mirror
// fields of the JSON payload, which stays the source of truth.
type EntryRecord struct {
	ID           string `gorm:"primaryKey;type:varchar(64)"`
	LanguageName string `gorm:"index:idx_entry_language,priority:1"`
	LanguageCode string `gorm:"index:idx_entry_language,priority:2"`
	Genre        string `gorm:"index:idx_entry_genre"`
	Speaker      string
	Collector    string
	HasAudio     bool
	Payload      datatypes.JSONType[models.Entry]
	CreatedAt    time.Time `gorm:"index:idx_entry_created"`
	UpdatedAt    time.Time
}

func (EntryRecord) TableName() string { return "entries" }

// AudioRecord holds the single audio blob of an entry.
type AudioRecord struct {
	EntryID   string `gorm:"primaryKey;type:varchar(64)"`
	MimeType  string
	Size      int64
	Data      []byte
	UpdatedAt time.Time
}

func (AudioRecord) TableName() string { return "audio_blobs" }

func NewDBClient() (*DBClient, error) {
	dbPath := os.Getenv("TRIPOD_DB_PATH")
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	return NewDBClientWithPath(dbPath)
}

func NewDBClientWithPath(dbPath string) (*DBClient, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	// SQLite has a single writer.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&EntryRecord{}, &AudioRecord{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &DBClient{DB: db, db: sqlDB}, nil
}

func (c *DBClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *DBClient) ready() error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	return nil
}

func newEntryRecord(e models.Entry) EntryRecord {
	return EntryRecord{
		ID:           e.ID,
		LanguageName: e.Language.Name,
		LanguageCode: e.Language.Code,
		Genre:        e.Genre,
		Speaker:      e.Speaker,
		Collector:    e.Collector,
		HasAudio:     e.Audio.Present,
		Payload:      datatypes.NewJSONType(e),
		CreatedAt:    e.CreatedAt,
	}
}

// Put upserts the entry and, when audio is non-nil, its audio blob in one
// transaction. Audio metadata on the stored entry follows the blob: a new
// blob overwrites it, and a metadata-only put keeps the existing blob and
// its metadata. The creation time of an already stored entry never changes;
// a new entry with a zero CreatedAt gets the current time.
func (c *DBClient) Put(ctx context.Context, entry models.Entry, audio *models.AudioBlob) error {
	if err := c.ready(); err != nil {
		return err
	}
	if entry.ID == "" {
		return errors.New("put entry: empty id")
	}

	err := c.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := keepCreatedAt(tx, &entry); err != nil {
			return err
		}

		if audio != nil {
			entry.Audio.Present = true
			entry.Audio.MimeType = audio.MimeType
			entry.Audio.Size = audio.Size()

			blob := AudioRecord{
				EntryID:  entry.ID,
				MimeType: audio.MimeType,
				Size:     audio.Size(),
				Data:     audio.Data,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "entry_id"}},
				UpdateAll: true,
			}).Create(&blob).Error; err != nil {
				return fmt.Errorf("upserting audio: %w", err)
			}
		} else if err := keepAudioInfo(tx, &entry); err != nil {
			return err
		}

		rec := newEntryRecord(entry)
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(&rec).Error; err != nil {
			return fmt.Errorf("upserting entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("put entry %s: %w", entry.ID, err)
	}
	return nil
}

// keepCreatedAt gives entry the creation time it was first stored with.
func keepCreatedAt(tx *gorm.DB, entry *models.Entry) error {
	var prev EntryRecord
	err := tx.Select("id", "payload").Where("id = ?", entry.ID).Take(&prev).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = time.Now().UTC()
		}
		return nil
	case err != nil:
		return fmt.Errorf("querying existing entry: %w", err)
	}
	entry.CreatedAt = prev.Payload.Data().CreatedAt
	return nil
}

// keepAudioInfo copies the metadata of an already stored blob onto entry.
func keepAudioInfo(tx *gorm.DB, entry *models.Entry) error {
	var blob AudioRecord
	err := tx.Select("entry_id", "mime_type", "size").
		Where("entry_id = ?", entry.ID).
		Take(&blob).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		entry.Audio = models.AudioInfo{}
		return nil
	}
	if err != nil {
		return fmt.Errorf("querying existing audio: %w", err)
	}

	duration := entry.Audio.DurationSec
	if duration == nil {
		var prev EntryRecord
		err := tx.Where("id = ?", entry.ID).Take(&prev).Error
		if err == nil {
			duration = prev.Payload.Data().Audio.DurationSec
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("querying existing entry: %w", err)
		}
	}

	entry.Audio = models.AudioInfo{
		Present:     true,
		MimeType:    blob.MimeType,
		Size:        blob.Size,
		DurationSec: duration,
	}
	return nil
}

// Get returns the entry and its audio blob. Either is nil when absent; an
// unknown id is not an error.
func (c *DBClient) Get(ctx context.Context, id string) (*models.Entry, *models.AudioBlob, error) {
	if err := c.ready(); err != nil {
		return nil, nil, err
	}
	db := c.DB.WithContext(ctx)

	var entry *models.Entry
	var rec EntryRecord
	err := db.Where("id = ?", id).Take(&rec).Error
	switch {
	case err == nil:
		e := rec.Payload.Data()
		entry = &e
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil, fmt.Errorf("get entry %s: %w", id, err)
	}

	var audio *models.AudioBlob
	var blob AudioRecord
	err = db.Where("entry_id = ?", id).Take(&blob).Error
	switch {
	case err == nil:
		audio = &models.AudioBlob{MimeType: blob.MimeType, Data: blob.Data}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil, fmt.Errorf("get audio %s: %w", id, err)
	}

	return entry, audio, nil
}

// List returns every entry ordered by creation time. Audio is not loaded.
func (c *DBClient) List(ctx context.Context) ([]models.Entry, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	var rows []EntryRecord
	if err := c.DB.WithContext(ctx).Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	out := make([]models.Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Payload.Data())
	}
	return out, nil
}

// Search returns the entries where any searchable field contains query,
// compared under Unicode case folding. A blank query returns List.
func (c *DBClient) Search(ctx context.Context, query string) ([]models.Entry, error) {
	all, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return all, nil
	}

	fold := cases.Fold()
	needle := fold.String(query)
	out := make([]models.Entry, 0)
	for _, e := range all {
		for _, field := range searchFields(e) {
			if field != "" && strings.Contains(fold.String(field), needle) {
				out = append(out, e)
				break
			}
		}
	}
	return out, nil
}

func searchFields(e models.Entry) []string {
	return []string{
		e.ID,
		e.Language.Name,
		e.Language.Code,
		e.Language.Dialect,
		e.Speaker,
		e.Collector,
		e.Genre,
		e.Register,
		e.Style,
		e.Transcript.Plain,
	}
}

// Delete removes the entry and its audio in one transaction.
func (c *DBClient) Delete(ctx context.Context, id string) error {
	if err := c.ready(); err != nil {
		return err
	}
	err := c.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("entry_id = ?", id).Delete(&AudioRecord{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&EntryRecord{}).Error
	})
	if err != nil {
		return fmt.Errorf("delete entry %s: %w", id, err)
	}
	return nil
}

// DeleteAudio removes the audio blob of id and clears the entry's audio
// metadata.
func (c *DBClient) DeleteAudio(ctx context.Context, id string) error {
	if err := c.ready(); err != nil {
		return err
	}
	err := c.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("entry_id = ?", id).Delete(&AudioRecord{}).Error; err != nil {
			return err
		}

		var rec EntryRecord
		err := tx.Where("id = ?", id).Take(&rec).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		e := rec.Payload.Data()
		e.Audio = models.AudioInfo{}
		return tx.Model(&EntryRecord{}).Where("id = ?", id).Updates(map[string]any{
			"has_audio": false,
			"payload":   datatypes.NewJSONType(e),
		}).Error
	})
	if err != nil {
		return fmt.Errorf("delete audio %s: %w", id, err)
	}
	return nil
}

func (c *DBClient) Count(ctx context.Context) (int64, error) {
	if err := c.ready(); err != nil {
		return 0, err
	}
	var n int64
	if err := c.DB.WithContext(ctx).Model(&EntryRecord{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

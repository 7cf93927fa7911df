package tripod

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MarciaSuzuki/Tripod/pkg/logger"
	"github.com/MarciaSuzuki/Tripod/pkg/models"
	"github.com/MarciaSuzuki/Tripod/pkg/tripod/audio"
	"github.com/MarciaSuzuki/Tripod/pkg/tripod/catalog"
	"github.com/MarciaSuzuki/Tripod/pkg/tripod/exchange"
	"github.com/MarciaSuzuki/Tripod/pkg/tripod/progress"
	"github.com/MarciaSuzuki/Tripod/pkg/tripod/qc"
	"github.com/MarciaSuzuki/Tripod/pkg/tripod/transcript"
	"github.com/MarciaSuzuki/Tripod/pkg/utils"
)

// tripodService is the default implementation of the Service interface.
type tripodService struct {
	storage Storage
	catalog *catalog.Catalog
	log     Logger
	config  *Config
}

func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}

	cat := cfg.Catalog
	if cat == nil && cfg.CatalogPath != "" {
		var err error
		cat, err = catalog.LoadFile(cfg.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
		cfg.Logger.Infof("Loaded catalog %s (%d markers)", cfg.CatalogPath, len(cat.Markers()))
	}
	if cat == nil {
		cat = catalog.Default()
	}

	stor := cfg.Storage
	if stor == nil {
		var err error
		stor, err = NewSQLiteStorage(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage: %w", err)
		}
		cfg.Logger.Debugf("Opened entry store %s", cfg.DBPath)
	}

	return &tripodService{
		storage: stor,
		catalog: cat,
		log:     cfg.Logger,
		config:  cfg,
	}, nil
}

// NewEntry returns a blank entry with a fresh identifier.
func (s *tripodService) NewEntry() models.Entry {
	return models.Entry{
		ID:        utils.NewEntryID(s.config.EntryPrefix),
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

// parseTranscript builds the abstract tree of an entry's transcript. The
// rich markup wins; a plain-only transcript is read as inline markup.
func parseTranscript(t models.TranscriptText) (*transcript.Node, error) {
	if strings.TrimSpace(t.Rich) != "" {
		return transcript.ParseHTMLString(t.Rich)
	}
	plain := strings.ReplaceAll(t.Plain, "\r\n", "\n")
	return transcript.ParseInlineMarkup(plain), nil
}

// SaveEntry derives the plain transcript and the markers used from the
// transcript, measures WAV audio and stores the entry. Audio that cannot be
// measured keeps the duration already on the entry. A nil audio keeps any
// audio already stored for the entry. blob itself is not modified.
func (s *tripodService) SaveEntry(ctx context.Context, entry models.Entry, blob *models.AudioBlob) (*models.Entry, error) {
	entry.ID = strings.TrimSpace(entry.ID)
	if entry.ID == "" {
		entry.ID = utils.NewEntryID(s.config.EntryPrefix)
		s.log.Debugf("Assigned id %s to unsaved entry", entry.ID)
	}

	root, err := parseTranscript(entry.Transcript)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}
	doc := transcript.NewDocument(root)
	if strings.TrimSpace(entry.Transcript.Rich) == "" && len(doc.Spans) > 0 {
		rich, err := transcript.RenderHTML(root)
		if err != nil {
			return nil, fmt.Errorf("failed to render transcript: %w", err)
		}
		entry.Transcript.Rich = rich
	}
	entry.Transcript.Plain = doc.Text
	entry.MarkersUsed = transcript.MarkerIDs(doc.Spans)
	if len(entry.MarkersUsed) == 0 {
		entry.MarkersUsed = nil
	}

	if unknown := s.catalog.UnknownMarkers(entry.MarkersUsed); len(unknown) > 0 {
		s.log.Warnf("Entry %s uses markers missing from the catalog: %s", entry.ID, strings.Join(unknown, ", "))
	}

	if blob != nil {
		b := *blob
		if b.MimeType == "" {
			b.MimeType = audio.DetectMIME(b.Data)
		}
		// Only WAV can be measured here; other containers keep the
		// duration the recorder reported.
		if d := audio.Probe(b.Data, b.MimeType); d != nil {
			entry.Audio.DurationSec = d
		}
		blob = &b
	}

	if err := s.storage.Put(ctx, entry, blob); err != nil {
		return nil, fmt.Errorf("failed to save entry: %w", err)
	}

	saved, _, err := s.storage.Get(ctx, entry.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload entry: %w", err)
	}
	if saved == nil {
		return nil, fmt.Errorf("%w: %s vanished after save", ErrEntryNotFound, entry.ID)
	}
	s.log.Infof("Saved entry %s (%d markers, audio=%t)", saved.ID, len(saved.MarkersUsed), saved.Audio.Present)
	return saved, nil
}

func (s *tripodService) LoadEntry(ctx context.Context, id string) (*models.Entry, *models.AudioBlob, error) {
	entry, blob, err := s.storage.Get(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load entry: %w", err)
	}
	if entry == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	return entry, blob, nil
}

func (s *tripodService) ListEntries(ctx context.Context) ([]models.Entry, error) {
	return s.storage.List(ctx)
}

func (s *tripodService) SearchEntries(ctx context.Context, query string) ([]models.Entry, error) {
	return s.storage.Search(ctx, query)
}

func (s *tripodService) DeleteEntry(ctx context.Context, id string) error {
	if err := s.storage.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	s.log.Infof("Deleted entry %s", id)
	return nil
}

func (s *tripodService) RemoveAudio(ctx context.Context, id string) error {
	if err := s.storage.DeleteAudio(ctx, id); err != nil {
		return fmt.Errorf("failed to remove audio: %w", err)
	}
	return nil
}

// ExportCSV renders the entry's tagged sentences with its notes on every
// row.
func (s *tripodService) ExportCSV(entry models.Entry) (string, error) {
	root, err := parseTranscript(entry.Transcript)
	if err != nil {
		return "", fmt.Errorf("failed to read transcript: %w", err)
	}
	doc := transcript.NewDocument(root)

	if unknown := s.catalog.UnknownMarkers(transcript.MarkerIDs(doc.Spans)); len(unknown) > 0 {
		s.log.Warnf("Exporting unknown markers for %s: %s", entry.ID, strings.Join(unknown, ", "))
	}

	out := doc.CSV(entry.Notes)
	if out == "" {
		return "", ErrNothingToExport
	}
	return out, nil
}

func (s *tripodService) CSVFileName(entry models.Entry) string {
	if id := strings.TrimSpace(entry.ID); id != "" {
		return id + ".csv"
	}
	return "transcript.csv"
}

func (s *tripodService) ExportPackage(ctx context.Context, id string) (*PackageExport, error) {
	entry, blob, err := s.LoadEntry(ctx, id)
	if err != nil {
		return nil, err
	}

	data, embedded, err := exchange.Export(*entry, blob, s.config.AudioExportLimit)
	if err != nil {
		return nil, err
	}
	if blob != nil && !embedded {
		s.log.Warnf("Audio of %s is %d bytes, over the %d byte export limit; exported metadata only",
			id, blob.Size(), s.config.AudioExportLimit)
	}

	return &PackageExport{
		FileName:      exchange.FileName(entry.ID),
		Data:          data,
		AudioEmbedded: embedded,
	}, nil
}

// ImportPackage decodes a JSON package and saves its entry and audio.
func (s *tripodService) ImportPackage(ctx context.Context, data []byte) (*models.Entry, error) {
	entry, blob, err := exchange.Import(data)
	if err != nil {
		return nil, err
	}
	s.log.Debugf("Importing entry %s (audio=%t)", entry.ID, blob != nil)
	return s.SaveEntry(ctx, *entry, blob)
}

func (s *tripodService) CheckEntry(entry models.Entry) qc.Report {
	return qc.Check(entry, s.catalog)
}

// ApplyProfile records profileID on entry. In note mode the profile is also
// announced at the top of the rich transcript.
func (s *tripodService) ApplyProfile(entry *models.Entry, profileID string) error {
	p, ok := s.catalog.Profile(profileID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProfile, profileID)
	}
	entry.ProfileID = p.ID

	if s.config.ProfileMode != ProfileNote {
		return nil
	}

	rich := entry.Transcript.Rich
	if strings.TrimSpace(rich) == "" && entry.Transcript.Plain != "" {
		r, err := transcript.RenderHTML(transcript.ParseInlineMarkup(strings.ReplaceAll(entry.Transcript.Plain, "\r\n", "\n")))
		if err != nil {
			return fmt.Errorf("failed to render transcript: %w", err)
		}
		rich = r
	}
	desc := p.Description + " {" + strings.Join(p.Markers, ", ") + "}"
	noted, err := transcript.WithProfileNote(rich, p.ID, desc)
	if err != nil {
		return fmt.Errorf("failed to insert profile note: %w", err)
	}
	entry.Transcript.Rich = noted
	return nil
}

func (s *tripodService) Progress(ctx context.Context) (progress.Summary, error) {
	entries, err := s.storage.List(ctx)
	if err != nil {
		return progress.Summary{}, fmt.Errorf("failed to list entries: %w", err)
	}
	return progress.FromEntries(entries, s.config.GoalHours).Summary(), nil
}

func (s *tripodService) Catalog() *catalog.Catalog {
	return s.catalog
}

func (s *tripodService) Close() error {
	return s.storage.Close()
}

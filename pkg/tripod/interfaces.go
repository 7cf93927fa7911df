package tripod

import (
	"context"

	"github.com/MarciaSuzuki/Tripod/pkg/models"
	"github.com/MarciaSuzuki/Tripod/pkg/tripod/catalog"
	"github.com/MarciaSuzuki/Tripod/pkg/tripod/progress"
	"github.com/MarciaSuzuki/Tripod/pkg/tripod/qc"
)

type Service interface {
	NewEntry() models.Entry
	SaveEntry(ctx context.Context, entry models.Entry, audio *models.AudioBlob) (*models.Entry, error)
	LoadEntry(ctx context.Context, id string) (*models.Entry, *models.AudioBlob, error)
	ListEntries(ctx context.Context) ([]models.Entry, error)
	SearchEntries(ctx context.Context, query string) ([]models.Entry, error)
	DeleteEntry(ctx context.Context, id string) error
	RemoveAudio(ctx context.Context, id string) error
	ExportCSV(entry models.Entry) (string, error)
	CSVFileName(entry models.Entry) string
	ExportPackage(ctx context.Context, id string) (*PackageExport, error)
	ImportPackage(ctx context.Context, data []byte) (*models.Entry, error)
	CheckEntry(entry models.Entry) qc.Report
	ApplyProfile(entry *models.Entry, profileID string) error
	Progress(ctx context.Context) (progress.Summary, error)
	Catalog() *catalog.Catalog
	Close() error
}

type Storage interface {
	Put(ctx context.Context, entry models.Entry, audio *models.AudioBlob) error
	Get(ctx context.Context, id string) (*models.Entry, *models.AudioBlob, error)
	List(ctx context.Context) ([]models.Entry, error)
	Search(ctx context.Context, query string) ([]models.Entry, error)
	Delete(ctx context.Context, id string) error
	DeleteAudio(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	Close() error
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}

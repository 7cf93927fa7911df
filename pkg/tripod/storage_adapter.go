//go:build !js && !wasm
// +build !js,!wasm

package tripod

import (
	"github.com/MarciaSuzuki/Tripod/pkg/tripod/storage"
)

// NewSQLiteStorage opens the SQLite entry store at dbPath.
func NewSQLiteStorage(dbPath string) (Storage, error) {
	db, err := storage.NewDBClientWithPath(dbPath)
	if err != nil {
		return nil, err
	}
	return db, nil
}

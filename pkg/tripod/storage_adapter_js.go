//go:build js || wasm
// +build js wasm

package tripod

import "errors"

// NewSQLiteStorage is unavailable in the browser build; pass WithStorage.
func NewSQLiteStorage(dbPath string) (Storage, error) {
	return nil, errors.New("sqlite storage is not available in js/wasm builds")
}

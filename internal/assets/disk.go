// Package assets stores uploaded prescription scans on local disk and
// hands back URLs under a configurable base path.
package assets

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/theatashaikh/locomeds/internal/checkout"
)

type DiskStore struct {
	dir     string
	baseURL string
}

func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, "prescriptions"), 0o755); err != nil {
		return nil, fmt.Errorf("create assets dir: %w", err)
	}
	return &DiskStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *DiskStore) UploadPrescription(_ context.Context, f checkout.PrescriptionFile) (string, error) {
	// The stored name is server-generated; only the extension survives
	// from the upload, so a hostile filename cannot escape the directory.
	ext := filepath.Ext(f.Name)
	name := uuid.NewString() + ext

	if err := os.WriteFile(filepath.Join(s.dir, "prescriptions", name), f.Content, 0o644); err != nil {
		return "", fmt.Errorf("write prescription file: %w", err)
	}
	return s.baseURL + "/" + path.Join("prescriptions", name), nil
}

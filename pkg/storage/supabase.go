// Package storage adapts Supabase object storage as the clip blob store.
// Clips for one session live under {bucket}/{storageNamespace}/{filename}.
package storage

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	storage_go "github.com/supabase-community/storage-go"
	supabase "github.com/supabase-community/supabase-go"
)

// SupabaseConfig holds what is needed to reach the storage API.
type SupabaseConfig struct {
	// ProjectURL is the Supabase project URL, e.g. "https://[ref].supabase.co".
	ProjectURL string

	// ServiceKey is the service-role API key; uploads need write access.
	ServiceKey string

	// Bucket is the bucket all clips are stored in.
	Bucket string
}

// SupabaseStore uploads clips and namespace markers to one bucket.
type SupabaseStore struct {
	storage *storage_go.Client
	bucket  string
}

// NewSupabaseStore constructs a store backed by the Supabase SDK.
func NewSupabaseStore(cfg SupabaseConfig) (*SupabaseStore, error) {
	if cfg.ProjectURL == "" || cfg.ServiceKey == "" {
		return nil, fmt.Errorf("supabase URL and service key are required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("supabase bucket is required")
	}

	client, err := supabase.NewClient(cfg.ProjectURL, cfg.ServiceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("initialize supabase SDK: %w", err)
	}

	return &SupabaseStore{
		storage: client.Storage,
		bucket:  cfg.Bucket,
	}, nil
}

// EnsureNamespace pre-creates the per-record folder by writing an empty
// marker object under it. Object stores have no real directories, so the
// marker is what makes the namespace visible before any clip lands.
// Calling it again for the same namespace is a no-op.
func (s *SupabaseStore) EnsureNamespace(namespace string) error {
	marker := namespace + "/.keep"
	upsert := true
	contentType := "text/plain"

	_, err := s.storage.UploadFile(s.bucket, marker, bytes.NewReader(nil), storage_go.FileOptions{
		Upsert:      &upsert,
		ContentType: &contentType,
	})
	if err != nil {
		if isAlreadyExists(err) {
			return nil
		}
		return fmt.Errorf("create namespace marker %s: %w", marker, err)
	}
	return nil
}

// Upload stores the file at localPath under the given object key.
func (s *SupabaseStore) Upload(localPath, objectKey string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	contentType := "video/mp4"
	_, err = s.storage.UploadFile(s.bucket, objectKey, f, storage_go.FileOptions{
		ContentType: &contentType,
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", objectKey, err)
	}
	return nil
}

func isAlreadyExists(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "duplicate")
}

package blob

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	storage "github.com/supabase-community/storage-go"
)

// Supabase stores objects in one bucket of a Supabase project.
type Supabase struct {
	bucket string
	client *storage.Client
}

func NewSupabase(projectURL, apiKey, bucket string) *Supabase {
	endpoint := strings.TrimRight(projectURL, "/") + "/storage/v1"
	return &Supabase{
		bucket: bucket,
		client: storage.NewClient(endpoint, apiKey, map[string]string{"apikey": apiKey}),
	}
}

func (s *Supabase) Upload(ctx context.Context, p string, data []byte, contentType string, upsert bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.client.UploadFile(s.bucket, cleanPath(p), bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err == nil {
		return nil
	}
	if !upsert && isDuplicate(err) {
		return ErrObjectExists
	}
	return fmt.Errorf("failed to upload %s: %w", p, err)
}

// storage reports an existing object either as 409 or as a 400 naming the
// Duplicate error, depending on the server version
func isDuplicate(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "already exists") ||
		strings.Contains(msg, "409")
}

func (s *Supabase) PublicURL(p string) string {
	return s.client.GetPublicUrl(s.bucket, cleanPath(p)).SignedURL
}

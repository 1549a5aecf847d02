package blob

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

// OSS stores objects in an Aliyun OSS bucket.
type OSS struct {
	bucket     *oss.Bucket
	endpoint   string
	bucketName string
	publicBase string
}

func NewOSS(endpoint, accessKeyID, accessKeySecret, bucketName, publicBase string) (*OSS, error) {
	client, err := oss.New(endpoint, accessKeyID, accessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("oss.New: %w", err)
	}

	bucket, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("client.Bucket: %w", err)
	}

	return &OSS{
		bucket:     bucket,
		endpoint:   endpoint,
		bucketName: bucketName,
		publicBase: publicBase,
	}, nil
}

func (o *OSS) Upload(ctx context.Context, p string, data []byte, contentType string, upsert bool) error {
	opts := []oss.Option{
		oss.WithContext(ctx),
		oss.ContentType(contentType),
	}
	if !upsert {
		opts = append(opts, oss.ForbidOverWrite(true))
	}

	err := o.bucket.PutObject(cleanPath(p), bytes.NewReader(data), opts...)
	if err != nil && !upsert && isAlreadyExists(err) {
		return ErrObjectExists
	}
	if err != nil {
		return fmt.Errorf("failed to put %s: %w", p, err)
	}
	return nil
}

func isAlreadyExists(err error) bool {
	if e, ok := err.(oss.ServiceError); ok {
		return e.StatusCode == 409 || e.Code == "FileAlreadyExists"
	}
	return false
}

func (o *OSS) PublicURL(p string) string {
	if o.publicBase != "" {
		return joinURL(o.publicBase, p)
	}
	end := strings.TrimPrefix(o.endpoint, "https://")
	end = strings.TrimPrefix(end, "http://")
	return fmt.Sprintf("https://%s.%s/%s", o.bucketName, end, cleanPath(p))
}

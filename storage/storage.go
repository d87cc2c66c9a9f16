// Package storage stores uploaded product images on local disk or in S3.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const MaxImageSize = 5 * 1024 * 1024

var (
	ErrNotAnImage = errors.New("only jpeg, jpg, png and gif images are accepted")
	ErrTooLarge   = errors.New("image exceeds the 5MB limit")

	imageTypes = regexp.MustCompile(`jpeg|jpg|png|gif`)
)

// Uploader stores an object and returns the URL it is served from.
type Uploader interface {
	Upload(ctx context.Context, name, contentType string, body io.Reader) (string, error)
}

// ValidateImage accepts jpeg, png and gif files up to MaxImageSize. Both the
// extension and the declared content type must look like an image.
func ValidateImage(file *multipart.FileHeader) error {
	if file.Size > MaxImageSize {
		return ErrTooLarge
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	contentType := strings.ToLower(file.Header.Get("Content-Type"))
	if !imageTypes.MatchString(ext) || !imageTypes.MatchString(contentType) {
		return ErrNotAnImage
	}
	return nil
}

// UniqueName keeps the original extension under a fresh random name.
func UniqueName(filename string) string {
	return uuid.NewString() + strings.ToLower(filepath.Ext(filename))
}

type LocalUploader struct {
	dir       string
	urlPrefix string
}

func NewLocalUploader(dir, urlPrefix string) (*LocalUploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalUploader{dir: dir, urlPrefix: urlPrefix}, nil
}

func (u *LocalUploader) Upload(ctx context.Context, name, _ string, body io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dst, err := os.Create(filepath.Join(u.dir, filepath.Base(name)))
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, body); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return path.Join(u.urlPrefix, filepath.Base(name)), nil
}

type S3Uploader struct {
	bucket   string
	uploader *manager.Uploader
}

// NewS3Uploader loads AWS credentials and region from the default chain.
func NewS3Uploader(ctx context.Context, bucket string) (*S3Uploader, error) {
	if bucket == "" {
		return nil, errors.New("S3_BUCKET is required for the s3 upload backend")
	}
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return &S3Uploader{bucket: bucket, uploader: manager.NewUploader(client)}, nil
}

func (u *S3Uploader) Upload(ctx context.Context, name, contentType string, body io.Reader) (string, error) {
	result, err := u.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String("products/" + name),
		Body:        body,
		ACL:         "public-read",
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to s3: %w", err)
	}
	return result.Location, nil
}

// Package storage moves finalized claim artifacts to durable S3 storage.
// Keys are deterministic per claim so a retried upload overwrites instead of
// duplicating. Retry policy belongs to the caller; failures surface as plain
// errors.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"

	"claim-intake-go/internal/config"
)

// Uploader archives claim artifacts and returns addressable URLs.
type Uploader interface {
	// UploadContent stores the mail body for a claim.
	UploadContent(ctx context.Context, userMail, claimID, content string) (string, error)
	// UploadAttachment stores one local attachment file for a claim.
	UploadAttachment(ctx context.Context, userMail, claimID, path string) (string, error)
}

// S3Uploader implements Uploader against AWS S3.
type S3Uploader struct {
	client  *s3.Client
	presign *s3.PresignClient
	cfg     *config.StorageConfig
}

// NewS3Uploader creates an uploader using the default AWS credential chain.
func NewS3Uploader(ctx context.Context, cfg *config.StorageConfig) (*S3Uploader, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)
	return &S3Uploader{
		client:  client,
		presign: s3.NewPresignClient(client),
		cfg:     cfg,
	}, nil
}

// ContentKey returns the deterministic key for a claim's mail body.
func ContentKey(prefix, userMail, claimID string) string {
	return fmt.Sprintf("%s/%s/claims/%s/mail_content.txt", prefix, userMail, claimID)
}

// AttachmentKey returns the deterministic key for one claim attachment.
func AttachmentKey(prefix, userMail, claimID, filename string) string {
	return fmt.Sprintf("%s/%s/claims/%s/attachments/%s", prefix, userMail, claimID, filepath.Base(filename))
}

// UploadContent stores the mail body and returns a presigned URL for it.
func (u *S3Uploader) UploadContent(ctx context.Context, userMail, claimID, content string) (string, error) {
	key := ContentKey(u.cfg.Prefix, userMail, claimID)

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.cfg.Bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(content),
		ContentType: aws.String("text/plain"),
		Metadata: map[string]string{
			"claim_id":   claimID,
			"user_email": userMail,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload mail content for %s: %w", claimID, err)
	}

	return u.presignGet(ctx, key)
}

// UploadAttachment stores a local attachment file and returns a presigned
// URL for it.
func (u *S3Uploader) UploadAttachment(ctx context.Context, userMail, claimID, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read attachment %s: %w", path, err)
	}

	filename := filepath.Base(path)
	key := AttachmentKey(u.cfg.Prefix, userMail, claimID, filename)

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentTypeFor(filename)),
		Metadata: map[string]string{
			"claim_id":          claimID,
			"user_email":        userMail,
			"original_filename": filename,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload attachment %s for %s: %w", filename, claimID, err)
	}

	logrus.Infof("Uploaded attachment %s for claim %s (%d bytes)", filename, claimID, len(data))
	return u.presignGet(ctx, key)
}

func (u *S3Uploader) presignGet(ctx context.Context, key string) (string, error) {
	req, err := u.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(u.cfg.Bucket),
		Key:    aws.String(key),
	}, func(o *s3.PresignOptions) {
		o.Expires = u.cfg.URLExpiry
	})
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return req.URL, nil
}

var contentTypes = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".txt":  "text/plain",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

func contentTypeFor(filename string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}

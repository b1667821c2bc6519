package mail

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/yamdb/internal/server/config"
	"github.com/google/uuid"
)

// objectPutter is the subset of *s3.Client used here.
type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Seams for tests.
var (
	loadDefaultAWSConfig  = awsconfig.LoadDefaultConfig
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectPutter {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// S3Sender drops every message as an .eml object into a bucket, where a
// separate relay or a developer can pick it up.
type S3Sender struct {
	client objectPutter
	bucket string
	prefix string
	now    func() time.Time
}

// NewS3Sender builds an S3 client for an S3-compatible endpoint (MinIO in
// development) with static credentials.
func NewS3Sender(ctx context.Context, cfg *config.Config) (*S3Sender, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,
			cfg.S3RootPassword,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
		}
		o.UsePathStyle = true
	})

	return &S3Sender{client: client, bucket: cfg.S3Bucket, prefix: "outbox", now: time.Now}, nil
}

func (s *S3Sender) Send(ctx context.Context, msg Message) error {
	body, err := render(msg)
	if err != nil {
		return fmt.Errorf("render message: %w", err)
	}

	key := path.Join(s.prefix, s.now().UTC().Format("2006/01/02"), uuid.NewString()+".eml")
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("message/rfc822"),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *S3Sender) Name() string { return BackendS3 }

package s3archive

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	appconfig "oiroc/config"
	"oiroc/internal/history"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

const uploadTimeout = 2 * time.Minute

// PutObjectAPI is the slice of the S3 client the archive needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archive uploads each finished daily CSV to a bucket. It only acts on
// rollover and shutdown; per-persist flushes are no-ops.
type Archive struct {
	client PutObjectAPI
	bucket string
	prefix string
	chain  string
	runID  string
	logger *zap.Logger
}

var _ history.Sink = (*Archive)(nil)
var _ history.Archiver = (*Archive)(nil)

// New builds an S3 client from cfg. Static keys are used when both are set,
// otherwise the default AWS credential chain applies.
func New(ctx context.Context, cfg appconfig.S3Config, chain, runID string, logger *zap.Logger) (*Archive, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is not configured")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})

	return NewWithClient(client, cfg.Bucket, cfg.Prefix, chain, runID, logger), nil
}

func NewWithClient(client PutObjectAPI, bucket, prefix, chain, runID string, logger *zap.Logger) *Archive {
	return &Archive{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		chain:  chain,
		runID:  runID,
		logger: logger,
	}
}

func (a *Archive) Name() string { return "s3" }

func (a *Archive) Flush(context.Context, string, []history.Row) error { return nil }

// Key returns the object key for a daily file.
func (a *Archive) Key(date, file string) string {
	parts := []string{
		fmt.Sprintf("chain=%s", strings.ToUpper(a.chain)),
		fmt.Sprintf("date=%s", date),
		filepath.Base(file),
	}
	if a.prefix != "" {
		parts = append([]string{a.prefix}, parts...)
	}
	return path.Join(parts...)
}

// Archive uploads the file at localPath. A missing file means nothing was
// ever persisted for the day and is not an error.
func (a *Archive) Archive(ctx context.Context, date, localPath string) error {
	data, err := os.ReadFile(localPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", localPath, err)
	}

	key := a.Key(date, localPath)
	input := &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("text/csv"),
		Metadata: map[string]string{
			"chain":  a.chain,
			"run-id": a.runID,
		},
	}

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()
	if _, err := a.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}

	a.logger.Info("archived history", zap.String("bucket", a.bucket), zap.String("key", key), zap.Int("bytes", len(data)))
	return nil
}

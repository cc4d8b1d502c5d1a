package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/liyanghua/xhs-video-tool/internal/config"
	"github.com/liyanghua/xhs-video-tool/internal/logging"
	"github.com/liyanghua/xhs-video-tool/internal/services"
)

const Stage = "publish"

// ObjectPutter is the slice of the S3 client the publisher needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Publisher uploads artifacts under a key prefix.
type Publisher struct {
	client ObjectPutter
	bucket string
	prefix string
	logger *slog.Logger
}

// Option customizes a Publisher.
type Option func(*Publisher)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New wraps an existing client.
func New(client ObjectPutter, bucket, prefix string, opts ...Option) *Publisher {
	p := &Publisher{
		client: client,
		bucket: strings.TrimSpace(bucket),
		prefix: strings.Trim(strings.TrimSpace(prefix), "/"),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.NewComponentLogger(p.logger, "publish")
	return p
}

// NewS3 builds a Publisher from the default AWS configuration chain with the
// region, profile and addressing overrides from cfg.
func NewS3(ctx context.Context, cfg config.Publish, opts ...Option) (*Publisher, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, Stage, "load aws config", "", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})
	return New(client, cfg.Bucket, cfg.Prefix, opts...), nil
}

// Result describes an uploaded object.
type Result struct {
	Bucket string
	Key    string
	Size   int64
}

// URI renders the object location as s3://bucket/key.
func (r Result) URI() string {
	return "s3://" + r.Bucket + "/" + r.Key
}

// ObjectKey joins the prefix, a run folder and the file name.
func (p *Publisher) ObjectKey(runFolder, localPath string) string {
	return path.Join(p.prefix, runFolder, filepath.Base(localPath))
}

// Publish uploads localPath under the run folder.
func (p *Publisher) Publish(ctx context.Context, localPath, runFolder string) (Result, error) {
	if p.client == nil || p.bucket == "" {
		return Result{}, services.Wrap(services.ErrConfiguration, Stage, "publish", "bucket and client are required", nil)
	}
	f, err := os.Open(localPath)
	if err != nil {
		return Result{}, services.Wrap(services.ErrAsset, Stage, "open artifact", localPath, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return Result{}, services.Wrap(services.ErrAsset, Stage, "stat artifact", localPath, err)
	}

	key := p.ObjectKey(runFolder, localPath)
	started := time.Now()
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String(contentType(localPath)),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", services.ErrTimeout, err)
		}
		return Result{}, services.Wrap(services.ErrExternalTool, Stage, "put object", key, err)
	}
	result := Result{Bucket: p.bucket, Key: key, Size: info.Size()}
	logging.WithContext(ctx, p.logger).Info("artifact published",
		logging.String(logging.FieldEventType, "publish_complete"),
		logging.String("object_uri", result.URI()),
		logging.Int64("object_bytes", result.Size),
		logging.Duration("upload_elapsed", time.Since(started)),
	)
	return result, nil
}

func contentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp4":
		return "video/mp4"
	case ".log", ".txt":
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

package prediction

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// Source fetches raw artifact bytes
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
	Format() Format
	String() string
}

// FileSource reads an artifact from the local filesystem
type FileSource struct {
	Path string
}

// Fetch reads the file
func (s FileSource) Fetch(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model artifact %s: %w", s.Path, err)
	}
	return data, nil
}

// Format returns the encoding implied by the file extension
func (s FileSource) Format() Format {
	return FormatFromPath(s.Path)
}

func (s FileSource) String() string {
	return s.Path
}

// S3Config holds connection settings for an S3-compatible object store (AWS, R2, MinIO)
type S3Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// objectDownloader is the subset of manager.Downloader used by S3Source
type objectDownloader interface {
	Download(ctx context.Context, w io.WriterAt, input *s3.GetObjectInput, options ...func(*manager.Downloader)) (int64, error)
}

// S3Source downloads an artifact from an object store
type S3Source struct {
	Bucket     string
	Key        string
	downloader objectDownloader
}

// NewS3Source creates a source for s3://bucket/key using the given downloader
func NewS3Source(bucket, key string, downloader objectDownloader) *S3Source {
	return &S3Source{Bucket: bucket, Key: key, downloader: downloader}
}

// Fetch downloads the object into memory
func (s *S3Source) Fetch(ctx context.Context) ([]byte, error) {
	buf := manager.NewWriteAtBuffer([]byte{})
	_, err := s.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download model artifact %s: %w", s, err)
	}
	return buf.Bytes(), nil
}

// Format returns the encoding implied by the object key
func (s *S3Source) Format() Format {
	return FormatFromPath(s.Key)
}

func (s *S3Source) String() string {
	return "s3://" + s.Bucket + "/" + s.Key
}

// NewS3Client builds an S3 client. A custom endpoint switches to path-style
// addressing, which R2 and MinIO expect.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load object store config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// ParseSource resolves a model URI. s3:// URIs are served from the object
// store described by s3cfg; anything else is a local path.
func ParseSource(ctx context.Context, uri string, s3cfg S3Config) (Source, error) {
	if !strings.HasPrefix(uri, "s3://") {
		return FileSource{Path: strings.TrimPrefix(uri, "file://")}, nil
	}

	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid model uri %q: %w", uri, err)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return nil, fmt.Errorf("model uri %q must be s3://bucket/key", uri)
	}

	client, err := NewS3Client(ctx, s3cfg)
	if err != nil {
		return nil, err
	}

	return NewS3Source(u.Host, key, manager.NewDownloader(client)), nil
}

// Load fetches, decodes and builds the model from src
func Load(ctx context.Context, src Source, expected []string, log zerolog.Logger) (Model, error) {
	data, err := src.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	artifact, err := DecodeArtifact(data, src.Format())
	if err != nil {
		return nil, fmt.Errorf("artifact %s: %w", src, err)
	}

	model, err := artifact.Model(expected)
	if err != nil {
		return nil, fmt.Errorf("artifact %s: %w", src, err)
	}

	log.Info().
		Str("source", src.String()).
		Str("kind", string(artifact.Kind)).
		Str("model", model.Name()).
		Int("bytes", len(data)).
		Msg("Loaded return model")

	return model, nil
}

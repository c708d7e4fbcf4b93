package s3repo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"voice_conversion/config"
	"voice_conversion/entity"
)

const traceName = "S3-Repo"

type S3Repository struct {
	sess *s3.Client
}

var _ entity.StorageRepository = (*S3Repository)(nil)

// NewS3Repository builds a client for cfg.Endpoint (MinIO or any
// S3-compatible store); an empty endpoint uses the AWS default resolver.
// Static keys win over the default credential chain.
func NewS3Repository(cfg config.S3) (*S3Repository, error) {
	if cfg.Region == "" {
		return nil, errors.New("s3: region is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}

	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		region := cfg.Region
		opts = append(opts, awsconfig.WithEndpointResolverWithOptions(
			aws.EndpointResolverWithOptionsFunc(func(service, _ string, options ...any) (aws.Endpoint, error) {
				return aws.Endpoint{
					PartitionID:       "aws",
					SigningRegion:     region,
					URL:               endpoint,
					HostnameImmutable: true,
				}, nil
			}),
		))
	}

	sdkConfig, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}

	s3Client := s3.NewFromConfig(sdkConfig, func(o *s3.Options) {
		o.UsePathStyle = cfg.Endpoint != ""
	})
	return &S3Repository{s3Client}, nil
}

func (s3Repo *S3Repository) DownloadObject(ctx context.Context, bucket string, key string, w io.Writer) error {
	ctx, span := otel.Tracer(traceName).Start(ctx, "DownloadObject")
	defer span.End()

	span.SetAttributes(attribute.String("bucket", bucket), attribute.String("key", key))

	downloader := manager.NewDownloader(s3Repo.sess)

	var buffer []byte
	bw := manager.NewWriteAtBuffer(buffer)

	numBytes, err := downloader.Download(ctx, bw, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if isNotFound(err) {
		return fmt.Errorf("s3 download %s/%s: %w", bucket, key, entity.ErrArchiveNotFound)
	}
	if err != nil {
		return fmt.Errorf("s3 download %s/%s: %w", bucket, key, err)
	}

	if numBytes < 1 {
		return errors.New("zero bytes written to memory")
	}

	if _, err := w.Write(bw.Bytes()); err != nil {
		return err
	}

	return nil
}

func (s3Repo *S3Repository) UploadObject(ctx context.Context, bucket string, key string, r io.Reader) error {
	ctx, span := otel.Tracer(traceName).Start(ctx, "UploadObject")
	defer span.End()

	span.SetAttributes(attribute.String("bucket", bucket), attribute.String("key", key))

	uploader := manager.NewUploader(s3Repo.sess)

	_, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String("audio/wav"),
	})
	if err != nil {
		return fmt.Errorf("s3 upload %s/%s: %w", bucket, key, err)
	}

	return nil
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}

	var respErr *awshttp.ResponseError
	return errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound
}

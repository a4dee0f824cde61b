package ingest

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/singleflight"
)

// S3Fetcher retrieves sources from an S3 bucket; the source location is
// the object key. Works against S3-compatible stores like MinIO through
// the endpoint override.
type S3Fetcher struct {
	bucket string
	client *s3.Client

	cache   map[string][]byte
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewS3FetcherWithClient wraps an existing s3.Client, for reuse of a
// preconfigured client.
func NewS3FetcherWithClient(bucket string, client *s3.Client) *S3Fetcher {
	return &S3Fetcher{
		bucket: bucket,
		client: client,
		cache:  make(map[string][]byte),
	}
}

// NewS3FetcherParams configures a fresh S3 client with static
// credentials.
type NewS3FetcherParams struct {
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// NewS3Fetcher builds an S3Fetcher with its own client.
func NewS3Fetcher(ctx context.Context, params NewS3FetcherParams) (*S3Fetcher, error) {
	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(params.Region),
		config.WithBaseEndpoint(params.Endpoint),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			params.AccessKey,
			params.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	return NewS3FetcherWithClient(params.Bucket, s3.NewFromConfig(cfg)), nil
}

// Fetch downloads the object at the source location. Results are
// cached.
func (f *S3Fetcher) Fetch(ctx context.Context, source Source) ([]byte, error) {
	key := cacheKey(source)

	f.cacheMu.RLock()
	if cached, ok := f.cache[key]; ok {
		f.cacheMu.RUnlock()
		return cached, nil
	}
	f.cacheMu.RUnlock()

	result, err, _ := f.group.Do(key, func() (any, error) {
		f.cacheMu.RLock()
		if cached, ok := f.cache[key]; ok {
			f.cacheMu.RUnlock()
			return cached, nil
		}
		f.cacheMu.RUnlock()

		out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(f.bucket),
			Key:    aws.String(source.Location),
		})
		if err != nil {
			return nil, err
		}
		defer out.Body.Close()

		buf := new(bytes.Buffer)
		if _, err := io.Copy(buf, out.Body); err != nil {
			return nil, err
		}
		content := buf.Bytes()

		f.cacheMu.Lock()
		f.cache[key] = content
		f.cacheMu.Unlock()

		return content, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}

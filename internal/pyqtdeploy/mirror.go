package pyqtdeploy

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// MirrorClient wraps an S3 client for an S3-compatible source archive
// mirror (AWS, Cloudflare R2, MinIO). Corporate networks often mirror
// the Qt and Python tarballs in a private bucket rather than hitting
// the upstream release servers.
type MirrorClient struct {
	Client     *s3.Client
	BucketName string
}

func mirrorConfigured(cfg *Config) bool {
	return cfg.Values["MIRROR_S3_ENDPOINT"] != "" && cfg.Values["MIRROR_S3_BUCKET"] != ""
}

// newMirrorClient initializes a new mirror client using configuration values.
func newMirrorClient(cfg *Config) (*MirrorClient, error) {
	endpoint := cfg.Values["MIRROR_S3_ENDPOINT"]
	accessKey := cfg.Values["MIRROR_S3_ACCESS_KEY_ID"]
	secretKey := cfg.Values["MIRROR_S3_SECRET_ACCESS_KEY"]
	bucketName := cfg.Values["MIRROR_S3_BUCKET"]

	if endpoint == "" || accessKey == "" || secretKey == "" || bucketName == "" {
		return nil, fmt.Errorf("S3 mirror credentials missing in configuration (MIRROR_S3_ENDPOINT, MIRROR_S3_ACCESS_KEY_ID, MIRROR_S3_SECRET_ACCESS_KEY, MIRROR_S3_BUCKET)")
	}

	options := []func(*config.LoadOptions) error{
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
		config.WithRegion("auto"),
	}

	if Debug {
		options = append(options, config.WithClientLogMode(aws.LogSigning|aws.LogRetries|aws.LogRequest|aws.LogResponse))
	}

	awsCfg, err := config.LoadDefaultConfig(context.TODO(), options...)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 mirror config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &MirrorClient{
		Client:     client,
		BucketName: bucketName,
	}, nil
}

// FetchSource downloads a source archive from the mirror bucket into
// the local cache.
func (m *MirrorClient) FetchSource(key, destPath string) error {
	output, err := m.Client.GetObject(context.TODO(), &s3.GetObjectInput{
		Bucket: aws.String(m.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return err
	}
	defer output.Body.Close()

	partPath := destPath + ".part"
	out, err := os.Create(partPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", partPath, err)
	}

	_, err = io.Copy(out, output.Body)
	out.Close()
	if err != nil {
		_ = os.Remove(partPath)
		return fmt.Errorf("failed to fetch %s from mirror: %w", key, err)
	}

	return os.Rename(partPath, destPath)
}

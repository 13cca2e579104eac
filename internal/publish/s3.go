package publish

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}
)

type S3Config struct {
	Bucket   string
	Region   string
	Endpoint string
	User     string
	Password string
}

// S3Publisher uploads documents to a bucket under Key(feedID). The client is
// created on first use.
type S3Publisher struct {
	cfg S3Config

	once    sync.Once
	client  *s3.Client
	initErr error
}

func NewS3Publisher(cfg S3Config) *S3Publisher {
	return &S3Publisher{cfg: cfg}
}

func (p *S3Publisher) getClient(ctx context.Context) (*s3.Client, error) {
	p.once.Do(func() {
		opts := []func(*config.LoadOptions) error{config.WithRegion(p.cfg.Region)}
		if p.cfg.User != "" {
			opts = append(opts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(p.cfg.User, p.cfg.Password, "")))
		}

		awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
		if err != nil {
			p.initErr = err
			return
		}

		p.client = newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
			if p.cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(p.cfg.Endpoint)
				o.UsePathStyle = true
			}
		})
	})
	return p.client, p.initErr
}

func (p *S3Publisher) Publish(ctx context.Context, doc *Document) error {
	client, err := p.getClient(ctx)
	if err != nil {
		return fmt.Errorf("s3 config: %w", err)
	}

	data, err := encode(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.cfg.Bucket),
		Key:         aws.String(Key(doc.FeedID)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

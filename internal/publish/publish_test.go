package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/feedfilter/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDoc() *Document {
	built := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	feed := &models.Feed{ID: 7, Name: "News", URL: "https://news.example/rss"}
	visible := []models.Article{
		{Title: "A", Link: "https://n/a", Description: "<p>a</p>", Tags: []string{"x"}},
		{Title: "B", Link: "https://n/b"},
	}
	return NewDocument(feed, "All the news", visible, built)
}

func TestNewDocument(t *testing.T) {
	doc := sampleDoc()
	assert.Equal(t, int64(7), doc.FeedID)
	assert.Equal(t, "News - (Filtered)", doc.Title)
	require.Len(t, doc.Articles, 2)
	assert.Equal(t, "A", doc.Articles[0].Title)
	assert.Equal(t, "B", doc.Articles[1].Title)
	assert.Equal(t, "feeds/7/articles.json", Key(7))

	empty := NewDocument(&models.Feed{ID: 1}, "", nil, time.Now())
	data, err := encode(empty)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"articles": []`)
}

func TestFilePublisher(t *testing.T) {
	dir := t.TempDir()
	p := NewFilePublisher(dir)
	doc := sampleDoc()

	require.NoError(t, p.Publish(context.Background(), doc))

	data, err := os.ReadFile(p.Path(7))
	require.NoError(t, err)
	var got Document
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, *doc, got)

	// a second publish replaces the document
	doc.Articles = doc.Articles[:1]
	require.NoError(t, p.Publish(context.Background(), doc))
	data, err = os.ReadFile(p.Path(7))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Len(t, got.Articles, 1)

	entries, err := os.ReadDir(dir + "/feeds/7")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func stubS3(t *testing.T) *s3.PutObjectInput {
	t.Helper()
	origLoad, origNew, origPut := loadDefaultAWSConfig, newS3ClientFromConfig, putObject
	t.Cleanup(func() {
		loadDefaultAWSConfig, newS3ClientFromConfig, putObject = origLoad, origNew, origPut
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "us-east-1", lo.Region)
		assert.NotNil(t, lo.Credentials)
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		var o s3.Options
		for _, fn := range optFns {
			fn(&o)
		}
		require.NotNil(t, o.BaseEndpoint)
		assert.Equal(t, "http://127.0.0.1:9000", *o.BaseEndpoint)
		assert.True(t, o.UsePathStyle)
		return &s3.Client{}
	}

	captured := &s3.PutObjectInput{}
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		*captured = *in
		return &s3.PutObjectOutput{}, nil
	}
	return captured
}

func s3Config() S3Config {
	return S3Config{Bucket: "feeds", Region: "us-east-1", Endpoint: "http://127.0.0.1:9000", User: "u", Password: "p"}
}

func TestS3Publisher_Publish(t *testing.T) {
	captured := stubS3(t)
	p := NewS3Publisher(s3Config())

	require.NoError(t, p.Publish(context.Background(), sampleDoc()))

	assert.Equal(t, "feeds", aws.ToString(captured.Bucket))
	assert.Equal(t, "feeds/7/articles.json", aws.ToString(captured.Key))
	assert.Equal(t, "application/json", aws.ToString(captured.ContentType))

	body, err := io.ReadAll(captured.Body)
	require.NoError(t, err)
	assert.True(t, bytes.Contains(body, []byte(`"feed_id": 7`)))
}

func TestS3Publisher_Errors(t *testing.T) {
	stubS3(t)
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no config")
	}
	err := NewS3Publisher(s3Config()).Publish(context.Background(), sampleDoc())
	assert.ErrorContains(t, err, "s3 config: no config")

	stubS3(t)
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return nil, errors.New("denied")
	}
	err = NewS3Publisher(s3Config()).Publish(context.Background(), sampleDoc())
	assert.ErrorContains(t, err, "put object: denied")
}

type recordingPublisher struct {
	n   int
	err error
}

func (r *recordingPublisher) Publish(ctx context.Context, doc *Document) error {
	r.n++
	return r.err
}

func TestMulti(t *testing.T) {
	a, b := &recordingPublisher{}, &recordingPublisher{}
	require.NoError(t, Multi{a, b}.Publish(context.Background(), sampleDoc()))
	assert.Equal(t, 1, a.n)
	assert.Equal(t, 1, b.n)

	failing := &recordingPublisher{err: errors.New("x")}
	c := &recordingPublisher{}
	assert.Error(t, Multi{failing, c}.Publish(context.Background(), sampleDoc()))
	assert.Equal(t, 0, c.n)
}

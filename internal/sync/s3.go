package sync

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// putObjectAPI is the part of the S3 client the destination uses.
type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Destination uploads the flow export to one object in an S3-compatible
// bucket. The export summary is attached as object metadata so a listing
// shows flow totals without downloading.
type S3Destination struct {
	client putObjectAPI
	bucket string
	key    string
}

// NewS3Destination creates an S3 destination. A non-empty endpoint enables
// path-style addressing (MinIO and similar).
func NewS3Destination(ctx context.Context, bucket, key, region, endpoint string) (*S3Destination, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Destination{client: client, bucket: bucket, key: key}, nil
}

// Name identifies the destination in logs.
func (d *S3Destination) Name() string {
	return "s3://" + d.bucket + "/" + d.key
}

// Write uploads the export, replacing the previous object.
func (d *S3Destination) Write(ctx context.Context, exp Export) error {
	_, err := d.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(d.bucket),
		Key:         aws.String(d.key),
		Body:        bytes.NewReader(exp.Data),
		ContentType: aws.String("application/x-ndjson"),
		Metadata:    objectMetadata(exp.Summary),
	})
	if err != nil {
		return fmt.Errorf("s3 put object %s: %w", d.Name(), err)
	}
	return nil
}

func objectMetadata(s Summary) map[string]string {
	return map[string]string{
		"flow-count":     strconv.Itoa(s.Flows),
		"total-nodes":    strconv.Itoa(s.Totals.TotalNodes),
		"total-edges":    strconv.Itoa(s.Totals.TotalEdges),
		"total-complete": strconv.Itoa(s.Totals.TotalComplete),
		"total-active":   strconv.Itoa(s.Totals.TotalActive),
		"digest":         s.Digest,
	}
}

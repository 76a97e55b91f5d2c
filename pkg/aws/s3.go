// pkg/aws/s3.go
package aws

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
)

type S3Client struct {
	uploader      s3manageriface.UploaderAPI
	bucketName    string
	publicBaseURL string
}

// NewS3Client uploads into bucketName. When publicBaseURL is set, returned
// URLs point at it (typically a CDN in front of the bucket) instead of the
// bucket's own location.
func NewS3Client(sess *session.Session, bucketName, publicBaseURL string) *S3Client {
	return &S3Client{
		uploader:      s3manager.NewUploader(sess),
		bucketName:    bucketName,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

func NewS3ClientWithUploader(uploader s3manageriface.UploaderAPI, bucketName, publicBaseURL string) *S3Client {
	return &S3Client{uploader: uploader, bucketName: bucketName, publicBaseURL: strings.TrimRight(publicBaseURL, "/")}
}

func (s *S3Client) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	input := &s3manager.UploadInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	result, err := s.uploader.UploadWithContext(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + key, nil
	}
	return result.Location, nil
}

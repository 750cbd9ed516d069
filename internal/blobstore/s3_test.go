package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// fakeS3 keeps objects in memory. Bodies are small enough for single part
// uploads and single chunk downloads.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	gets    int
	getErr  error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("missing " + aws.ToString(in.Key))}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: aws.Int64(int64(len(data))),
	}, nil
}

func (f *fakeS3) UploadPart(ctx context.Context, in *s3.UploadPartInput, _ ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	return nil, errors.New("multipart upload not supported by fake")
}

func (f *fakeS3) CreateMultipartUpload(ctx context.Context, in *s3.CreateMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	return nil, errors.New("multipart upload not supported by fake")
}

func (f *fakeS3) CompleteMultipartUpload(ctx context.Context, in *s3.CompleteMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	return nil, errors.New("multipart upload not supported by fake")
}

func (f *fakeS3) AbortMultipartUpload(ctx context.Context, in *s3.AbortMultipartUploadInput, _ ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	return &s3.AbortMultipartUploadOutput{}, nil
}

var _ S3Client = (*fakeS3)(nil)

func TestS3Store_ObjectKeys(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		prefix string
		want   string
	}{
		{prefix: "", want: "archive/documents/5"},
		{prefix: "prod", want: "archive/prod/documents/5"},
		{prefix: "prod/scans", want: "archive/prod/scans/documents/5"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			client := newFakeS3()
			s := NewS3Store(client, "archive", tt.prefix, 216)
			if err := s.PutDocument(ctx, 5, []byte("scan")); err != nil {
				t.Fatalf("PutDocument() error = %v", err)
			}
			if _, ok := client.objects[tt.want]; !ok {
				t.Errorf("object not stored at %s: %v", tt.want, client.objects)
			}
		})
	}
}

func TestS3Store_TransportError(t *testing.T) {
	client := newFakeS3()
	client.getErr = errors.New("connection reset")
	s := NewS3Store(client, "archive", "", 216)

	_, err := s.FetchImages(context.Background(), []int{1, 2})
	if err == nil {
		t.Fatal("FetchImages() expected error")
	}
	if isNotFound(err) {
		t.Error("transport error classified as not found")
	}
}

func TestIsNotFound(t *testing.T) {
	if isNotFound(nil) {
		t.Error("isNotFound(nil) = true")
	}
	if !isNotFound(&types.NoSuchKey{}) {
		t.Error("NoSuchKey not recognized")
	}
	if !isNotFound(&types.NotFound{}) {
		t.Error("NotFound not recognized")
	}
}

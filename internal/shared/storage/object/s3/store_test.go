package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"incident-backend/internal/shared/storage/object"
)

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "picture/file.jpg", want: "picture/file.jpg"},
		{name: "simple prefix", prefix: "root", key: "picture/file.jpg", want: "root/picture/file.jpg"},
		{name: "prefix trailing slash", prefix: "root/", key: "picture/file.jpg", want: "root/picture/file.jpg"},
		{name: "prefix and key slashes", prefix: "/root/", key: "/picture/file.jpg", want: "root/picture/file.jpg"},
		{name: "nested prefix", prefix: "root/sub", key: "picture/file.jpg", want: "root/sub/picture/file.jpg"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}

type fakeS3 struct {
	objects map[string][]byte
	putIn   *s3.PutObjectInput
	failPut bool
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.failPut {
		return nil, errors.New("access denied")
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.putIn = in
	f.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestStoreRoundTripUsesPrefixAndURL(t *testing.T) {
	fake := newFakeS3()
	store := NewWithClient(fake, Options{Bucket: "incidents", Region: "eu-west-1", Prefix: "media"})
	ctx := context.Background()

	url, err := store.Put(ctx, "picture/abc/1-x.jpg", "image/jpeg", bytes.NewReader([]byte("img")))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if url != "https://incidents.s3.eu-west-1.amazonaws.com/media/picture/abc/1-x.jpg" {
		t.Fatalf("unexpected url %q", url)
	}
	if fake.putIn.ServerSideEncryption != s3types.ServerSideEncryptionAes256 {
		t.Fatalf("expected AES256 SSE by default")
	}
	if aws.ToString(fake.putIn.ContentType) != "image/jpeg" {
		t.Fatalf("unexpected content type %q", aws.ToString(fake.putIn.ContentType))
	}

	rc, err := store.Open(ctx, url)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "img" {
		t.Fatalf("unexpected data %q", data)
	}

	if err := store.Delete(ctx, url); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Open(ctx, url); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreUsesKMSAndPublicBaseURL(t *testing.T) {
	fake := newFakeS3()
	store := NewWithClient(fake, Options{Bucket: "b", PublicBaseURL: "https://cdn.test/", KMSKeyID: "key-1"})

	url, err := store.Put(context.Background(), "video/v.mp4", "video/mp4", bytes.NewReader(nil))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if url != "https://cdn.test/video/v.mp4" {
		t.Fatalf("unexpected url %q", url)
	}
	if fake.putIn.ServerSideEncryption != s3types.ServerSideEncryptionAwsKms {
		t.Fatalf("expected KMS SSE")
	}
	if aws.ToString(fake.putIn.SSEKMSKeyId) != "key-1" {
		t.Fatalf("unexpected kms key id")
	}
}

func TestStorePutFailureIsWrapped(t *testing.T) {
	fake := newFakeS3()
	fake.failPut = true
	store := NewWithClient(fake, Options{Bucket: "b"})
	if _, err := store.Put(context.Background(), "k", "", bytes.NewReader(nil)); err == nil {
		t.Fatalf("expected put error")
	}
}

package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"github.com/mesworup/Pneumonia-Detection-CNN/internal/config"
)

func TestLocalStore_Save(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(filepath.Join(dir, "uploads"), "uploads/", zap.NewNop())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	url, err := store.Save(context.Background(), []byte("png-bytes"), ".png", "image/png")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(url, "/uploads/") || !strings.HasSuffix(url, ".png") {
		t.Fatalf("url = %q, want /uploads/*.png", url)
	}

	got, err := os.ReadFile(filepath.Join(store.Dir(), strings.TrimPrefix(url, "/uploads/")))
	if err != nil {
		t.Fatalf("reading stored file: %v", err)
	}
	if string(got) != "png-bytes" {
		t.Errorf("stored content = %q", got)
	}

	second, _ := store.Save(context.Background(), []byte("x"), ".png", "image/png")
	if second == url {
		t.Error("two uploads must not share a name")
	}
}

func TestLocalStore_CancelledContext(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/uploads", zap.NewNop())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Save(ctx, []byte("x"), ".jpg", "image/jpeg"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

type fakePutter struct {
	in  *s3.PutObjectInput
	err error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	return &s3.PutObjectOutput{}, f.err
}

func TestS3Store_Save(t *testing.T) {
	fake := &fakePutter{}
	store := NewS3StoreWithClient(fake, config.StorageConfig{
		S3Bucket: "xrays-bucket",
		S3Prefix: "/scans/",
	}, "eu-west-1", zap.NewNop())

	url, err := store.Save(context.Background(), []byte("jpeg"), ".jpg", "image/jpeg")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if *fake.in.Bucket != "xrays-bucket" {
		t.Errorf("bucket = %q", *fake.in.Bucket)
	}
	if !strings.HasPrefix(*fake.in.Key, "scans/") || !strings.HasSuffix(*fake.in.Key, ".jpg") {
		t.Errorf("key = %q", *fake.in.Key)
	}
	if *fake.in.ContentType != "image/jpeg" {
		t.Errorf("content type = %q", *fake.in.ContentType)
	}
	if fake.in.ACL != "" {
		t.Errorf("ACL = %q, want none so the bucket policy governs reads", fake.in.ACL)
	}
	if fake.in.ServerSideEncryption != types.ServerSideEncryptionAes256 {
		t.Errorf("server side encryption = %q", fake.in.ServerSideEncryption)
	}
	want := "https://xrays-bucket.s3.eu-west-1.amazonaws.com/" + *fake.in.Key
	if url != want {
		t.Errorf("url = %q, want %q", url, want)
	}
}

func TestS3Store_PublicBaseURLAndError(t *testing.T) {
	fake := &fakePutter{}
	store := NewS3StoreWithClient(fake, config.StorageConfig{
		S3Bucket:        "b",
		S3PublicBaseURL: "https://cdn.example.com/",
	}, "us-east-1", zap.NewNop())

	url, err := store.Save(context.Background(), []byte("x"), ".png", "image/png")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(url, "https://cdn.example.com/") || strings.Contains(url, "//"+"/") {
		t.Errorf("url = %q", url)
	}

	fake.err = errors.New("access denied")
	if _, err := store.Save(context.Background(), []byte("x"), ".png", "image/png"); err == nil {
		t.Error("expected PutObject error to surface")
	}
}

func TestNew_UnknownDriver(t *testing.T) {
	if _, err := New(context.Background(), config.StorageConfig{Driver: "ftp"}, zap.NewNop()); err == nil {
		t.Error("expected error for unknown driver")
	}
}

package publish

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/liyanghua/xhs-video-tool/internal/services"
)

type fakePutter struct {
	bucket, key, contentType string
	body                     []byte
	err                      error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.bucket = aws.ToString(in.Bucket)
	f.key = aws.ToString(in.Key)
	f.contentType = aws.ToString(in.ContentType)
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = data
	return &s3.PutObjectOutput{}, nil
}

func writeArtifact(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "final_video.mp4")
	if err := os.WriteFile(path, []byte("video-bytes"), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return path
}

func TestPublishUploadsUnderPrefix(t *testing.T) {
	putter := &fakePutter{}
	p := New(putter, "renders-bucket", "/renders/")
	res, err := p.Publish(context.Background(), writeArtifact(t), "20250102_030405")
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if putter.bucket != "renders-bucket" || putter.key != "renders/20250102_030405/final_video.mp4" {
		t.Fatalf("unexpected destination %s/%s", putter.bucket, putter.key)
	}
	if putter.contentType != "video/mp4" || string(putter.body) != "video-bytes" {
		t.Fatalf("unexpected upload %q %q", putter.contentType, putter.body)
	}
	if res.URI() != "s3://renders-bucket/renders/20250102_030405/final_video.mp4" || res.Size != 11 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestPublishErrors(t *testing.T) {
	if _, err := New(&fakePutter{}, "", "x").Publish(context.Background(), "a.mp4", "r"); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if _, err := New(&fakePutter{}, "b", "").Publish(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"), "r"); !errors.Is(err, services.ErrAsset) {
		t.Fatalf("expected asset error, got %v", err)
	}
	failing := &fakePutter{err: errors.New("access denied")}
	if _, err := New(failing, "b", "").Publish(context.Background(), writeArtifact(t), "r"); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestObjectKeyWithoutPrefix(t *testing.T) {
	p := New(&fakePutter{}, "b", "")
	if got := p.ObjectKey("run", "/tmp/out/final_video.mp4"); got != "run/final_video.mp4" {
		t.Fatalf("ObjectKey = %q", got)
	}
}

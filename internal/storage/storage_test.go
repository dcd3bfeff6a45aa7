package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iliyamo/pharmacy-marketplace/internal/config"
)

func TestLocalStoreSave(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStore(dir, "/uploads/")
	url, err := s.Save(context.Background(), "cv", ".PDF", "application/pdf", strings.NewReader("%PDF-1.4"), 8)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(url, "/uploads/cv/") || !strings.HasSuffix(url, ".pdf") {
		t.Fatalf("url = %q", url)
	}
	data, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(url, "/uploads/")))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "%PDF-1.4" {
		t.Fatalf("content = %q", data)
	}
}

func TestLocalStoreShortBodyLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStore(dir, "/uploads")
	if _, err := s.Save(context.Background(), "cv", ".pdf", "application/pdf", strings.NewReader("abc"), 10); err == nil {
		t.Fatal("expected error for short body")
	}
	entries, _ := os.ReadDir(filepath.Join(dir, "cv"))
	if len(entries) != 0 {
		t.Fatalf("left %d files behind", len(entries))
	}
}

func TestObjectKeyStaysInFolder(t *testing.T) {
	k := objectKey("../../etc", ".docx")
	if strings.Contains(k, "..") || !strings.HasPrefix(k, "etc/") {
		t.Fatalf("objectKey escaped its folder: %q", k)
	}
}

func TestNewDriverSelection(t *testing.T) {
	if _, err := New(config.StorageConfig{Driver: "local", LocalDir: t.TempDir()}); err != nil {
		t.Fatalf("local: %v", err)
	}
	if _, err := New(config.StorageConfig{Driver: "ftp"}); err == nil {
		t.Fatal("unknown driver accepted")
	}
	if _, err := New(config.StorageConfig{Driver: "s3"}); err == nil {
		t.Fatal("s3 without bucket accepted")
	}
}

func TestPublicBase(t *testing.T) {
	cases := []struct {
		cfg  config.StorageConfig
		want string
	}{
		{config.StorageConfig{S3Bucket: "cvs", S3Region: "eu-west-1"}, "https://cvs.s3.eu-west-1.amazonaws.com"},
		{config.StorageConfig{S3Bucket: "cvs", S3Endpoint: "http://minio:9000/"}, "http://minio:9000/cvs"},
		{config.StorageConfig{S3Bucket: "cvs", PublicBaseURL: "https://cdn.example.com/"}, "https://cdn.example.com"},
	}
	for _, c := range cases {
		if got := publicBase(c.cfg); got != c.want {
			t.Errorf("publicBase(%+v) = %q, want %q", c.cfg, got, c.want)
		}
	}
}

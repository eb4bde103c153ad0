package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveProof(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir, "http://localhost:3131/static/")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	url, err := fs.SaveProof(context.Background(), 12, "application/pdf; charset=binary", []byte("%PDF-1.7"))
	if err != nil {
		t.Fatalf("SaveProof: %v", err)
	}
	prefix := "http://localhost:3131/static/proofs/12/"
	if !strings.HasPrefix(url, prefix) || !strings.HasSuffix(url, ".pdf") {
		t.Fatalf("unexpected url %q", url)
	}
	key := strings.TrimPrefix(url, "http://localhost:3131/static/")
	got, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(key)))
	if err != nil {
		t.Fatalf("read stored proof: %v", err)
	}
	if !bytes.Equal(got, []byte("%PDF-1.7")) {
		t.Fatalf("stored bytes differ: %q", got)
	}

	if _, err := fs.SaveProof(context.Background(), 12, "text/html", []byte("<p>")); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
	if _, err := fs.SaveProof(context.Background(), 12, "image/png", nil); err == nil {
		t.Fatal("expected error for empty upload")
	}
	big := make([]byte, MaxProofSize+1)
	if _, err := fs.SaveProof(context.Background(), 12, "image/png", big); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "proofs/1/a.pdf", want: "proofs/1/a.pdf"},
		{in: "/proofs//1/./a.pdf", want: "proofs/1/a.pdf"},
		{in: `proofs\1\a.pdf`, want: "proofs/1/a.pdf"},
		{in: "../etc/passwd", wantErr: true},
		{in: "proofs/../../x", wantErr: true},
		{in: "  ", wantErr: true},
	}
	for _, tc := range tests {
		got, err := sanitizeKey(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("sanitizeKey(%q) = %q, want error", tc.in, got)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("sanitizeKey(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
}

func TestWriteHonoursContext(t *testing.T) {
	fs, err := NewFileStore(t.TempDir(), "/static")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := fs.Write(ctx, "a.txt", []byte("x")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

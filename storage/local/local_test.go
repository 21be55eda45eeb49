package local

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/kbukum/convoview/logger"
	"github.com/kbukum/convoview/storage"
)

func newStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	return s
}

func TestUploadDownload(t *testing.T) {
	ctx := context.Background()
	s := newStorage(t)

	if err := s.Upload(ctx, "audio/a.mp3", strings.NewReader("abcdef")); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	data, err := storage.ReadBytes(ctx, s, "audio/a.mp3")
	if err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	if string(data) != "abcdef" {
		t.Errorf("got %q", data)
	}

	ok, err := s.Exists(ctx, "audio/a.mp3")
	if err != nil || !ok {
		t.Errorf("Exists = %v, %v", ok, err)
	}
	if err := s.Delete(ctx, "audio/a.mp3"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "audio/a.mp3"); err != nil {
		t.Errorf("second Delete should be a no-op, got %v", err)
	}
	ok, _ = s.Exists(ctx, "audio/a.mp3")
	if ok {
		t.Error("expected file to be gone")
	}
}

func TestOpenIsSeekable(t *testing.T) {
	ctx := context.Background()
	s := newStorage(t)
	if err := storage.WriteBytes(ctx, s, "x.json", []byte("0123456789")); err != nil {
		t.Fatal(err)
	}

	obj, err := s.Open(ctx, "x.json")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer obj.Close()

	info := obj.Info()
	if info.Size != 10 {
		t.Errorf("size = %d", info.Size)
	}
	if !strings.HasPrefix(info.ContentType, "application/json") {
		t.Errorf("content type = %q", info.ContentType)
	}
	if _, err := obj.Seek(4, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 3)
	if _, err := io.ReadFull(obj, buf); err != nil {
		t.Fatal(err)
	}
	if string(buf) != "456" {
		t.Errorf("read %q after seek", buf)
	}
}

func TestOpenMissing(t *testing.T) {
	s := newStorage(t)
	_, err := s.Open(context.Background(), "nope.mp3")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if appErr := storage.FromStorage(err, "open", "nope.mp3"); appErr.HTTPStatus != 404 {
		t.Errorf("status = %d", appErr.HTTPStatus)
	}
}

func TestPathsCannotEscapeBase(t *testing.T) {
	ctx := context.Background()
	s := newStorage(t)
	if err := s.Upload(ctx, "../../etc/evil", strings.NewReader("x")); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	// The key is cleaned into the base directory rather than escaping it.
	files, err := s.List(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0].Path != "etc/evil" {
		t.Errorf("files = %+v", files)
	}
}

func TestListByPrefix(t *testing.T) {
	ctx := context.Background()
	s := newStorage(t)
	for _, k := range []string{"conversations/2.json", "conversations/1.json", "audio/1.mp3"} {
		if err := storage.WriteBytes(ctx, s, k, []byte("{}")); err != nil {
			t.Fatal(err)
		}
	}
	files, err := s.List(ctx, "conversations/")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 || files[0].Path != "conversations/1.json" || files[1].Path != "conversations/2.json" {
		t.Errorf("files = %+v", files)
	}
}

func TestFactoryRegistration(t *testing.T) {
	s, err := storage.New(storage.Config{Provider: storage.ProviderLocal, BasePath: t.TempDir()}, logger.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := s.(storage.Opener); !ok {
		t.Error("local storage should implement Opener")
	}
}

// Package media delivers conversation audio: seekable streaming with HTTP
// Range support, and direct URLs when the storage backend can sign them.
package media

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/kbukum/convoview/internal/conversation"
	apperrors "github.com/kbukum/convoview/errors"
	"github.com/kbukum/convoview/logger"
	"github.com/kbukum/convoview/storage"
)

// Config holds the media section.
type Config struct {
	// URLTTL is the lifetime of pre-signed audio URLs.
	URLTTL time.Duration `yaml:"url_ttl" mapstructure:"url_ttl"`
	// DefaultContentType is used when the extension says nothing.
	DefaultContentType string `yaml:"default_content_type" mapstructure:"default_content_type"`
}

func (c *Config) ApplyDefaults() {
	if c.URLTTL <= 0 {
		c.URLTTL = 15 * time.Minute
	}
	if c.DefaultContentType == "" {
		c.DefaultContentType = "audio/mpeg"
	}
}

func (c *Config) Validate() error {
	if c.URLTTL > 7*24*time.Hour {
		return fmt.Errorf("media.url_ttl must be at most 7 days (got: %s)", c.URLTTL)
	}
	return nil
}

var audioTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".opus": "audio/opus",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".flac": "audio/flac",
	".webm": "audio/webm",
}

// Link is where a client can fetch a conversation's audio.
type Link struct {
	URL       string     `json:"url"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Signed    bool       `json:"signed"`
}

// Service opens audio objects for conversations.
type Service struct {
	store storage.Storage
	cfg   Config
	log   *logger.Logger
	now   func() time.Time
}

// NewService creates a service over store.
func NewService(store storage.Storage, cfg Config, log *logger.Logger) *Service {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	return &Service{store: store, cfg: cfg, log: log.WithComponent("media"), now: time.Now}
}

// ContentType guesses the audio type from the key's extension.
func (s *Service) ContentType(key string) string {
	ext := strings.ToLower(path.Ext(key))
	if ct, ok := audioTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return s.cfg.DefaultContentType
}

// Open returns a seekable handle on the conversation's audio. Backends
// without random access are read into memory.
func (s *Service) Open(ctx context.Context, c *conversation.Conversation) (storage.Object, error) {
	key := c.FilePath
	if key == "" {
		return nil, apperrors.NotFound("audio", "")
	}
	if opener, ok := s.store.(storage.Opener); ok {
		obj, err := opener.Open(ctx, key)
		if err != nil {
			return nil, storage.FromStorage(err, "open", key)
		}
		return obj, nil
	}

	data, err := storage.ReadBytes(ctx, s.store, key)
	if err != nil {
		return nil, storage.FromStorage(err, "download", key)
	}
	return &memoryObject{
		Reader: bytes.NewReader(data),
		info:   storage.FileInfo{Path: key, Size: int64(len(data)), ContentType: s.ContentType(key)},
	}, nil
}

// Serve writes the audio of c to w. Range requests get 206 partial content
// and unsatisfiable ranges get 416. Errors are returned before anything is
// written.
func (s *Service) Serve(w http.ResponseWriter, r *http.Request, c *conversation.Conversation) error {
	obj, err := s.Open(r.Context(), c)
	if err != nil {
		return err
	}
	defer obj.Close()

	// Long recordings outlive the server write timeout.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		s.log.Debug("cannot clear write deadline", logger.Fields(logger.FieldError, err.Error(), logger.FieldStorageKey, c.FilePath))
	}

	info := obj.Info()
	w.Header().Set("Content-Type", s.ContentType(c.FilePath))
	w.Header().Set("Accept-Ranges", "bytes")
	http.ServeContent(w, r, path.Base(c.FilePath), info.LastModified, obj)
	return nil
}

// URL returns a pre-signed link when the backend supports it, otherwise
// streamPath, the service's own stream endpoint.
func (s *Service) URL(ctx context.Context, c *conversation.Conversation, streamPath string) (Link, error) {
	signer, ok := s.store.(storage.SignedURLProvider)
	if !ok || c.FilePath == "" {
		return Link{URL: streamPath}, nil
	}
	expires := s.now().Add(s.cfg.URLTTL).UTC()
	u, err := signer.SignedURL(ctx, c.FilePath, s.cfg.URLTTL)
	if err != nil {
		return Link{}, storage.FromStorage(err, "sign", c.FilePath)
	}
	return Link{URL: u, ExpiresAt: &expires, Signed: true}, nil
}

type memoryObject struct {
	*bytes.Reader
	info storage.FileInfo
}

func (o *memoryObject) Close() error { return nil }
func (o *memoryObject) Info() storage.FileInfo { return o.info }

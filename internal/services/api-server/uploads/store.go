package uploads

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNoFile   = errors.New("no file uploaded")
	ErrTooLarge = errors.New("file too large")
)

type Config struct {
	Dir       string `mapstructure:"dir"`
	URLPrefix string `mapstructure:"url_prefix"`
	MaxBytes  int64  `mapstructure:"max_bytes"`
}

// Store keeps uploaded files on local disk and hands out their public URLs.
type Store struct {
	dir      string
	prefix   string
	maxBytes int64
	log      *zap.Logger
}

func NewStore(cfg Config, l *zap.Logger) (*Store, error) {
	if cfg.Dir == "" {
		cfg.Dir = "public/uploads"
	}
	if cfg.URLPrefix == "" {
		cfg.URLPrefix = "/uploads"
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 10 << 20
	}
	if l == nil {
		l = zap.NewNop()
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{
		dir:      cfg.Dir,
		prefix:   strings.TrimRight(cfg.URLPrefix, "/"),
		maxBytes: cfg.MaxBytes,
		log:      l.With(zap.String("component", "uploads")),
	}, nil
}

func (s *Store) Dir() string       { return s.dir }
func (s *Store) URLPrefix() string { return s.prefix }
func (s *Store) MaxBytes() int64   { return s.maxBytes }

// Save writes fh under subdir as <field>-<uuid><ext> and returns its URL path.
func (s *Store) Save(fh *multipart.FileHeader, subdir, field string) (string, error) {
	if fh == nil {
		return "", ErrNoFile
	}
	if fh.Size > s.maxBytes {
		return "", fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, fh.Size, s.maxBytes)
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dir := filepath.Join(s.dir, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create dir: %w", err)
	}

	name := field + "-" + uuid.NewString() + strings.ToLower(filepath.Ext(fh.Filename))
	dst, err := os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}

	// the header size comes from the client, so enforce the limit on the bytes too
	n, err := io.Copy(dst, io.LimitReader(src, s.maxBytes+1))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > s.maxBytes {
		err = fmt.Errorf("%w: limit %d", ErrTooLarge, s.maxBytes)
	}
	if err != nil {
		_ = os.Remove(filepath.Join(dir, name))
		return "", err
	}

	url := path.Join(s.prefix, subdir, name)
	s.log.Info("file stored", zap.String("url", url), zap.Int64("bytes", n))
	return url, nil
}

// Remove deletes the file behind a URL returned by Save. Unknown URLs are ignored.
func (s *Store) Remove(url string) error {
	rel, ok := strings.CutPrefix(url, s.prefix+"/")
	if !ok || rel == "" {
		return nil
	}
	p := filepath.Join(s.dir, filepath.FromSlash(rel))
	if !strings.HasPrefix(p, filepath.Clean(s.dir)+string(os.PathSeparator)) {
		return nil
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}

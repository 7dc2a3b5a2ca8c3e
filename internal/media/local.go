package media

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStore writes objects below root and serves them from urlPrefix.
type LocalStore struct {
	root      string
	urlPrefix string
}

func NewLocalStore(root, urlPrefix string) (*LocalStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve media root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	return &LocalStore{
		root:      filepath.Clean(abs),
		urlPrefix: "/" + strings.Trim(urlPrefix, "/"),
	}, nil
}

func (s *LocalStore) Root() string { return s.root }

func (s *LocalStore) URLPrefix() string { return s.urlPrefix }

func (s *LocalStore) Put(_ context.Context, key, _ string, body []byte) (string, error) {
	target, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	if err := os.WriteFile(target, body, 0o644); err != nil {
		return "", fmt.Errorf("write media object: %w", err)
	}
	return s.urlPrefix + "/" + strings.TrimPrefix(path.Clean("/"+key), "/"), nil
}

func (s *LocalStore) Delete(_ context.Context, url string) error {
	trimmed := strings.TrimSpace(url)
	if trimmed == "" {
		return nil
	}
	if !strings.HasPrefix(trimmed, s.urlPrefix+"/") {
		return fmt.Errorf("refusing to delete non-media url: %s", url)
	}

	target, err := s.resolve(strings.TrimPrefix(trimmed, s.urlPrefix+"/"))
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// resolve maps key to a file path inside root.
func (s *LocalStore) resolve(key string) (string, error) {
	cleanRel := strings.TrimPrefix(path.Clean("/"+strings.TrimSpace(key)), "/")
	if cleanRel == "" {
		return "", fmt.Errorf("empty media key")
	}

	target := filepath.Clean(filepath.Join(s.root, filepath.FromSlash(cleanRel)))
	if !strings.HasPrefix(target, s.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("refusing path outside media root: %s", key)
	}
	return target, nil
}

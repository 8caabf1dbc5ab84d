package avatar

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// avatarSize is the square resolution every avatar is normalized to.
const avatarSize = 250

// urlPrefix is the public path segment avatars are served under.
const urlPrefix = "avatars"

// ObjectMirror is the optional S3 backend normalized avatars are copied to.
type ObjectMirror interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) error
}

type Service interface {
	// Process relocates the uploaded temp file into the avatar directory
	// under a name derived from the account id, normalizes it to a fixed
	// square resolution and returns the relative path to persist.
	Process(ctx context.Context, accountID, tmpPath, originalFilename string) (string, error)
}

type service struct {
	dir    string
	mirror ObjectMirror // nil when no bucket is configured
}

func NewService(dir string, mirror ObjectMirror) Service {
	return &service{dir: dir, mirror: mirror}
}

func (s *service) Process(ctx context.Context, accountID, tmpPath, originalFilename string) (string, error) {
	// <accountID>.<ext> — each account owns at most one file per extension,
	// so a re-upload with the same extension overwrites the previous avatar.
	filename := accountID + strings.ToLower(filepath.Ext(originalFilename))
	dest := filepath.Join(s.dir, filename)

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		cleanup(tmpPath)
		return "", fmt.Errorf("create avatar dir: %w", err)
	}
	if err := moveFile(tmpPath, dest); err != nil {
		cleanup(tmpPath)
		return "", fmt.Errorf("relocate avatar: %w", err)
	}

	img, err := imaging.Open(dest)
	if err != nil {
		cleanup(dest)
		return "", fmt.Errorf("decode avatar: %w", err)
	}
	resized := imaging.Resize(img, avatarSize, avatarSize, imaging.Lanczos)
	if err := imaging.Save(resized, dest); err != nil {
		cleanup(dest)
		return "", fmt.Errorf("normalize avatar: %w", err)
	}

	if s.mirror != nil {
		if err := s.mirrorUpload(ctx, dest, filename); err != nil {
			slog.Warn("avatar mirror upload failed", "account_id", accountID, "err", err)
		}
	}

	return path.Join(urlPrefix, filename), nil
}

func (s *service) mirrorUpload(ctx context.Context, localPath, filename string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return s.mirror.Upload(ctx, path.Join(urlPrefix, filename), f, contentTypeFromName(filename))
}

// moveFile renames src to dst, falling back to copy+remove when rename is
// not possible (e.g. the temp file lives on another filesystem).
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}

// cleanup removes a leftover file on the failure path. The original upload
// must not be leaked when relocation or normalization fails.
func cleanup(p string) {
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to remove temp avatar file", "path", p, "err", err)
	}
}

func contentTypeFromName(filename string) string {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".jpg") || strings.HasSuffix(lower, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(lower, ".png"):
		return "image/png"
	case strings.HasSuffix(lower, ".gif"):
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}

// Package storage provides the local filesystem artifact store and the
// text overlay compositor. Artifacts are addressed by relative refs under
// a configured root; refs never escape it.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/pagemend/pagemend/internal/config"
	"github.com/pagemend/pagemend/internal/domain/shared"
)

var (
	ErrArtifactNotFound = errors.New("artifact not found")
	ErrInvalidRef       = errors.New("artifact ref escapes storage root")
)

// LocalStore stores page artifacts on the local filesystem
type LocalStore struct {
	root   string
	logger *slog.Logger
}

func NewLocalStore(logger *slog.Logger, cfg *config.StorageConfig) (*LocalStore, error) {
	if err := os.MkdirAll(cfg.Root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root %s: %w", cfg.Root, err)
	}
	return &LocalStore{root: cfg.Root, logger: logger}, nil
}

func (s *LocalStore) path(ref string) (string, error) {
	clean := filepath.Clean(ref)
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	return filepath.Join(s.root, clean), nil
}

func (s *LocalStore) Get(_ context.Context, ref string) ([]byte, error) {
	path, err := s.path(ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, ref)
		}
		return nil, fmt.Errorf("failed to read artifact %s: %w", ref, err)
	}
	return data, nil
}

// Put writes an artifact through a temp file rename so readers never see
// a partial write
func (s *LocalStore) Put(_ context.Context, ref string, data []byte) error {
	path, err := s.path(ref)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory for %s: %w", ref, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".artifact-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for artifact %s: %w", ref, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write artifact %s: %w", ref, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close artifact %s: %w", ref, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to finalize artifact %s: %w", ref, err)
	}

	s.logger.Debug("Stored artifact", "ref", ref, "bytes", len(data))
	return nil
}

func (s *LocalStore) Exists(_ context.Context, ref string) (bool, error) {
	path, err := s.path(ref)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat artifact %s: %w", ref, err)
	}
	return true, nil
}

func pointerRef(documentID, pageID uuid.UUID) string {
	return fmt.Sprintf("docs/%s/pages/%s.ref", documentID, pageID)
}

// CurrentRef resolves the artifact currently shown for a page. Pages that
// were never corrected resolve to their original artifact.
func (s *LocalStore) CurrentRef(ctx context.Context, documentID, pageID uuid.UUID) (string, error) {
	data, err := s.Get(ctx, pointerRef(documentID, pageID))
	if err != nil {
		if errors.Is(err, ErrArtifactNotFound) {
			return fmt.Sprintf("docs/%s/pages/%s.png", documentID, pageID), nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// SetCurrentRef repoints a page at a different artifact
func (s *LocalStore) SetCurrentRef(ctx context.Context, documentID, pageID uuid.UUID, ref string) error {
	if _, err := s.path(ref); err != nil {
		return err
	}
	return s.Put(ctx, pointerRef(documentID, pageID), []byte(ref))
}

// overlaySpec is the sidecar describing a text overlay applied to a page.
// Rasterization happens at render time from the page plus its overlays.
type overlaySpec struct {
	BaseRef string      `json:"base_ref"`
	Region  shared.BBox `json:"region"`
	Text    string      `json:"text"`
}

// OverlayCompositor produces a new page artifact carrying a text overlay
// over the given region. The page bytes are copied unchanged and the
// overlay is recorded in a sidecar next to the new artifact.
type OverlayCompositor struct {
	store  *LocalStore
	logger *slog.Logger
}

func NewOverlayCompositor(logger *slog.Logger, store *LocalStore) *OverlayCompositor {
	return &OverlayCompositor{store: store, logger: logger}
}

func (c *OverlayCompositor) Overlay(ctx context.Context, baseRef string, region shared.BBox, text string) (string, error) {
	if region.Empty() {
		return "", fmt.Errorf("overlay region is empty")
	}

	base, err := c.store.Get(ctx, baseRef)
	if err != nil {
		return "", fmt.Errorf("failed to load page artifact %s: %w", baseRef, err)
	}

	ext := filepath.Ext(baseRef)
	newRef := fmt.Sprintf("%s.%s%s", strings.TrimSuffix(baseRef, ext), uuid.NewString()[:8], ext)

	if err := c.store.Put(ctx, newRef, base); err != nil {
		return "", fmt.Errorf("failed to store overlaid page: %w", err)
	}

	spec, err := json.Marshal(overlaySpec{BaseRef: baseRef, Region: region, Text: text})
	if err != nil {
		return "", fmt.Errorf("failed to marshal overlay spec: %w", err)
	}
	if err := c.store.Put(ctx, newRef+".overlay.json", spec); err != nil {
		return "", fmt.Errorf("failed to store overlay spec: %w", err)
	}

	c.logger.Debug("Applied text overlay", "base_ref", baseRef, "result_ref", newRef)
	return newRef, nil
}

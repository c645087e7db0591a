package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cmlabs-hris/timeclock/internal/domain/snapshot"
	"github.com/google/uuid"
)

// SnapshotStore keeps snapshot documents as files, one per target. It
// implements snapshot.RemoteStore for shared-folder deployments and needs
// no credential.
type SnapshotStore struct {
	files FileStorage
}

func NewSnapshotStore(files FileStorage) *SnapshotStore {
	return &SnapshotStore{files: files}
}

func documentPath(targetID string) string {
	return targetID + ".json"
}

func descriptionPath(targetID string) string {
	return targetID + ".description"
}

// Create implements snapshot.RemoteStore. New targets get a random UUID name.
func (s *SnapshotStore) Create(ctx context.Context, _ string, content []byte, description string) (string, error) {
	id := uuid.NewString()
	if err := s.write(ctx, id, content, description); err != nil {
		return "", err
	}
	return id, nil
}

// Update implements snapshot.RemoteStore.
func (s *SnapshotStore) Update(ctx context.Context, _ string, targetID string, content []byte, description string) error {
	if err := validTarget(targetID); err != nil {
		return err
	}
	ok, err := s.files.Exists(ctx, documentPath(targetID))
	if err != nil {
		return &snapshot.NetworkError{Op: "update snapshot file", Err: err}
	}
	if !ok {
		return fmt.Errorf("update snapshot file %s: %w", targetID, snapshot.ErrTargetNotFound)
	}
	return s.write(ctx, targetID, content, description)
}

// Read implements snapshot.RemoteStore.
func (s *SnapshotStore) Read(ctx context.Context, _ string, targetID string) ([]byte, error) {
	if err := validTarget(targetID); err != nil {
		return nil, err
	}

	rc, err := s.files.Read(ctx, documentPath(targetID))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("read snapshot file %s: %w", targetID, snapshot.ErrTargetNotFound)
		}
		return nil, &snapshot.NetworkError{Op: "read snapshot file", Err: err}
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, &snapshot.NetworkError{Op: "read snapshot file", Err: err}
	}
	return content, nil
}

func (s *SnapshotStore) write(ctx context.Context, id string, content []byte, description string) error {
	if err := s.files.Write(ctx, documentPath(id), bytes.NewReader(content)); err != nil {
		return &snapshot.NetworkError{Op: "write snapshot file", Err: err}
	}
	if err := s.files.Write(ctx, descriptionPath(id), strings.NewReader(description)); err != nil {
		return &snapshot.NetworkError{Op: "write snapshot description", Err: err}
	}
	return nil
}

// Target ids are file names; anything with a separator is refused.
func validTarget(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fmt.Errorf("invalid snapshot target %q: %w", id, snapshot.ErrTargetNotFound)
	}
	return nil
}

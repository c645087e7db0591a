package snapshot

import "context"

// RemoteStore is a whole-document store keyed by target ID and credential.
// Implementations never merge: Update replaces the document entirely.
// Stores that need a credential return ErrMissingCredential when it is empty.
type RemoteStore interface {
	Create(ctx context.Context, credential string, content []byte, description string) (targetID string, err error)
	Update(ctx context.Context, credential string, targetID string, content []byte, description string) error
	Read(ctx context.Context, credential string, targetID string) ([]byte, error)
}

package setting

import "context"

type SettingRepository interface {
	// Get returns nil when the key is not set.
	Get(ctx context.Context, key string) (*string, error)
	Put(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]Setting, error)
}

// Package settings keeps server-wide key/value switches such as
// maintenance mode.
package settings

import "context"

type Repository interface {
	// Get returns common.ErrorNotFound for an unknown key.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

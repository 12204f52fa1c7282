// Package media is the boundary to the external media storage provider.
// Uploads return a durable URL plus a provider-side reference used for
// later deletion.
package media

import (
	"context"
	"errors"
	"io"
)

// ErrDisabled is returned by Upload when no provider is configured.
var ErrDisabled = errors.New("media: storage provider is not configured")

// Asset is a stored media object.
type Asset struct {
	// Ref is the provider-side reference used for delete-by-reference.
	Ref string `json:"ref"`
	// URL is the durable public URL served to clients.
	URL string `json:"url"`
}

// Store uploads and deletes media objects. Delete failures are treated as
// best-effort by callers: the referencing record goes away regardless.
type Store interface {
	Upload(ctx context.Context, filename string, content io.Reader) (Asset, error)
	Delete(ctx context.Context, ref string) error
}

// Disabled is a Store for deployments without a media provider. Uploads are
// rejected; deletes succeed silently so notice deletion never trips on it.
type Disabled struct{}

func (Disabled) Upload(ctx context.Context, filename string, content io.Reader) (Asset, error) {
	return Asset{}, ErrDisabled
}

func (Disabled) Delete(ctx context.Context, ref string) error { return nil }

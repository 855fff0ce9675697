// Package media abstracts the external host that keeps avatar images. The
// service only ever needs to store an object, learn its public URL, and
// delete it again by id.
package media

import (
	"context"
	"io"
)

type Object struct {
	ID  string
	URL string
}

type Store interface {
	Store(ctx context.Context, key string, contentType string, body io.Reader) (Object, error)
	Delete(ctx context.Context, id string) error
}

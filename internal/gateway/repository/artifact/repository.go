// Package artifact stores generated documents (reading-list exports) as
// blobs addressed by slash-separated keys.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

type Store interface {
	Put(ctx context.Context, key string, content []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	// URL returns a link a client can fetch the object from.
	URL(ctx context.Context, key string) (string, error)
	// List returns keys under prefix, relative to it, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

var ErrNotFound = errors.New("artifact not found")

// ExportPrefix is the directory holding one export of an owner's list.
func ExportPrefix(owner, exportID string) string {
	return "exports/" + url.PathEscape(owner) + "/" + exportID + "/"
}

func normalizeKey(key string) (string, error) {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", fmt.Errorf("artifact key is required")
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return "", fmt.Errorf("artifact key %q escapes its prefix", key)
		}
	}
	return key, nil
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimLeft(strings.TrimSpace(prefix), "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix
}

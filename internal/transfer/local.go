package transfer

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// LocalTransport serves file:// URLs and bare paths from the local
// filesystem. It exists for tests and for ingesting pre-staged shards.
type LocalTransport struct{}

func localPath(url string) string {
	return strings.TrimPrefix(url, "file://")
}

// Copy implements Transport.
func (LocalTransport) Copy(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	in, err := os.Open(localPath(src))
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open destination: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy: %w", err)
	}
	return out.Close()
}

// Exists implements Transport.
func (LocalTransport) Exists(ctx context.Context, url string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := os.Stat(localPath(url))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

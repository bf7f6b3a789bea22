package media

import (
	"bytes"
	"context"
	"fmt"

	"github.com/dutchcoders/go-clamd"
)

// ClamdScanner 通过 clamd 的 INSTREAM 命令扫描文件内容。
type ClamdScanner struct {
	client *clamd.Clamd
}

// NewClamdScanner returns a scanner talking to the daemon at addr (tcp://host:port or a unix socket path).
func NewClamdScanner(addr string) *ClamdScanner {
	return &ClamdScanner{client: clamd.NewClamd(addr)}
}

// Scan implements Scanner.
func (s *ClamdScanner) Scan(ctx context.Context, data []byte) error {
	abort := make(chan bool)
	defer close(abort)

	results, err := s.client.ScanStream(bytes.NewReader(data), abort)
	if err != nil {
		return fmt.Errorf("scan file: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case result, ok := <-results:
			if !ok {
				return nil
			}
			if result.Status != clamd.RES_OK {
				return fmt.Errorf("%w: %s", ErrInfected, result.Description)
			}
		}
	}
}

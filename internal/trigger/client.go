package trigger

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
)

func DefaultSocketPath() string {
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir != "" {
		return filepath.Join(runtimeDir, "page-patrol", "trigger.sock")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("page-patrol-%d", os.Getuid()), "trigger.sock")
}

// Send delivers one request to a listener's socket.
func Send(socketPath string, r Request) error {
	if err := r.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	addr, err := net.ResolveUnixAddr("unixgram", socketPath)
	if err != nil {
		return fmt.Errorf("resolve unix addr: %w", err)
	}
	conn, err := net.DialUnix("unixgram", nil, addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", socketPath, err)
	}
	defer conn.Close()
	if _, err := conn.Write(payload); err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	return nil
}

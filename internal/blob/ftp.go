package blob

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
)

// FTP uploads objects to an FTP server whose tree is published over HTTP at
// baseURL. Each upload uses its own connection.
type FTP struct {
	addr     string
	user     string
	password string
	baseURL  string
	timeout  time.Duration
}

func NewFTP(addr, user, password, baseURL string) *FTP {
	return &FTP{
		addr:     addr,
		user:     user,
		password: password,
		baseURL:  baseURL,
		timeout:  10 * time.Second,
	}
}

func (f *FTP) connect(ctx context.Context) (*ftp.ServerConn, error) {
	conn, err := ftp.Dial(f.addr, ftp.DialWithTimeout(f.timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to FTP: %w", err)
	}

	if err := conn.Login(f.user, f.password); err != nil {
		conn.Quit()
		return nil, fmt.Errorf("failed to login to FTP: %w", err)
	}
	return conn, nil
}

func (f *FTP) Upload(ctx context.Context, p string, data []byte, contentType string, upsert bool) error {
	conn, err := f.connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Quit()

	key := cleanPath(p)
	f.makeDirs(conn, path.Dir(key))

	if !upsert {
		if _, err := conn.FileSize(key); err == nil {
			return ErrObjectExists
		}
	}

	if err := conn.Stor(key, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

// makeDirs creates every directory of dir. Errors are ignored: most of them
// mean the directory is already there, and a real problem shows up on Stor.
func (f *FTP) makeDirs(conn *ftp.ServerConn, dir string) {
	if dir == "." || dir == "" {
		return
	}
	current := ""
	for _, part := range strings.Split(dir, "/") {
		current = path.Join(current, part)
		_ = conn.MakeDir(current)
	}
}

func (f *FTP) PublicURL(p string) string {
	return joinURL(f.baseURL, p)
}

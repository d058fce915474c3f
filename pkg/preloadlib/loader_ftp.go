package preloadlib

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
)

const ftpDialTimeout = 30 * time.Second

// ftpLoader loads ftp:// and ftps:// URLs with a single-stream retrieval.
// Credentials from the URL userinfo are used for the session and never
// stored; anonymous auth is the default.
type ftpLoader struct {
	store *CacheStore
}

func (f *ftpLoader) Load(ctx context.Context, rawURL string) error {
	if f.store != nil {
		if ok, _ := f.store.Has(rawURL); ok {
			return nil
		}
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	ftpPath := parsed.Path
	if ftpPath == "" || ftpPath == "/" || path.Base(ftpPath) == "." {
		return fmt.Errorf("ftp: no file path in URL %q", rawURL)
	}
	host := parsed.Host
	if !strings.Contains(host, ":") {
		host += ":21"
	}
	user, pass := "anonymous", "anonymous"
	if parsed.User != nil {
		user = parsed.User.Username()
		if p, ok := parsed.User.Password(); ok {
			pass = p
		}
	}

	conn, err := ftp.Dial(host, ftp.DialWithContext(ctx), ftp.DialWithTimeout(ftpDialTimeout))
	if err != nil {
		return fmt.Errorf("ftp: dial %s: %w", host, err)
	}
	defer conn.Quit()

	if err := conn.Login(user, pass); err != nil {
		return fmt.Errorf("ftp: login: %w", err)
	}
	resp, err := conn.Retr(ftpPath)
	if err != nil {
		return fmt.Errorf("ftp: retr %s: %w", ftpPath, err)
	}
	defer resp.Close()

	if f.store == nil {
		_, err = io.Copy(io.Discard, resp)
		return err
	}
	_, err = f.store.Put(rawURL, "", resp)
	return err
}

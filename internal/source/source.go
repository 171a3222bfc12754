// Package source downloads and unpacks upstream release archives.
package source

import (
	"archive/tar"
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/qiniu/x/log"
	"github.com/ulikunitz/xz"
)

// Fetcher downloads release archives over HTTP.
type Fetcher struct {
	httpClient *http.Client
}

// New creates a Fetcher. A nil client selects one with a ten minute timeout.
func New(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Minute}
	}
	return &Fetcher{httpClient: client}
}

// Download writes the body of url to dest. When sum is non-empty the
// SHA-256 of the body must match it.
func (f *Fetcher) Download(ctx context.Context, url, dest, sum string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(out, h), resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dest)
		return fmt.Errorf("download %s: %w", url, err)
	}
	log.Debugf("source: downloaded %d bytes from %s", n, url)

	if sum != "" {
		if got := hex.EncodeToString(h.Sum(nil)); !strings.EqualFold(got, sum) {
			os.Remove(dest)
			return fmt.Errorf("checksum mismatch for %s: got %s, want %s", url, got, sum)
		}
	}
	return nil
}

// Get downloads url and unpacks it into destDir. The archive itself is
// not kept.
func (f *Fetcher) Get(ctx context.Context, url, destDir, sum string) error {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(destDir, ".download-*")
	if err != nil {
		return err
	}
	archive := tmp.Name()
	tmp.Close()
	defer os.Remove(archive)

	if err := f.Download(ctx, url, archive, sum); err != nil {
		return err
	}
	return Unpack(archive, destDir)
}

var (
	gzipMagic = []byte{0x1f, 0x8b}
	xzMagic   = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
)

// Unpack extracts a tar archive, optionally gzip or xz compressed, into
// destDir. The compression is detected from the archive content.
func Unpack(archive, destDir string) error {
	f, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	magic, _ := br.Peek(len(xzMagic))

	var r io.Reader = br
	switch {
	case bytes.HasPrefix(magic, gzipMagic):
		gz, err := gzip.NewReader(br)
		if err != nil {
			return fmt.Errorf("creating gzip reader: %w", err)
		}
		defer gz.Close()
		r = gz
	case bytes.HasPrefix(magic, xzMagic):
		xr, err := xz.NewReader(br)
		if err != nil {
			return fmt.Errorf("creating xz reader: %w", err)
		}
		r = xr
	}
	return extractTar(tar.NewReader(r), destDir)
}

func extractTar(tr *tar.Reader, destDir string) error {
	root, err := filepath.Abs(destDir)
	if err != nil {
		return err
	}

	files := 0
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading tar entry: %w", err)
		}

		name := strings.TrimPrefix(header.Name, "./")
		if name == "" || name == "." {
			continue
		}
		target, err := safeJoin(root, name)
		if err != nil {
			return err
		}

		if err := checkParent(root, target); err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("creating directory %s: %w", target, err)
			}

		case tar.TypeSymlink:
			if err := checkLink(root, target, header.Linkname); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			os.Remove(target)
			if err := os.Symlink(header.Linkname, target); err != nil {
				return fmt.Errorf("creating symlink %s -> %s: %w", target, header.Linkname, err)
			}

		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			// never write through a link left by an earlier entry
			if fi, err := os.Lstat(target); err == nil && fi.Mode()&os.ModeSymlink != 0 {
				if err := os.Remove(target); err != nil {
					return err
				}
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(header.Mode).Perm())
			if err != nil {
				return fmt.Errorf("creating file %s: %w", target, err)
			}
			_, err = io.Copy(out, tr)
			out.Close()
			if err != nil {
				return fmt.Errorf("writing file %s: %w", target, err)
			}
			files++

		default:
			// pax global headers and similar carry no file content
			log.Debugf("source: skipping %s (type %c)", name, header.Typeflag)
		}
	}
	log.Debugf("source: extracted %d files into %s", files, destDir)
	return nil
}

// safeJoin joins name onto root and rejects results outside root.
func safeJoin(root, name string) (string, error) {
	target := filepath.Join(root, filepath.FromSlash(name))
	if !within(root, target) {
		return "", fmt.Errorf("archive entry %q escapes destination", name)
	}
	return target, nil
}

// checkParent rejects target when its directory, with the symlinks
// already extracted resolved, lies outside root.
func checkParent(root, target string) error {
	realRoot, err := resolveExisting(root)
	if err != nil {
		return err
	}
	dir, err := resolveExisting(filepath.Dir(target))
	if err != nil {
		return fmt.Errorf("resolving %s: %w", filepath.Dir(target), err)
	}
	if !within(realRoot, dir) {
		return fmt.Errorf("archive entry %s is reached through a link outside destination", target)
	}
	return nil
}

// checkLink rejects absolute link targets and relative ones that resolve
// outside root from the link's real directory.
func checkLink(root, target, linkname string) error {
	if linkname == "" || filepath.IsAbs(linkname) || strings.HasPrefix(linkname, "/") {
		return fmt.Errorf("archive link %s -> %q escapes destination", target, linkname)
	}
	realRoot, err := resolveExisting(root)
	if err != nil {
		return err
	}
	dir, err := resolveExisting(filepath.Dir(target))
	if err != nil {
		return err
	}
	if !within(realRoot, filepath.Join(dir, filepath.FromSlash(linkname))) {
		return fmt.Errorf("archive link %s -> %q escapes destination", target, linkname)
	}
	return nil
}

// resolveExisting evaluates the symlinks of the longest existing prefix of
// p and appends the components that do not exist yet.
func resolveExisting(p string) (string, error) {
	var rest []string
	for {
		if _, err := os.Lstat(p); err == nil {
			real, err := filepath.EvalSymlinks(p)
			if err != nil {
				return "", err
			}
			return filepath.Join(append([]string{real}, rest...)...), nil
		}
		parent := filepath.Dir(p)
		if parent == p {
			return filepath.Join(append([]string{p}, rest...)...), nil
		}
		rest = append([]string{filepath.Base(p)}, rest...)
		p = parent
	}
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

package source

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/ulikunitz/xz"
)

type entry struct {
	name     string
	body     string
	typeflag byte
	linkname string
}

func tarball(t *testing.T, entries []entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Typeflag: e.typeflag, Linkname: e.linkname, Mode: 0644}
		switch e.typeflag {
		case tar.TypeDir:
			hdr.Mode = 0755
		case tar.TypeReg:
			hdr.Size = int64(len(e.body))
			if filepath.Base(e.name) == "runConfigureICU" {
				hdr.Mode = 0755
			}
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("write header: %v", err)
		}
		if e.typeflag == tar.TypeReg {
			if _, err := tw.Write([]byte(e.body)); err != nil {
				t.Fatalf("write body: %v", err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	return buf.Bytes()
}

func gzipped(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write(data)
	if err := zw.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	return buf.Bytes()
}

func xzed(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	xw, err := xz.NewWriter(&buf)
	if err != nil {
		t.Fatalf("xz writer: %v", err)
	}
	xw.Write(data)
	if err := xw.Close(); err != nil {
		t.Fatalf("close xz: %v", err)
	}
	return buf.Bytes()
}

var icuEntries = []entry{
	{name: "icu-release-63-1/", typeflag: tar.TypeDir},
	{name: "icu-release-63-1/icu4c/LICENSE", body: "COPYRIGHT AND PERMISSION NOTICE", typeflag: tar.TypeReg},
	{name: "icu-release-63-1/icu4c/source/runConfigureICU", body: "#!/bin/sh\n", typeflag: tar.TypeReg},
}

func TestUnpackFormats(t *testing.T) {
	raw := tarball(t, icuEntries)
	for name, data := range map[string][]byte{
		"plain": raw,
		"gzip":  gzipped(t, raw),
		"xz":    xzed(t, raw),
	} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			archive := filepath.Join(dir, "archive")
			if err := os.WriteFile(archive, data, 0644); err != nil {
				t.Fatal(err)
			}
			dest := filepath.Join(dir, "out")
			if err := Unpack(archive, dest); err != nil {
				t.Fatalf("Unpack: %v", err)
			}
			got, err := os.ReadFile(filepath.Join(dest, "icu-release-63-1", "icu4c", "LICENSE"))
			if err != nil {
				t.Fatalf("read LICENSE: %v", err)
			}
			if string(got) != "COPYRIGHT AND PERMISSION NOTICE" {
				t.Fatalf("LICENSE = %q", got)
			}
			if runtime.GOOS != "windows" {
				info, err := os.Stat(filepath.Join(dest, "icu-release-63-1", "icu4c", "source", "runConfigureICU"))
				if err != nil {
					t.Fatalf("stat runConfigureICU: %v", err)
				}
				if info.Mode().Perm()&0100 == 0 {
					t.Errorf("runConfigureICU mode = %v, want executable", info.Mode())
				}
			}
		})
	}
}

func TestUnpackSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	raw := tarball(t, []entry{
		{name: "pkg/lib/libicuuc.so.63.1", body: "elf", typeflag: tar.TypeReg},
		{name: "pkg/lib/libicuuc.so", typeflag: tar.TypeSymlink, linkname: "libicuuc.so.63.1"},
	})
	dir := t.TempDir()
	archive := filepath.Join(dir, "a.tar")
	os.WriteFile(archive, raw, 0644)
	if err := Unpack(archive, dir); err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	link, err := os.Readlink(filepath.Join(dir, "pkg", "lib", "libicuuc.so"))
	if err != nil {
		t.Fatalf("readlink: %v", err)
	}
	if link != "libicuuc.so.63.1" {
		t.Fatalf("link = %q", link)
	}
}

func TestUnpackRejectsTraversal(t *testing.T) {
	raw := tarball(t, []entry{
		{name: "../evil.txt", body: "x", typeflag: tar.TypeReg},
	})
	dir := t.TempDir()
	archive := filepath.Join(dir, "a.tar")
	os.WriteFile(archive, raw, 0644)
	if err := Unpack(archive, filepath.Join(dir, "out")); err == nil {
		t.Fatal("Unpack() = nil, want traversal error")
	}
	if _, err := os.Stat(filepath.Join(dir, "evil.txt")); err == nil {
		t.Fatal("entry escaped the destination directory")
	}
}

func TestUnpackRejectsLinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	outside := t.TempDir()
	tests := []struct {
		name    string
		entries []entry
	}{
		{
			name: "absolute link",
			entries: []entry{
				{name: "icu/link", typeflag: tar.TypeSymlink, linkname: outside},
				{name: "icu/link/evil.txt", body: "x", typeflag: tar.TypeReg},
			},
		},
		{
			name: "relative link",
			entries: []entry{
				{name: "icu/link", typeflag: tar.TypeSymlink, linkname: "../../" + filepath.Base(outside)},
				{name: "icu/link/evil.txt", body: "x", typeflag: tar.TypeReg},
			},
		},
		{
			name: "chained links",
			entries: []entry{
				{name: "icu/up", typeflag: tar.TypeSymlink, linkname: ".."},
				{name: "icu/up/out", typeflag: tar.TypeSymlink, linkname: ".."},
				{name: "icu/up/out/evil.txt", body: "x", typeflag: tar.TypeReg},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			archive := filepath.Join(dir, "a.tar")
			if err := os.WriteFile(archive, tarball(t, tt.entries), 0644); err != nil {
				t.Fatal(err)
			}
			dest := filepath.Join(dir, "out")
			if err := Unpack(archive, dest); err == nil {
				t.Fatal("Unpack() = nil, want link escape error")
			}
			for _, p := range []string{filepath.Join(outside, "evil.txt"), filepath.Join(dir, "evil.txt")} {
				if _, err := os.Stat(p); err == nil {
					t.Fatalf("%s written outside the destination", p)
				}
			}
		})
	}
}

func TestUnpackReplacesLinkWithFile(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	raw := tarball(t, []entry{
		{name: "icu/data.txt", body: "data", typeflag: tar.TypeReg},
		{name: "icu/alias", typeflag: tar.TypeSymlink, linkname: "data.txt"},
		{name: "icu/alias", body: "alias", typeflag: tar.TypeReg},
	})
	dir := t.TempDir()
	archive := filepath.Join(dir, "a.tar")
	os.WriteFile(archive, raw, 0644)
	dest := filepath.Join(dir, "out")
	if err := Unpack(archive, dest); err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	got, _ := os.ReadFile(filepath.Join(dest, "icu", "data.txt"))
	if string(got) != "data" {
		t.Fatalf("data.txt = %q, written through the link", got)
	}
}

func TestGet(t *testing.T) {
	body := gzipped(t, tarball(t, icuEntries))
	sum := sha256.Sum256(body)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/release-63-1.tar.gz" {
			http.NotFound(w, r)
			return
		}
		w.Write(body)
	}))
	defer srv.Close()

	f := New(srv.Client())
	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		dest := t.TempDir()
		if err := f.Get(ctx, srv.URL+"/release-63-1.tar.gz", dest, hex.EncodeToString(sum[:])); err != nil {
			t.Fatalf("Get: %v", err)
		}
		if _, err := os.Stat(filepath.Join(dest, "icu-release-63-1", "icu4c", "LICENSE")); err != nil {
			t.Fatalf("LICENSE missing: %v", err)
		}
		entries, _ := os.ReadDir(dest)
		if len(entries) != 1 {
			t.Fatalf("dest has %d entries, want only the unpacked tree", len(entries))
		}
	})

	t.Run("checksum mismatch", func(t *testing.T) {
		dest := t.TempDir()
		if err := f.Get(ctx, srv.URL+"/release-63-1.tar.gz", dest, "00"); err == nil {
			t.Fatal("Get() = nil, want checksum error")
		}
	})

	t.Run("not found", func(t *testing.T) {
		dest := t.TempDir()
		if err := f.Get(ctx, srv.URL+"/missing.tar.gz", dest, ""); err == nil {
			t.Fatal("Get() = nil, want status error")
		}
	})
}

package internal

import (
	"bytes"
	"strings"
	"testing"

	"github.com/goplus/icubuild/internal/build"
	"github.com/goplus/icubuild/internal/icu"
)

func TestPrintRecord(t *testing.T) {
	rec := &build.Record{
		Module:    "unicode-org/icu@63.1",
		PackageID: "x86_64-Macos",
		Info: &icu.Info{
			IncludeDirs: []string{"include"},
			LibDirs:     []string{"lib"},
			BinDirs:     []string{"bin"},
			Libs:        []string{"icui18n", "icuuc", "icudata"},
			SystemLibs:  []string{"dl"},
			Defines:     []string{"U_STATIC_IMPLEMENTATION"},
			Env: map[string][]string{
				"PATH":     {"/pkg/bin"},
				"ICU_DATA": {"/pkg/share/icu/63.1/icudt63l.dat"},
			},
		},
	}
	var buf bytes.Buffer
	printRecord(&buf, "/pkg", rec)
	out := buf.String()

	for _, want := range []string{
		"package id: x86_64-Macos\n",
		"libs:       icui18n icuuc icudata dl\n",
		"defines:    U_STATIC_IMPLEMENTATION\n",
		"env ICU_DATA=/pkg/share/icu/63.1/icudt63l.dat\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "env ICU_DATA") > strings.Index(out, "env PATH") {
		t.Errorf("env not sorted:\n%s", out)
	}
	if strings.Contains(out, "cppflags") {
		t.Errorf("empty cppflags printed:\n%s", out)
	}
}

func TestPrintRecordWithoutInfo(t *testing.T) {
	var buf bytes.Buffer
	printRecord(&buf, "/pkg", &build.Record{Module: "unicode-org/icu@63.1", PackageID: "x86_64-Macos"})
	if strings.Contains(buf.String(), "libs:") {
		t.Errorf("libs printed without info:\n%s", buf.String())
	}
}

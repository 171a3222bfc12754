package build

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/goplus/icubuild/internal/icu"
)

// RecordFile is the metadata file written at the root of every package.
const RecordFile = "icubuild.json"

// Record is the persisted description of a package.
type Record struct {
	Module        string       `json:"module"`
	PackageID     string       `json:"package_id"`
	Settings      icu.Settings `json:"settings"`
	Options       icu.Options  `json:"options"`
	BuildRequires []string     `json:"build_requires,omitempty"`
	Info          *icu.Info    `json:"info"`
	BuildTime     time.Time    `json:"build_time"`
}

// SaveRecord writes rec into pkgDir.
func SaveRecord(pkgDir string, rec *Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(pkgDir, RecordFile), data, 0644)
}

// LoadRecord reads the record of the package in pkgDir.
func LoadRecord(pkgDir string) (*Record, error) {
	data, err := os.ReadFile(filepath.Join(pkgDir, RecordFile))
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

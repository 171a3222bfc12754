package formula

import (
	"io"
	"io/fs"
)

// -----------------------------------------------------------------------------

// Project represents the unpacked source tree being built.
type Project struct {
	SourceFS fs.FS
}

// ReadFile reads the content of a file in the project.
func (p *Project) ReadFile(path string) ([]byte, error) {
	file, err := p.SourceFS.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}

// Exists reports whether path names a file or directory in the project.
func (p *Project) Exists(path string) bool {
	_, err := fs.Stat(p.SourceFS, path)
	return err == nil
}

// -----------------------------------------------------------------------------

// BuildResult represents the result of building a project.
type BuildResult struct {
	errs     []error
	metadata string // link metadata of the package, in pkg-config style.
}

// AddErr records a non-fatal build error.
func (b *BuildResult) AddErr(err error) {
	b.errs = append(b.errs, err)
}

// Errs returns all errors collected during build.
func (b *BuildResult) Errs() []error {
	return b.errs
}

// Metadata returns the build output metadata.
func (b *BuildResult) Metadata() string {
	return b.metadata
}

// SetMetadata sets the build output metadata.
func (b *BuildResult) SetMetadata(metadata string) {
	b.metadata = metadata
}

// -----------------------------------------------------------------------------

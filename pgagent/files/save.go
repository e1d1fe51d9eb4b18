package files

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/andruche/pgagent-yaml/errors"
	"github.com/andruche/pgagent-yaml/pgagent/document"
)

// Extension of written documents.
const Extension = ".yaml"

// Encode renders one job document. Multi-line strings use the literal block
// style; strings with carriage returns are double-quoted so they read back unchanged.
func Encode(name string, job *document.Job) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(map[string]*document.Job{name: job}); err != nil {
		return nil, errors.Wrapf(err, "job %q", name)
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrapf(err, "job %q", name)
	}
	return buf.Bytes(), nil
}

// FileName returns the document file name for a job.
func FileName(name string) (string, error) {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return "", errors.Mark(
			errors.Newf("job name %q cannot be used as a file name", name),
			errors.ErrInvalidDocument,
		)
	}
	return name + Extension, nil
}

// Save writes the document of one job into dir and returns its path.
func Save(dir, name string, job *document.Job) (string, error) {
	file, err := FileName(name)
	if err != nil {
		return "", err
	}
	data, err := Encode(name, job)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, file)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrapf(err, "failed to write %s", path)
	}
	return path, nil
}

// PrepareOutDir makes sure dir exists and is empty. A non-empty dir is removed
// first when clean is set, otherwise it is an error.
func PrepareOutDir(dir string, clean bool) error {
	entries, err := os.ReadDir(dir)
	switch {
	case err == nil && len(entries) > 0:
		if !clean {
			return errors.WithHint(
				errors.Newf("out_dir directory %s not empty", dir),
				"you can use option --clean",
			)
		}
		if err := os.RemoveAll(dir); err != nil {
			return errors.Wrapf(err, "failed to clean %s", dir)
		}
	case err != nil && !os.IsNotExist(err):
		return errors.Wrapf(err, "can not access to directory %s", dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "can not access to directory %s", dir)
	}
	return nil
}

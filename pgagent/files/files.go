// Package files reads and writes job documents: one YAML file per job whose
// single top-level key is the job name.
package files

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/andruche/pgagent-yaml/errors"
	"github.com/andruche/pgagent-yaml/pgagent/document"
	"github.com/andruche/pgagent-yaml/pgagent/reconcile"
)

// Source is a set of job documents loaded from disk.
type Source struct {
	Jobs  map[string]*document.Job
	Scope reconcile.Scope
	// Paths maps each job name to the file it was read from.
	Paths map[string]string
}

// IsDocument reports whether name looks like a job document.
func IsDocument(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(base))
	return ext == ".yaml" || ext == ".yml"
}

// Load reads a single document (unit scope) or every document of a directory
// (collection scope). Jobs without a class get defaultClass.
func Load(path, defaultClass string) (*Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to access source %s", path)
	}

	src := &Source{
		Jobs:  map[string]*document.Job{},
		Scope: reconcile.ScopeUnit,
		Paths: map[string]string{},
	}
	paths := []string{path}
	if info.IsDir() {
		src.Scope = reconcile.ScopeCollection
		if paths, err = listDocuments(path); err != nil {
			return nil, err
		}
	}

	keys := map[string]string{}
	for _, p := range paths {
		name, job, err := LoadFile(p, defaultClass)
		if err != nil {
			return nil, err
		}
		key := document.NameKey(name)
		if other, dup := keys[key]; dup {
			return nil, errors.Mark(
				errors.Newf("job %q in %s collides with job %q in %s", name, p, other, src.Paths[other]),
				errors.ErrDuplicateName,
			)
		}
		keys[key] = name
		src.Jobs[name] = job
		src.Paths[name] = p
	}
	return src, nil
}

func listDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read directory %s", dir)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !IsDocument(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// LoadFile reads one job document and returns its name and canonical job.
func LoadFile(path, defaultClass string) (string, *document.Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, errors.Wrapf(err, "failed to read %s", path)
	}
	name, job, err := Decode(data, defaultClass)
	if err != nil {
		return "", nil, errors.Wrapf(err, "%s", path)
	}
	return name, job, nil
}

// Decode parses one job document.
func Decode(data []byte, defaultClass string) (string, *document.Job, error) {
	var root yaml.Node
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&root); err != nil {
		if err == io.EOF {
			return "", nil, errors.Mark(errors.New("empty document"), errors.ErrInvalidDocument)
		}
		return "", nil, errors.Mark(err, errors.ErrInvalidDocument)
	}

	top := &root
	if top.Kind == yaml.DocumentNode && len(top.Content) == 1 {
		top = top.Content[0]
	}
	if top.Kind != yaml.MappingNode || len(top.Content) != 2 {
		return "", nil, errors.Mark(
			errors.Newf("line %d: document must be a mapping with exactly one key, the job name", top.Line),
			errors.ErrInvalidDocument,
		)
	}

	name := top.Content[0].Value
	if document.NameKey(name) == "" {
		return "", nil, errors.Mark(
			errors.Newf("line %d: empty job name", top.Content[0].Line),
			errors.ErrInvalidDocument,
		)
	}
	body := top.Content[1]
	if body.Kind != yaml.MappingNode {
		return "", nil, errors.Mark(
			errors.Newf("line %d: job %q must be a mapping", body.Line, name),
			errors.ErrInvalidDocument,
		)
	}

	// Decode again with KnownFields so misspelled keys are rejected.
	var docs map[string]*document.Job
	strict := yaml.NewDecoder(bytes.NewReader(data))
	strict.KnownFields(true)
	if err := strict.Decode(&docs); err != nil {
		return "", nil, errors.Wrapf(errors.Mark(err, errors.ErrInvalidDocument), "job %q", name)
	}
	job := docs[name]

	if err := job.Prepare(name, defaultClass); err != nil {
		return "", nil, errors.Wrapf(err, "job %q", name)
	}
	return name, job, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// ABOUTME: Policy source discovery from a directory, a YAML manifest or the built-in set
// ABOUTME: Produces the ordered Source list that Load consumes

package corpus

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ManifestFile is the optional file that fixes order, ids and titles in a policy directory
const ManifestFile = "policies.yaml"

// IDPrefix is prepended to the upper-cased file stem to form a document id
const IDPrefix = "POL-"

//go:embed data/policies/*.md data/policies/policies.yaml
var builtinFS embed.FS

// Manifest lists policy files in load order
type Manifest struct {
	Policies []ManifestEntry `yaml:"policies"`
}

// ManifestEntry describes one policy file
type ManifestEntry struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
	File  string `yaml:"file"`
}

// Builtin returns the sources shipped with the binary
func Builtin() ([]Source, error) {
	sub, err := fs.Sub(builtinFS, "data/policies")
	if err != nil {
		return nil, err
	}
	return ReadFS(sub)
}

// ReadDir returns the sources found in a policy directory on disk
func ReadDir(dir string) ([]Source, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("policy dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("policy dir %s: not a directory", dir)
	}
	return ReadFS(os.DirFS(dir))
}

// ReadFS returns the sources in fsys.
// If a manifest is present it decides order, ids and titles; otherwise every
// *.md file is loaded in file name order.
func ReadFS(fsys fs.FS) ([]Source, error) {
	data, err := fs.ReadFile(fsys, ManifestFile)
	switch {
	case err == nil:
		var m Manifest
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parse %s: %w", ManifestFile, err)
		}
		return fromManifest(fsys, m)
	case errors.Is(err, fs.ErrNotExist):
		return fromGlob(fsys)
	default:
		return nil, fmt.Errorf("read %s: %w", ManifestFile, err)
	}
}

func fromManifest(fsys fs.FS, m Manifest) ([]Source, error) {
	sources := make([]Source, 0, len(m.Policies))
	for _, entry := range m.Policies {
		if entry.File == "" {
			return nil, fmt.Errorf("manifest entry %q has no file", entry.ID)
		}
		raw, err := fs.ReadFile(fsys, entry.File)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.File, err)
		}
		src := sourceFromFile(entry.File, string(raw))
		if entry.ID != "" {
			src.ID = entry.ID
		}
		if entry.Title != "" {
			src.Title = entry.Title
		}
		sources = append(sources, src)
	}
	return sources, nil
}

func fromGlob(fsys fs.FS) ([]Source, error) {
	names, err := fs.Glob(fsys, "*.md")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	sources := make([]Source, 0, len(names))
	for _, name := range names {
		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		sources = append(sources, sourceFromFile(name, string(raw)))
	}
	return sources, nil
}

// sourceFromFile derives id and title from a file name and its first heading
func sourceFromFile(name, raw string) Source {
	stem := strings.TrimSuffix(path.Base(name), path.Ext(name))
	id := IDPrefix + strings.ToUpper(strings.Join(strings.Fields(strings.ReplaceAll(stem, "_", "-")), "-"))

	title := stem
	for _, line := range strings.Split(raw, "\n") {
		if h, ok := headingText(line); ok && h != "" {
			title = h
			break
		}
	}
	return Source{ID: id, Title: title, Raw: raw}
}

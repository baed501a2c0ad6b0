package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"finhealth/internal/model"
)

// Source produces the full catalog from wherever it is stored
type Source interface {
	Load(ctx context.Context) (model.Catalog, error)
	Name() string
}

// Reader is the persistence side of a catalog; the Mongo catalog repository implements it
type Reader interface {
	LoadCatalog(ctx context.Context) (model.Catalog, error)
}

// RepoSource loads the catalog from a repository
type RepoSource struct {
	reader Reader
}

func NewRepoSource(reader Reader) *RepoSource {
	return &RepoSource{reader: reader}
}

func (s *RepoSource) Load(ctx context.Context) (model.Catalog, error) {
	return s.reader.LoadCatalog(ctx)
}

func (s *RepoSource) Name() string { return "mongo" }

// FileSource loads the catalog from a YAML (or JSON) file
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return &FileSource{path: filepath.Clean(path)}
}

// Path is the absolute path of the catalog file
func (s *FileSource) Path() string { return s.path }

func (s *FileSource) Name() string { return "file" }

func (s *FileSource) Load(ctx context.Context) (model.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return model.Catalog{}, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return model.Catalog{}, fmt.Errorf("read catalog file: %w", err)
	}
	return DecodeCatalog(data)
}

// DecodeCatalog parses a YAML or JSON catalog document
func DecodeCatalog(data []byte) (model.Catalog, error) {
	var c model.Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return model.Catalog{}, fmt.Errorf("decode catalog: %w", err)
	}
	return c, nil
}

// EncodeCatalog renders c as YAML
func EncodeCatalog(c model.Catalog) ([]byte, error) {
	return yaml.Marshal(c)
}

// WriteFile writes c to path as YAML, replacing the file atomically
func WriteFile(path string, c model.Catalog) error {
	data, err := EncodeCatalog(c)
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".catalog-*.yaml")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// StaticSource serves a fixed catalog; used for the built-in default catalog and tests
type StaticSource struct {
	catalog model.Catalog
}

func NewStaticSource(c model.Catalog) *StaticSource {
	return &StaticSource{catalog: c}
}

func (s *StaticSource) Load(ctx context.Context) (model.Catalog, error) {
	return s.catalog, ctx.Err()
}

func (s *StaticSource) Name() string { return "static" }

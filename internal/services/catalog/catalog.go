// Package catalog loads and holds the carrier product rule catalog.
//
// Rules are YAML documents, one record per product, read from a local
// directory or an S3 prefix. The catalog is loaded once at startup and held
// read-only; Reload atomically replaces the whole snapshot so in-flight
// scoring passes see either the old or the new catalog in full, never a mix.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"carrier-recommendation-engine/internal/models"
)

// Document is one raw rule file fetched from a source.
type Document struct {
	Name string
	Data []byte
}

// Source fetches raw rule documents from a rule store.
type Source interface {
	Fetch(ctx context.Context) ([]Document, error)
}

// Catalog holds the current rule snapshot.
type Catalog struct {
	source   Source
	logger   *zap.Logger
	snapshot atomic.Pointer[[]*models.ProductRule]
}

// New creates a catalog backed by the given source. Call Load before use.
func New(source Source, logger *zap.Logger) *Catalog {
	c := &Catalog{source: source, logger: logger}
	empty := make([]*models.ProductRule, 0)
	c.snapshot.Store(&empty)
	return c
}

// Load fetches and parses all rule documents, then atomically replaces the
// snapshot. Malformed records are logged and skipped; a missing or empty
// store yields an empty catalog, not an error.
func (c *Catalog) Load(ctx context.Context) error {
	docs, err := c.source.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch rule documents: %w", err)
	}

	rules := make([]*models.ProductRule, 0, len(docs))
	skipped := 0

	for _, doc := range docs {
		parsed, bad := parseDocument(doc, c.logger)
		rules = append(rules, parsed...)
		skipped += bad
	}

	// Deterministic catalog order regardless of source listing order.
	sort.Slice(rules, func(i, j int) bool { return rules[i].Key() < rules[j].Key() })

	c.snapshot.Store(&rules)

	c.logger.Info("Loaded rule catalog",
		zap.Int("rules", len(rules)),
		zap.Int("skipped", skipped),
		zap.Int("documents", len(docs)),
	)

	return nil
}

// Reload re-reads the rule store and swaps the snapshot.
func (c *Catalog) Reload(ctx context.Context) error {
	return c.Load(ctx)
}

// Rules returns the current immutable rule snapshot.
func (c *Catalog) Rules() []*models.ProductRule {
	return *c.snapshot.Load()
}

// Len returns the number of loaded rules.
func (c *Catalog) Len() int {
	return len(c.Rules())
}

// parseDocument decodes all YAML documents in one rule file. Each document
// is validated once at load time; invalid records are counted and skipped.
func parseDocument(doc Document, logger *zap.Logger) ([]*models.ProductRule, int) {
	var rules []*models.ProductRule
	skipped := 0

	decoder := yaml.NewDecoder(strings.NewReader(string(doc.Data)))
	for {
		var rule models.ProductRule
		err := decoder.Decode(&rule)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			logger.Warn("Skipping malformed rule document",
				zap.String("file", doc.Name),
				zap.Error(err),
			)
			skipped++
			// A decode error leaves the stream unusable; stop on this file.
			break
		}

		if err := rule.Validate(); err != nil {
			logger.Warn("Skipping invalid rule record",
				zap.String("file", doc.Name),
				zap.String("carrier", rule.Carrier),
				zap.String("product", rule.Product),
				zap.Error(err),
			)
			skipped++
			continue
		}

		rules = append(rules, &rule)
	}

	return rules, skipped
}

// DirSource reads rule files from a local directory tree.
type DirSource struct {
	dir    string
	logger *zap.Logger
}

// NewDirSource creates a directory-backed rule source.
func NewDirSource(dir string, logger *zap.Logger) *DirSource {
	return &DirSource{dir: dir, logger: logger}
}

// Fetch reads every .yaml/.yml file under the directory. A missing
// directory yields zero documents.
func (s *DirSource) Fetch(_ context.Context) ([]Document, error) {
	if _, err := os.Stat(s.dir); errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("Rules directory not found, catalog will be empty",
			zap.String("dir", s.dir),
		)
		return nil, nil
	}

	var docs []Document
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isYAMLFile(path) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read rule file %s: %w", path, err)
		}
		docs = append(docs, Document{Name: path, Data: data})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func isYAMLFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// ObjectStore is the subset of S3 operations the catalog needs.
type ObjectStore interface {
	ListKeys(ctx context.Context, prefix string, maxKeys int32) ([]string, error)
	DownloadFile(ctx context.Context, key string) ([]byte, error)
}

// S3Source reads rule files from an S3 bucket prefix.
type S3Source struct {
	store  ObjectStore
	prefix string
	logger *zap.Logger
}

// NewS3Source creates an S3-backed rule source.
func NewS3Source(store ObjectStore, prefix string, logger *zap.Logger) *S3Source {
	return &S3Source{store: store, prefix: prefix, logger: logger}
}

// Fetch downloads every YAML object under the prefix.
func (s *S3Source) Fetch(ctx context.Context) ([]Document, error) {
	keys, err := s.store.ListKeys(ctx, s.prefix, 1000)
	if err != nil {
		return nil, fmt.Errorf("failed to list rule objects: %w", err)
	}

	var docs []Document
	for _, key := range keys {
		if !isYAMLFile(key) {
			continue
		}
		data, err := s.store.DownloadFile(ctx, key)
		if err != nil {
			s.logger.Warn("Skipping unreadable rule object",
				zap.String("key", key),
				zap.Error(err),
			)
			continue
		}
		docs = append(docs, Document{Name: key, Data: data})
	}
	return docs, nil
}

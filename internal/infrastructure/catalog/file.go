package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/docdesk/docdesk/internal/core/domain"
)

// FileSource loads the topic catalog from a YAML or JSON file. Both formats
// are a single mapping of topic name to document reference; the file's key
// order becomes the catalog order.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Load(ctx context.Context) (domain.TopicCatalog, error) {
	if err := ctx.Err(); err != nil {
		return domain.TopicCatalog{}, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return domain.TopicCatalog{}, domain.WrapError(domain.ErrCatalogLoad, "read catalog file", err)
	}

	var entries []domain.TopicEntry
	switch strings.ToLower(filepath.Ext(s.path)) {
	case ".yaml", ".yml":
		entries, err = parseYAMLEntries(data)
	case ".json":
		entries, err = parseJSONEntries(data)
	default:
		err = fmt.Errorf("unsupported catalog file extension %q", filepath.Ext(s.path))
	}
	if err != nil {
		return domain.TopicCatalog{}, domain.WrapError(domain.ErrCatalogLoad, "parse catalog file", err)
	}

	catalog, err := domain.NewTopicCatalog(entries)
	if err != nil {
		return domain.TopicCatalog{}, domain.WrapError(domain.ErrCatalogLoad, "validate catalog", err)
	}
	return catalog, nil
}

// parseYAMLEntries walks the yaml node tree instead of unmarshaling into a
// map, which would lose the key order.
func parseYAMLEntries(data []byte) ([]domain.TopicEntry, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, fmt.Errorf("catalog yaml is empty")
	}

	mapping := root.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("catalog yaml must be a mapping of topic name to document ref")
	}

	entries := make([]domain.TopicEntry, 0, len(mapping.Content)/2)
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key := mapping.Content[i]
		value := mapping.Content[i+1]
		if value.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("topic %q: document ref must be a string", key.Value)
		}
		entries = append(entries, domain.TopicEntry{
			Name:        key.Value,
			DocumentRef: value.Value,
		})
	}
	return entries, nil
}

// parseJSONEntries streams object tokens for the same reason: encoding/json
// maps do not preserve key order.
func parseJSONEntries(data []byte) ([]domain.TopicEntry, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))

	token, err := decoder.Token()
	if err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("catalog json must be an object of topic name to document ref")
	}

	var entries []domain.TopicEntry
	for decoder.More() {
		keyToken, err := decoder.Token()
		if err != nil {
			return nil, fmt.Errorf("parse json key: %w", err)
		}
		name, ok := keyToken.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected json key token %v", keyToken)
		}

		var ref string
		if err := decoder.Decode(&ref); err != nil {
			return nil, fmt.Errorf("topic %q: document ref must be a string: %w", name, err)
		}
		entries = append(entries, domain.TopicEntry{
			Name:        name,
			DocumentRef: ref,
		})
	}
	return entries, nil
}

package catalog

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/ppm-finder/internal/model"
)

// Format is a catalog file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFor picks the format from a file extension. Anything that is not
// .json is read as YAML.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Parse validates data against the schema, decodes it, normalizes it and
// checks the cross-reference rules.
func Parse(data []byte, format Format) (*Catalog, error) {
	problems, err := ValidateDocument(data, format)
	if err != nil {
		return nil, err
	}
	if len(problems) > 0 {
		return nil, eris.Errorf("catalog: schema: %s", strings.Join(problems, "; "))
	}

	var c Catalog
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &c)
	default:
		err = yaml.Unmarshal(data, &c)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: decode %s", format)
	}

	c.Normalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadFile reads and parses the catalog at path.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: read %s", path)
	}
	c, err := Parse(data, FormatFor(path))
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: load %s", path)
	}
	return c, nil
}

// FileSource reads a catalog file on every call. Wrap it in Cached to
// avoid re-reading.
type FileSource struct {
	path string
}

// NewFileSource returns a FileSource for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (f *FileSource) Tools(context.Context) ([]model.Tool, error) {
	c, err := LoadFile(f.path)
	if err != nil {
		return nil, err
	}
	return c.Tools, nil
}

func (f *FileSource) Criteria(context.Context) ([]model.Criterion, error) {
	c, err := LoadFile(f.path)
	if err != nil {
		return nil, err
	}
	return c.Criteria, nil
}

package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

//go:embed data/catalog.schema.json
var schemaJSON []byte

const schemaName = "catalog.schema.json"

var printer = message.NewPrinter(language.English)

var compiledSchema = sync.OnceValue(func() *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		panic(fmt.Sprintf("catalog: parse embedded schema: %v", err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaName, doc); err != nil {
		panic(fmt.Sprintf("catalog: add schema resource: %v", err))
	}
	sch, err := compiler.Compile(schemaName)
	if err != nil {
		panic(fmt.Sprintf("catalog: compile schema: %v", err))
	}
	return sch
})

// SchemaJSON returns the embedded catalog JSON Schema.
func SchemaJSON() []byte {
	return bytes.Clone(schemaJSON)
}

// ValidateDocument checks raw catalog bytes against the JSON Schema and
// returns one message per violation, each prefixed with its location.
func ValidateDocument(data []byte, format Format) ([]string, error) {
	var doc any
	switch format {
	case FormatJSON:
		v, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			return nil, eris.Wrap(err, "catalog: parse json")
		}
		doc = v
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, eris.Wrap(err, "catalog: parse yaml")
		}
	default:
		return nil, eris.Errorf("catalog: unknown format %q", format)
	}

	err := compiledSchema().Validate(doc)
	if err == nil {
		return nil, nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []string{fmt.Sprintf("schema: %v", err)}, nil
	}
	var problems []string
	collect(ve, &problems)
	return problems, nil
}

func collect(ve *jsonschema.ValidationError, out *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/" + strings.Join(ve.InstanceLocation, "/")
		*out = append(*out, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(printer)))
		return
	}
	for _, c := range ve.Causes {
		collect(c, out)
	}
}

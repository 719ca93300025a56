package catalog

import (
	_ "embed"
	"sync"
)

//go:embed data/defaults.yaml
var defaultsYAML []byte

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := Parse(defaultsYAML, FormatYAML)
	if err != nil {
		panic("catalog: embedded defaults: " + err.Error())
	}
	return c
})

// Defaults returns the embedded default catalog. It is shared; read it
// through NewStatic or DefaultProvider rather than mutating it.
func Defaults() *Catalog {
	return defaultCatalog()
}

// DefaultProvider serves the embedded default catalog.
func DefaultProvider() *Static {
	return NewStatic(Defaults())
}

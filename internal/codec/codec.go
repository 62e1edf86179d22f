// Package codec converts flows to and from their serialized forms.
package codec

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/alfredjeanlab/flowgraph/internal/model"
)

// Importer reads a flow from a serialized form.
type Importer interface {
	Parse(r io.Reader) (model.Flow, error)
	Format() string
}

// Exporter writes a flow in a serialized form.
type Exporter interface {
	Export(f model.Flow, w io.Writer) error
	Format() string
}

// Codec both imports and exports one format.
type Codec interface {
	Importer
	Exporter
}

var codecs = map[string]Codec{
	"json": NewIndentedJSONCodec(),
	"yaml": NewYAMLCodec(),
}

// ForFormat returns the codec registered for format ("json" or "yaml").
func ForFormat(format string) (Codec, error) {
	format = strings.ToLower(format)
	if format == "yml" {
		format = "yaml"
	}
	c, ok := codecs[format]
	if !ok {
		return nil, fmt.Errorf("unsupported format %q (want one of %s)", format, strings.Join(Formats(), ", "))
	}
	return c, nil
}

// Formats lists the registered format names.
func Formats() []string {
	out := make([]string, 0, len(codecs))
	for name := range codecs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ABOUTME: Template rendering for context and recovery documents
// ABOUTME: Named markdown templates with truthy sections and output cleanup
package render

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"
	"text/template"
)

// Renderer resolves named templates under a root directory, falling back
// to the embedded defaults when no root is configured or the file is
// absent from it.
type Renderer struct {
	root string
}

// NewRenderer creates a renderer. An empty root means embedded templates
// only.
func NewRenderer(root string) *Renderer {
	return &Renderer{root: root}
}

// funcs is shared by every template. truthy carries the document
// pipeline's falsy rules: false, "false", empty string, zero, and empty
// collections all suppress a section.
var funcs = template.FuncMap{
	"truthy": Truthy,
}

// Render loads the named template, applies data, and cleans the output.
// Missing or unreadable templates are reported with the attempted path
// and the configured root, never as a raw I/O error.
func (r *Renderer) Render(name string, data interface{}) (string, error) {
	text, err := r.load(name)
	if err != nil {
		return "", err
	}

	tmpl, err := template.New(name).Funcs(funcs).Option("missingkey=zero").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse template %q: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template %q: %w", name, err)
	}

	return Cleanup(buf.String()), nil
}

func (r *Renderer) load(name string) (string, error) {
	filename := name + ".md.tmpl"

	if r.root != "" {
		path := filepath.Join(r.root, filename)
		raw, err := os.ReadFile(path)
		if err == nil {
			return string(raw), nil
		}
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("read template %s (root %s): %w", path, r.root, err)
		}
	}

	raw, err := templateFS.ReadFile("templates/" + filename)
	if err != nil {
		root := r.root
		if root == "" {
			root = "(embedded)"
		}
		return "", fmt.Errorf("template %q not found (looked in %s and embedded defaults)", name, root)
	}
	return string(raw), nil
}

// Truthy reports whether a value renders a section. Booleans follow
// their value, the string "false" counts as false, numeric zero and
// empty strings/slices/maps are false, nil is false.
func Truthy(v interface{}) bool {
	if v == nil {
		return false
	}

	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val != "" && val != "false"
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Ptr, reflect.Interface:
		return !rv.IsNil() && Truthy(rv.Elem().Interface())
	}
	return true
}

var (
	internalBlockPattern = regexp.MustCompile(`(?s)<!--\s*speckeep:internal\s*-->.*?<!--\s*/speckeep:internal\s*-->\n?`)
	blankRunPattern      = regexp.MustCompile(`\n{4,}`)
)

// Cleanup strips internal authoring-only comment blocks and collapses
// runs of three or more blank lines down to one.
func Cleanup(doc string) string {
	doc = internalBlockPattern.ReplaceAllString(doc, "")
	doc = blankRunPattern.ReplaceAllString(doc, "\n\n")
	return strings.TrimLeft(doc, "\n")
}

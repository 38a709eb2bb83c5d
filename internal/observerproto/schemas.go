package observerproto

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

const schemaBaseURL = "mem://observerproto/"

// Schemas holds the compiled message schemas, keyed by name ("subscribe", "frame", ...).
type Schemas struct {
	byName map[string]*jsonschema.Schema
}

func LoadSchemas() (*Schemas, error) {
	files, err := fs.Glob(schemaFS, "schemas/*.schema.json")
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	for _, f := range files {
		b, err := schemaFS.ReadFile(f)
		if err != nil {
			return nil, err
		}
		if err := c.AddResource(schemaBaseURL+path.Base(f), bytes.NewReader(b)); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", f, err)
		}
	}
	out := &Schemas{byName: make(map[string]*jsonschema.Schema, len(files))}
	for _, f := range files {
		base := path.Base(f)
		s, err := c.Compile(schemaBaseURL + base)
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", base, err)
		}
		out.byName[strings.TrimSuffix(base, ".schema.json")] = s
	}
	return out, nil
}

// Validate checks raw JSON against the named schema.
func (s *Schemas) Validate(name string, raw []byte) error {
	sch := s.byName[name]
	if sch == nil {
		return fmt.Errorf("unknown schema %q", name)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("bad json: %w", err)
	}
	return sch.Validate(v)
}

// ValidateValue marshals v and validates it against the named schema.
func (s *Schemas) ValidateValue(name string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Validate(name, b)
}

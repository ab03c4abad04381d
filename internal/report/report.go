// Package report defines the JSON artifacts exchanged between gates and how they are read
// and written.
//
// Loading distinguishes two failure shapes. A file that does not exist is not an error:
// the caller receives a Loaded value with Present unset and every field resolves to its
// documented default. A file that exists but is not valid JSON, or does not satisfy the
// artifact's schema, is an error marked with ErrMalformedArtifact and is never defaulted.
package report

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// SchemaVersion is stamped on every artifact.
const SchemaVersion = "1.0"

// Schema names, one per artifact.
const (
	SchemaStatic  = "static"
	SchemaArch    = "arch"
	SchemaPattern = "pattern"
	SchemaVerdict = "verdict"
)

var (
	// ErrMalformedArtifact marks an artifact that exists but cannot be trusted.
	ErrMalformedArtifact = errors.New("malformed artifact")
	// ErrSchemaViolation marks an outgoing artifact that failed its own schema.
	ErrSchemaViolation = errors.New("schema validation failed")
)

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	schemaCacheMu sync.Mutex
	schemaCache   = make(map[string]*jsonschema.Schema)
)

// Loaded wraps an artifact read from disk. Present is false when the file was absent.
type Loaded[T any] struct {
	Report  T
	Present bool
}

// LoadsetID names one gate execution, e.g. "qa-20250102-150405".
func LoadsetID(gate string, now time.Time) string {
	return fmt.Sprintf("%s-%s", gate, now.UTC().Format("20060102-150405"))
}

// Int returns a pointer to v, for optional report fields.
func Int(v int) *int { return &v }

// Bool returns a pointer to v, for optional report fields.
func Bool(v bool) *bool { return &v }

// String returns a pointer to v, for optional report fields.
func String(v string) *string { return &v }

func load[T any](path, schemaName string) (Loaded[T], error) {
	var out Loaded[T]
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return out, nil
		}
		return out, errors.Wrapf(err, "read %s", path)
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return out, errors.Wrapf(errors.Mark(err, ErrMalformedArtifact), "parse %s", path)
	}
	if err := validate(schemaName, raw); err != nil {
		return out, errors.Wrapf(errors.Mark(err, ErrMalformedArtifact), "%s does not match the %s schema", path, schemaName)
	}
	if err := json.Unmarshal(data, &out.Report); err != nil {
		return out, errors.Wrapf(errors.Mark(err, ErrMalformedArtifact), "decode %s", path)
	}
	out.Present = true
	return out, nil
}

// save validates v against its schema and writes it in one rename, so an interrupted
// gate never leaves a partial artifact behind.
func save(path, schemaName string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal artifact")
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "normalize artifact for schema validation")
	}
	if err := validate(schemaName, raw); err != nil {
		return errors.Wrapf(errors.Mark(err, ErrSchemaViolation), "%s artifact schema validation failed", schemaName)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "create %s", dir)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrap(err, "create temp artifact")
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write temp artifact")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp artifact")
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return errors.Wrap(err, "chmod artifact")
	}
	return errors.Wrapf(os.Rename(tmp.Name(), path), "write %s", path)
}

func validate(schemaName string, v any) error {
	schema, err := compiledSchema(schemaName)
	if err != nil {
		return err
	}
	return schema.Validate(v)
}

func compiledSchema(name string) (*jsonschema.Schema, error) {
	schemaCacheMu.Lock()
	defer schemaCacheMu.Unlock()
	if cached, ok := schemaCache[name]; ok {
		return cached, nil
	}

	src, err := schemaFS.ReadFile("schemas/" + name + ".json")
	if err != nil {
		return nil, errors.Wrapf(err, "unknown schema %s", name)
	}
	url := "mem://forgeqa/" + name + ".json"
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(url, bytes.NewReader(src)); err != nil {
		return nil, errors.Wrapf(err, "load schema %s", name)
	}
	compiled, err := compiler.Compile(url)
	if err != nil {
		return nil, errors.Wrapf(err, "compile schema %s", name)
	}
	schemaCache[name] = compiled
	return compiled, nil
}

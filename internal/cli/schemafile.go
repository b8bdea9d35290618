package cli

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/mirrordb/mirrordb/internal/schema"
)

//go:embed schemafile.cue
var schemaFileCUE string

// SchemaFile is the decoded form of a table-definition file.
type SchemaFile struct {
	Tables []TableDecl `yaml:"tables"`
}

// TableDecl declares one table.
type TableDecl struct {
	Name    string          `yaml:"name"`
	Columns []schema.Column `yaml:"columns"`
}

// LoadSchemaFile reads a YAML table-definition file and validates it
// against the embedded CUE schema before decoding. CUE rejects wrong
// shapes with positions and field names, which beats a hand-rolled
// walk over the decoded document.
func LoadSchemaFile(path string) (*SchemaFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := validateSchemaDoc(doc); err != nil {
		return nil, fmt.Errorf("validate %s: %w", path, err)
	}

	var sf SchemaFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if len(sf.Tables) == 0 {
		return nil, fmt.Errorf("%s declares no tables", path)
	}
	return &sf, nil
}

// validateSchemaDoc unifies the decoded document with the embedded CUE
// schema and requires the result to be concrete.
func validateSchemaDoc(doc any) error {
	ctx := cuecontext.New()

	schemaVal := ctx.CompileString(schemaFileCUE)
	if err := schemaVal.Err(); err != nil {
		return fmt.Errorf("compile embedded schema: %w", err)
	}

	dataVal := ctx.Encode(doc)
	if err := dataVal.Err(); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	unified := schemaVal.Unify(dataVal)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return err
	}
	return nil
}

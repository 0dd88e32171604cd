package importconfig

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/loam/internal/core/domain"
)

// entityNamePattern restricts entity names to safe SQL identifier fragments.
var entityNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// ValidationError lists every problem found in a configuration.
type ValidationError struct {
	Problems []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid import configuration: " + e.Problems[0]
	}
	return fmt.Sprintf("invalid import configuration (%d problems):\n  - %s",
		len(e.Problems), strings.Join(e.Problems, "\n  - "))
}

// Unwrap ties every validation failure to domain.ErrConfiguration.
func (e *ValidationError) Unwrap() error {
	return domain.ErrConfiguration
}

type problems []string

func (p *problems) addf(format string, args ...any) {
	*p = append(*p, fmt.Sprintf(format, args...))
}

// addStruct runs tag validation on v and records failures under prefix.
func (p *problems) addStruct(prefix string, v any) {
	err := validate.Struct(v)
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		p.addf("%s: %v", prefix, err)
		return
	}
	for _, fe := range verrs {
		p.addf("%s.%s %s", prefix, fieldPath(fe), describe(fe))
	}
}

// fieldPath drops the Go struct name validator puts at the head of the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_if":
		parts := strings.Fields(fe.Param())
		if len(parts) == 2 {
			return fmt.Sprintf("is required when %s is %s", toSnake(parts[0]), parts[1])
		}
		return "is required"
	case "required_without":
		return fmt.Sprintf("is required when %s is not set", toSnake(fe.Param()))
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fmt.Sprint(fe.Value()))
	case "min":
		return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
	case "gte":
		return fmt.Sprintf("must be >= %s", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s character(s)", fe.Param())
	case "url":
		return "must be a valid URL"
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return strings.ReplaceAll(b.String(), "i_d", "id")
}

// Validate applies defaults and checks the whole configuration.
// Every problem is reported in a single *ValidationError.
func (c *Config) Validate() error {
	var p problems

	seen := make(map[string]string)
	for _, name := range c.DatasetNames() {
		ds := c.Entities.Datasets[name]
		prefix := "datasets." + name
		checkName(&p, prefix, name)
		seen[name] = "datasets"
		if ds == nil {
			p.addf("%s is empty", prefix)
			continue
		}
		validateDataset(&p, prefix, ds, c)
	}

	for _, name := range c.ReferenceNames() {
		ref := c.Entities.References[name]
		prefix := "references." + name
		checkName(&p, prefix, name)
		if other, dup := seen[name]; dup {
			p.addf("%s: name already used by %s.%s", prefix, other, name)
		}
		if ref == nil {
			p.addf("%s is empty", prefix)
			continue
		}
		validateReference(&p, prefix, ref)
	}

	if len(p) > 0 {
		return &ValidationError{Problems: p}
	}
	return nil
}

func checkName(p *problems, prefix, name string) {
	if !entityNamePattern.MatchString(name) {
		p.addf("%s: entity name must match %s", prefix, entityNamePattern.String())
	}
}

func validateDataset(p *problems, prefix string, ds *DatasetEntityConfig, c *Config) {
	if ds.Options.Mode == "" {
		ds.Options.Mode = ModeReplace
	}
	for i := range ds.Links {
		if ds.Links[i].TargetField == "" {
			ds.Links[i].TargetField = domain.ColID
		}
	}
	p.addStruct(prefix, ds)
	validateSchema(p, prefix, &ds.Schema)

	switch ds.Connector.Type() {
	case "":
		p.addf("%s.connector.type is required", prefix)
		return
	case ConnectorDerived, ConnectorFileMultiFeature:
		p.addf("%s.connector: type %q is only valid for references", prefix, ds.Connector.Type())
		return
	}
	p.addStruct(prefix+".connector", ds.Connector.Spec)

	for i, link := range ds.Links {
		if link.Entity == "" {
			continue
		}
		if _, ok := c.Entities.References[link.Entity]; !ok {
			p.addf("%s.links[%d].entity: unknown reference %q", prefix, i, link.Entity)
		}
	}
}

func validateReference(p *problems, prefix string, ref *ReferenceEntityConfig) {
	if ref.Kind == "" {
		switch ref.Connector.Type() {
		case ConnectorDerived:
			ref.Kind = KindHierarchical
		case ConnectorFileMultiFeature:
			ref.Kind = KindSpatial
		default:
			if ref.Hierarchy != nil {
				ref.Kind = KindHierarchical
			} else {
				ref.Kind = KindGeneric
			}
		}
	}
	if ref.Hierarchy != nil {
		ref.Hierarchy.applyDefaults()
	}
	p.addStruct(prefix, ref)
	validateSchema(p, prefix, &ref.Schema)

	if ref.Connector.Spec == nil {
		p.addf("%s.connector.type is required", prefix)
		return
	}

	switch spec := ref.Connector.Spec.(type) {
	case *DerivedConnector:
		spec.Extraction.applyDefaults()
		p.addStruct(prefix+".connector", spec)
		validateExtraction(p, prefix+".connector.extraction", &spec.Extraction)
		if ref.Kind == KindSpatial {
			p.addf("%s.kind: derived references cannot be spatial", prefix)
		}
	case *MultiFeatureConnector:
		p.addStruct(prefix+".connector", spec)
		names := make(map[string]bool)
		for i, src := range spec.Sources {
			if names[src.Name] {
				p.addf("%s.connector.sources[%d].name: duplicate source %q", prefix, i, src.Name)
			}
			names[src.Name] = true
		}
	default:
		p.addStruct(prefix+".connector", spec)
	}
}

func validateSchema(p *problems, prefix string, s *SchemaConfig) {
	names := make(map[string]bool)
	for i, f := range s.Fields {
		if f.Name != "" && names[f.Name] {
			p.addf("%s.schema.fields[%d].name: duplicate field %q", prefix, i, f.Name)
		}
		names[f.Name] = true
	}
}

func validateExtraction(p *problems, prefix string, e *ExtractionConfig) {
	names := make(map[string]bool)
	for i, l := range e.Levels {
		if l.Name != "" && names[l.Name] {
			p.addf("%s.levels[%d].name: duplicate level %q", prefix, i, l.Name)
		}
		names[l.Name] = true
	}
	external := e.IDStrategy == IDExternal
	switch {
	case external && len(e.Levels) > 1 && e.IntermediateIDStrategy == "":
		p.addf("%s.intermediate_id_strategy is required when id_strategy is external "+
			"and more than one level is declared", prefix)
	case !external && e.IntermediateIDStrategy != "":
		p.addf("%s.intermediate_id_strategy only applies when id_strategy is external", prefix)
	}
}

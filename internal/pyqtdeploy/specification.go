package pyqtdeploy

import (
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// Specification is the validated, ordered sequence of configured
// package instances a sysroot is built from. It is constructed once by
// LoadSpecification and read-only afterwards.
type Specification struct {
	Packages []Package
}

// LoadSpecification parses a sysroot specification file, resolves every
// named package to a plugin and binds its options.
//
// The file carries one reserved scalar key, Description, which must be
// a string and is otherwise ignored. Every other top-level key is a
// package name whose value must be an object of option values. Package
// order in the returned specification follows document order.
func LoadSpecification(specFile string, pluginDirs []string) (*Specification, error) {
	parser := hclparse.NewParser()

	var file *hcl.File
	var diags hcl.Diagnostics
	if strings.HasSuffix(specFile, ".json") {
		file, diags = parser.ParseJSONFile(specFile)
	} else {
		file, diags = parser.ParseHCLFile(specFile)
	}
	if diags.HasErrors() {
		return nil, specError(specFile, "", "%s", diags.Error())
	}

	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, specError(specFile, "", "%s", diags.Error())
	}

	// JustAttributes returns a map; restore document order.
	ordered := make([]*hcl.Attribute, 0, len(attrs))
	for _, attr := range attrs {
		ordered = append(ordered, attr)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Range.Start.Byte < ordered[j].Range.Start.Byte
	})

	spec := &Specification{}

	for _, attr := range ordered {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, specError(specFile, "", "%s", diags.Error())
		}

		if attr.Name == "Description" {
			// Check its type even though we don't actually use it.
			if val.Type() != cty.String {
				return nil, specError(specFile, "", "value of '%s' has an unexpected type", attr.Name)
			}
			continue
		}

		if !val.Type().IsObjectType() && !val.Type().IsMapType() {
			return nil, specError(specFile, "", "value of '%s' has an unexpected type", attr.Name)
		}

		factory, err := lookupPackage(attr.Name, pluginDirs)
		if err != nil {
			return nil, specError(specFile, "", "%v", err)
		}

		pkg := factory()
		pkg.SetName(attr.Name)

		values := make(map[string]cty.Value)
		if val.LengthInt() > 0 {
			values = val.AsValueMap()
		}

		if err := bindOptions(values, pkg.Options(), pkg, specFile, attr.Name); err != nil {
			return nil, err
		}

		// Anything not consumed by the schema is unknown.
		if len(values) > 0 {
			unused := make([]string, 0, len(values))
			for key := range values {
				unused = append(unused, key)
			}
			sort.Strings(unused)
			return nil, specError(specFile, attr.Name, "unknown value(s): %s", strings.Join(unused, ", "))
		}

		spec.Packages = append(spec.Packages, pkg)
	}

	return spec, nil
}

// FindPackage returns the configured package with the given name, or
// nil when the specification does not contain one. Packages use it to
// inspect the configuration of other packages.
func (s *Specification) FindPackage(name string) Package {
	for _, pkg := range s.Packages {
		if pkg.Name() == name {
			return pkg
		}
	}
	return nil
}

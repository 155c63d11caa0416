package pyqtdeploy

import (
	"strings"
	"testing"

	"github.com/zclconf/go-cty/cty"
)

type optionsTestTarget struct {
	PackageBase

	Source  string   `spec:"source"`
	Debug   bool     `spec:"debug"`
	Modules []string `spec:"modules"`
	Mode    string   `spec:"mode"`
}

func (t *optionsTestTarget) schema() []*Option {
	return []*Option{
		{Name: "source", Type: OptionString, Required: true},
		{Name: "debug", Type: OptionBool},
		{Name: "modules", Type: OptionStringList},
		{Name: "mode", Type: OptionString, Values: []string{"static", "shared"}},
	}
}

func TestBindOptions(t *testing.T) {
	values := map[string]cty.Value{
		"source":  cty.StringVal("pkg-1.0.tar.gz"),
		"debug":   cty.True,
		"modules": cty.ListVal([]cty.Value{cty.StringVal("a"), cty.StringVal("b")}),
		"mode":    cty.StringVal("static"),
	}

	target := &optionsTestTarget{}
	if err := bindOptions(values, target.schema(), target, "spec.json", "pkg"); err != nil {
		t.Fatalf("bindOptions failed: %v", err)
	}

	if target.Source != "pkg-1.0.tar.gz" || !target.Debug || target.Mode != "static" {
		t.Fatalf("options not bound: %+v", target)
	}
	if len(target.Modules) != 2 || target.Modules[0] != "a" || target.Modules[1] != "b" {
		t.Fatalf("list option not bound: %v", target.Modules)
	}
	if len(values) != 0 {
		t.Fatalf("consumed values not removed: %v", values)
	}
}

func TestBindOptionsMissingRequired(t *testing.T) {
	target := &optionsTestTarget{}
	err := bindOptions(map[string]cty.Value{}, target.schema(), target, "spec.json", "pkg")
	if err == nil {
		t.Fatalf("expected an error for a missing required option")
	}
	if !strings.Contains(err.Error(), "no 'source' specified") {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(err.Error(), "Package 'pkg'") {
		t.Fatalf("error must name the package: %v", err)
	}
}

func TestBindOptionsWrongType(t *testing.T) {
	values := map[string]cty.Value{
		"source": cty.StringVal("pkg-1.0.tar.gz"),
		"debug":  cty.StringVal("yes"),
	}

	target := &optionsTestTarget{}
	err := bindOptions(values, target.schema(), target, "spec.json", "pkg")
	if err == nil {
		t.Fatalf("expected an error for a mistyped option")
	}
	if !strings.Contains(err.Error(), "value of 'debug' has an unexpected type") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBindOptionsListElementTypes(t *testing.T) {
	// A list with a non-string element must be rejected, not coerced.
	values := map[string]cty.Value{
		"source":  cty.StringVal("pkg-1.0.tar.gz"),
		"modules": cty.TupleVal([]cty.Value{cty.StringVal("a"), cty.NumberIntVal(1)}),
	}

	target := &optionsTestTarget{}
	err := bindOptions(values, target.schema(), target, "spec.json", "pkg")
	if err == nil {
		t.Fatalf("expected an error for a mixed-type list")
	}
	if !strings.Contains(err.Error(), "value of 'modules' has an unexpected type") {
		t.Fatalf("unexpected error: %v", err)
	}

	// A bare string is not a list either.
	values = map[string]cty.Value{
		"source":  cty.StringVal("pkg-1.0.tar.gz"),
		"modules": cty.StringVal("a"),
	}
	err = bindOptions(values, target.schema(), target, "spec.json", "pkg")
	if err == nil || !strings.Contains(err.Error(), "value of 'modules' has an unexpected type") {
		t.Fatalf("a scalar must not bind to a list option: %v", err)
	}
}

func TestBindOptionsRestrictedValues(t *testing.T) {
	values := map[string]cty.Value{
		"source": cty.StringVal("pkg-1.0.tar.gz"),
		"mode":   cty.StringVal("bogus"),
	}

	target := &optionsTestTarget{}
	err := bindOptions(values, target.schema(), target, "spec.json", "pkg")
	if err == nil {
		t.Fatalf("expected an error for a value outside the allowed set")
	}
	if !strings.Contains(err.Error(), "must be one of") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBindOptionsLeavesUnknownKeys(t *testing.T) {
	values := map[string]cty.Value{
		"source": cty.StringVal("pkg-1.0.tar.gz"),
		"bogus":  cty.StringVal("x"),
	}

	target := &optionsTestTarget{}
	if err := bindOptions(values, target.schema(), target, "spec.json", "pkg"); err != nil {
		t.Fatalf("bindOptions failed: %v", err)
	}

	if _, ok := values["bogus"]; !ok || len(values) != 1 {
		t.Fatalf("unknown keys must survive binding: %v", values)
	}
}

func TestValidateInstallSourceOptions(t *testing.T) {
	if err := validateInstallSourceOptions("pkg.tar.gz", ""); err != nil {
		t.Fatalf("source only must validate: %v", err)
	}
	if err := validateInstallSourceOptions("", "3.6"); err != nil {
		t.Fatalf("installed_version only must validate: %v", err)
	}
	if err := validateInstallSourceOptions("pkg.tar.gz", "3.6"); err == nil {
		t.Fatalf("both options together must fail")
	}
	if err := validateInstallSourceOptions("", ""); err == nil {
		t.Fatalf("neither option must fail")
	}
	if err := validateInstallSourceOptions("", "3.6.4"); err == nil {
		t.Fatalf("a micro version must fail")
	}
}

package pyqtdeploy

import (
	"reflect"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// OptionType is the declared type of a package option value.
type OptionType int

const (
	OptionString OptionType = iota
	OptionBool
	OptionStringList
)

func (t OptionType) String() string {
	switch t {
	case OptionString:
		return "string"
	case OptionBool:
		return "bool"
	case OptionStringList:
		return "list of strings"
	}
	return "unknown"
}

// Option describes one configurable knob of a buildable package as it
// appears in the specification file.
type Option struct {
	Name     string
	Type     OptionType
	Required bool
	Values   []string // allowed values for a string option, if restricted
	Help     string
}

// HelpText returns the help, or a placeholder when none was declared.
func (o *Option) HelpText() string {
	if o.Help == "" {
		return "None available."
	}
	return o.Help
}

// bindOptions decodes raw option values onto the fields of a package
// struct according to a schema. Fields are matched by their `spec` tag.
// Consumed keys are deleted from values; the loader reports whatever is
// left over as unknown. Absent optional options keep the field's zero
// value.
func bindOptions(values map[string]cty.Value, schema []*Option, target any, specFile, pkgName string) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		panic("bindOptions target must be a non-nil pointer")
	}
	rv = rv.Elem()

	for _, opt := range schema {
		field, ok := fieldByTag(rv, opt.Name)
		if !ok {
			panic("package " + pkgName + " declares option '" + opt.Name + "' without a matching field")
		}

		val, present := values[opt.Name]
		if !present {
			if opt.Required {
				return specError(specFile, pkgName, "no '%s' specified", opt.Name)
			}
			continue
		}
		delete(values, opt.Name)

		switch opt.Type {
		case OptionString:
			if val.Type() != cty.String {
				return specError(specFile, pkgName, "value of '%s' has an unexpected type", opt.Name)
			}
			s := val.AsString()
			if len(opt.Values) > 0 && !contains(opt.Values, s) {
				return specError(specFile, pkgName, "value of '%s' must be one of: %s", opt.Name, strings.Join(opt.Values, ", "))
			}
			field.SetString(s)

		case OptionBool:
			if val.Type() != cty.Bool {
				return specError(specFile, pkgName, "value of '%s' has an unexpected type", opt.Name)
			}
			field.SetBool(val.True())

		case OptionStringList:
			ty := val.Type()
			if val.IsNull() || (!ty.IsTupleType() && !ty.IsListType()) {
				return specError(specFile, pkgName, "value of '%s' has an unexpected type", opt.Name)
			}
			var list []string
			for it := val.ElementIterator(); it.Next(); {
				_, elem := it.Element()
				// Every element must be a string; no coercion.
				if elem.Type() != cty.String {
					return specError(specFile, pkgName, "value of '%s' has an unexpected type", opt.Name)
				}
				list = append(list, elem.AsString())
			}
			field.Set(reflect.ValueOf(list))
		}
	}

	return nil
}

// fieldByTag finds the struct field whose `spec` tag matches name,
// descending into embedded structs.
func fieldByTag(rv reflect.Value, name string) (reflect.Value, bool) {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if sf.Anonymous {
			inner := rv.Field(i)
			if inner.Kind() == reflect.Struct {
				if f, ok := fieldByTag(inner, name); ok {
					return f, true
				}
			}
			continue
		}
		if sf.Tag.Get("spec") == name {
			return rv.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}

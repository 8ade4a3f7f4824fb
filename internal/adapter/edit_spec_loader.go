package adapter

import (
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	m "github.com/mouse-blink/qidicom/internal/model"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// currentValueVar is the variable a computed edit uses for the tag's current
// value.
const currentValueVar = "value"

// ErrBadEditSpec is returned for edit spec files that cannot be turned into
// an EditSpec.
var ErrBadEditSpec = errors.New("invalid edit spec")

var editFunctions = map[string]function.Function{
	"upper":         stdlib.UpperFunc,
	"lower":         stdlib.LowerFunc,
	"substr":        stdlib.SubstrFunc,
	"format":        stdlib.FormatFunc,
	"coalesce":      stdlib.CoalesceFunc,
	"trimspace":     stdlib.TrimSpaceFunc,
	"replace":       stdlib.ReplaceFunc,
	"regex_replace": stdlib.RegexReplaceFunc,
	"strlen":        stdlib.StrlenFunc,
	"join":          stdlib.JoinFunc,
}

// EditSpecLoader builds an EditSpec from a declarative file.
type EditSpecLoader interface {
	Load(path m.Path) (m.EditSpec, error)
	Parse(src []byte, filename string) (m.EditSpec, error)
}

// HCLEditSpecLoader reads edit specs written as HCL attributes, one per tag:
//
//	PatientID        = "ANON-0001"
//	BodyPartExamined = "HIP"
//	PatientBirthDate = substr(coalesce(value, "19000101"), 0, 4)
//
// Attributes that mention value are evaluated per file against the tag's
// current value. All others are evaluated once, at load time.
type HCLEditSpecLoader struct{}

// NewHCLEditSpecLoader constructs an HCLEditSpecLoader.
func NewHCLEditSpecLoader() *HCLEditSpecLoader {
	return &HCLEditSpecLoader{}
}

// Load parses the HCL file at path.
func (l *HCLEditSpecLoader) Load(path m.Path) (m.EditSpec, error) {
	parser := hclparse.NewParser()

	file, diags := parser.ParseHCLFile(string(path))
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: failed to parse %s: %s", ErrBadEditSpec, path, diags.Error())
	}

	return l.fromBody(file.Body)
}

// Parse parses src as if it were read from filename.
func (l *HCLEditSpecLoader) Parse(src []byte, filename string) (m.EditSpec, error) {
	parser := hclparse.NewParser()

	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: failed to parse %s: %s", ErrBadEditSpec, filename, diags.Error())
	}

	return l.fromBody(file.Body)
}

func (l *HCLEditSpecLoader) fromBody(body hcl.Body) (m.EditSpec, error) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: %s", ErrBadEditSpec, diags.Error())
	}

	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}

	sort.Strings(names)

	spec := make(m.EditSpec, len(attrs))

	for _, name := range names {
		if _, err := LookupTag(name); err != nil {
			return nil, err
		}

		expr := attrs[name].Expr

		if referencesCurrentValue(expr) {
			spec[name] = computedEdit(name, expr)

			continue
		}

		v, diags := expr.Value(editEvalContext(cty.NullVal(cty.String)))
		if diags.HasErrors() {
			return nil, fmt.Errorf("%w: %s: %s", ErrBadEditSpec, name, diags.Error())
		}

		value, err := fromCty(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrBadEditSpec, name, err)
		}

		spec[name] = m.Literal{Value: value}
	}

	return spec, nil
}

func referencesCurrentValue(expr hcl.Expression) bool {
	for _, traversal := range expr.Variables() {
		if traversal.RootName() == currentValueVar {
			return true
		}
	}

	return false
}

func computedEdit(name string, expr hcl.Expression) m.Computed {
	return func(current m.Value) (m.Value, error) {
		cv, err := toCty(current)
		if err != nil {
			return nil, err
		}

		v, diags := expr.Value(editEvalContext(cv))
		if diags.HasErrors() {
			return nil, fmt.Errorf("evaluating %s: %s", name, diags.Error())
		}

		return fromCty(v)
	}
}

func editEvalContext(current cty.Value) *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{currentValueVar: current},
		Functions: editFunctions,
	}
}

func toCty(value m.Value) (cty.Value, error) {
	switch v := value.(type) {
	case nil:
		return cty.NullVal(cty.String), nil
	case string:
		return cty.StringVal(v), nil
	case int:
		return cty.NumberIntVal(int64(v)), nil
	case int64:
		return cty.NumberIntVal(v), nil
	case float64:
		return cty.NumberFloatVal(v), nil
	case []string:
		if len(v) == 0 {
			return cty.ListValEmpty(cty.String), nil
		}

		vals := make([]cty.Value, 0, len(v))
		for _, s := range v {
			vals = append(vals, cty.StringVal(s))
		}

		return cty.ListVal(vals), nil
	default:
		return cty.NilVal, fmt.Errorf("%w: %T cannot be used in an expression", ErrUnsupportedValue, value)
	}
}

func fromCty(v cty.Value) (m.Value, error) {
	if v.IsNull() {
		return nil, nil
	}

	if !v.IsWhollyKnown() {
		return nil, fmt.Errorf("%w: unknown result", ErrUnsupportedValue)
	}

	switch {
	case v.Type() == cty.String:
		return v.AsString(), nil
	case v.Type() == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			n, acc := bf.Int64()
			if acc != big.Exact {
				return nil, fmt.Errorf("%w: %s does not fit in 64 bits", ErrUnsupportedValue, bf.Text('f', 0))
			}

			return n, nil
		}

		f, _ := bf.Float64()

		return f, nil
	case v.Type().IsListType(), v.Type().IsTupleType(), v.Type().IsSetType():
		list, err := convert.Convert(v, cty.List(cty.String))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnsupportedValue, err)
		}

		out := make([]string, 0, list.LengthInt())
		for _, el := range list.AsValueSlice() {
			if el.IsNull() {
				out = append(out, "")

				continue
			}

			out = append(out, el.AsString())
		}

		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s result", ErrUnsupportedValue, v.Type().FriendlyName())
	}
}

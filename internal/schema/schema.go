// Package schema provides cty-typed input validators for vertices. A
// validator built here is consulted before a vertex's work runs: it converts
// the merged fan-in value to the declared type or fails, and the failure
// prevents the work from running.
package schema

import (
	"fmt"
	"strings"

	"github.com/vk/taskgrid/internal/dag"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// ForType returns a validator enforcing that the input conforms (or safely
// converts) to the given cty type. The parsed value handed to the work
// function is the converted input, mapped back to plain Go values.
func ForType(ty cty.Type) dag.Validator {
	return func(input any) (any, error) {
		val, err := goToCty(input)
		if err != nil {
			return nil, err
		}
		converted, err := convert.Convert(val, ty)
		if err != nil {
			return nil, fmt.Errorf("input does not conform to %s: %w", ty.FriendlyName(), err)
		}
		return ctyToGo(converted)
	}
}

// Record returns a validator for a record input with the given attribute
// types: the common case for a fan-in of multiple record-producing parents.
func Record(attrs map[string]cty.Type) dag.Validator {
	return ForType(cty.Object(attrs))
}

// ParseType resolves the type names a grid's `input` contract may use:
// string, number, bool, any, and list(T) of those.
func ParseType(name string) (cty.Type, error) {
	name = strings.TrimSpace(name)
	switch name {
	case "string":
		return cty.String, nil
	case "number":
		return cty.Number, nil
	case "bool":
		return cty.Bool, nil
	case "any":
		return cty.DynamicPseudoType, nil
	}
	if inner, ok := strings.CutPrefix(name, "list("); ok && strings.HasSuffix(inner, ")") {
		el, err := ParseType(strings.TrimSuffix(inner, ")"))
		if err != nil {
			return cty.NilType, err
		}
		return cty.List(el), nil
	}
	return cty.NilType, fmt.Errorf("unknown type %q", name)
}

// goToCty converts the plain Go values flowing through the engine into cty
// values. Records and lists convert recursively; a cty.Value passes through.
func goToCty(v any) (cty.Value, error) {
	switch t := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case cty.Value:
		return t, nil
	case bool:
		return cty.BoolVal(t), nil
	case string:
		return cty.StringVal(t), nil
	case int:
		return cty.NumberIntVal(int64(t)), nil
	case int64:
		return cty.NumberIntVal(t), nil
	case float64:
		return cty.NumberFloatVal(t), nil
	case map[string]any:
		if len(t) == 0 {
			return cty.EmptyObjectVal, nil
		}
		attrs := make(map[string]cty.Value, len(t))
		for k, el := range t {
			cv, err := goToCty(el)
			if err != nil {
				return cty.NilVal, fmt.Errorf("attribute %q: %w", k, err)
			}
			attrs[k] = cv
		}
		return cty.ObjectVal(attrs), nil
	case []any:
		if len(t) == 0 {
			return cty.EmptyTupleVal, nil
		}
		vals := make([]cty.Value, 0, len(t))
		for i, el := range t {
			cv, err := goToCty(el)
			if err != nil {
				return cty.NilVal, fmt.Errorf("element %d: %w", i, err)
			}
			vals = append(vals, cv)
		}
		return cty.TupleVal(vals), nil
	default:
		return cty.NilVal, fmt.Errorf("unsupported input type %T", v)
	}
}

// ctyToGo converts a cty.Value back to plain Go values: records become
// map[string]any, sequences []any, numbers float64.
func ctyToGo(val cty.Value) (any, error) {
	if !val.IsKnown() || val.IsNull() {
		return nil, nil
	}
	ty := val.Type()
	if ty.IsPrimitiveType() {
		switch ty {
		case cty.String:
			return val.AsString(), nil
		case cty.Number:
			f, _ := val.AsBigFloat().Float64()
			return f, nil
		case cty.Bool:
			return val.True(), nil
		default:
			return nil, fmt.Errorf("unsupported primitive type: %s", ty.FriendlyName())
		}
	}
	if ty.IsObjectType() || ty.IsMapType() {
		out := make(map[string]any)
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			el, err := ctyToGo(v)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = el
		}
		return out, nil
	}
	if ty.IsTupleType() || ty.IsListType() || ty.IsSetType() {
		var out []any
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			el, err := ctyToGo(v)
			if err != nil {
				return nil, err
			}
			out = append(out, el)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported type for conversion: %s", ty.FriendlyName())
}

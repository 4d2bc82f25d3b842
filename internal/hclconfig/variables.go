package hclconfig

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/talkbot/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// isExprDefined reports whether an optional attribute was actually written
// in the file. gohcl fills omitted optional expressions with a zero-width
// placeholder, so a nil check alone is not enough.
func isExprDefined(expr hcl.Expression) bool {
	if expr == nil {
		return false
	}
	rng := expr.Range()
	return rng.End.Byte > rng.Start.Byte
}

// decodeVariables evaluates the variables object and converts every
// attribute to its string form. Numbers and bools are accepted since script
// variables only ever hold text.
func decodeVariables(ctx context.Context, expr hcl.Expression) (map[string]string, error) {
	logger := ctxlog.FromContext(ctx)

	if !isExprDefined(expr) {
		logger.Debug("No variables defined in config.")
		return nil, nil
	}

	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() {
		return nil, nil
	}
	if !val.IsWhollyKnown() {
		return nil, fmt.Errorf("variables must be known values")
	}
	if !val.Type().IsObjectType() && !val.Type().IsMapType() {
		return nil, fmt.Errorf("variables must be an object, got %s", val.Type().FriendlyName())
	}

	out := make(map[string]string, val.LengthInt())
	for it := val.ElementIterator(); it.Next(); {
		key, elem := it.Element()
		name := key.AsString()

		str, err := toString(elem)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", name, err)
		}
		out[name] = str
	}

	names := make([]string, 0, len(out))
	for name := range out {
		names = append(names, name)
	}
	sort.Strings(names)
	logger.Debug("Decoded config variables.", "names", names)

	return out, nil
}

func toString(v cty.Value) (string, error) {
	if v.IsNull() {
		return "", fmt.Errorf("must not be null")
	}
	if !v.Type().IsPrimitiveType() {
		return "", fmt.Errorf("must be a string, number or bool, got %s", v.Type().FriendlyName())
	}
	strVal, err := convert.Convert(v, cty.String)
	if err != nil {
		return "", err
	}
	var s string
	if err := gocty.FromCtyValue(strVal, &s); err != nil {
		return "", err
	}
	return s, nil
}

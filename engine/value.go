package engine

import (
	"github.com/zclconf/go-cty/cty"

	"github.com/lumenui/bridge"
)

// ctyToScalar narrows an evaluated attribute value to the boundary's
// scalar set. Unknown and non-primitive values degrade to absent.
func ctyToScalar(v cty.Value) bridge.Scalar {
	if v.IsNull() {
		return bridge.Null()
	}
	if !v.IsKnown() {
		return bridge.Absent
	}
	switch v.Type() {
	case cty.String:
		return bridge.String(v.AsString())
	case cty.Number:
		f, _ := v.AsBigFloat().Float64()
		return bridge.Number(f)
	case cty.Bool:
		return bridge.Bool(v.True())
	}
	return bridge.Absent
}

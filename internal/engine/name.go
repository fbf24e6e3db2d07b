package engine

import (
	"fmt"

	"github.com/roach88/featsynth/internal/primitive"
)

// FeatureName identifies one synthesized column.
//
// The zero value is invalid. Names are built only by AggregateName,
// TransformName, and IdentityName, so a FeatureName always follows the
// naming rule; hand-written strings are resolved through FeatureFrame.Lookup.
type FeatureName struct {
	s string
}

// String returns the canonical name.
func (n FeatureName) String() string { return n.s }

// IsZero reports whether n was not built by a constructor.
func (n FeatureName) IsZero() bool { return n.s == "" }

// AggregateName names an aggregation over a child table as
// "{parent}.{PRIM}({child}.{column})". Row-wise primitives pass an empty
// column and are named "{parent}.{PRIM}({child})".
func AggregateName(parent string, p primitive.Primitive, child, column string) FeatureName {
	if column == "" {
		return FeatureName{fmt.Sprintf("%s.%s(%s)", parent, primitive.Label(p), child)}
	}
	return FeatureName{fmt.Sprintf("%s.%s(%s.%s)", parent, primitive.Label(p), child, column)}
}

// TransformName names a transform of a target column as "{PRIM}({column})".
func TransformName(p primitive.Primitive, column string) FeatureName {
	return FeatureName{fmt.Sprintf("%s(%s)", primitive.Label(p), column)}
}

// IdentityName names a target column carried into the frame unchanged.
func IdentityName(column string) FeatureName {
	return FeatureName{column}
}

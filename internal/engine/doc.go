// Package engine implements feature synthesis over an entity set.
//
// The engine is centered on one target table. Synthesize produces a
// FeatureFrame with exactly one row per target row, in target row order,
// and one column per feature:
//
//  1. Identity features: every non-key target column, named by the column.
//  2. Transform features: every timestamp column of the target, in schema
//     order, times every transform primitive, in configured order.
//  3. Aggregate features: every relationship touching the target, in
//     declaration order, times every aggregation primitive, times every
//     eligible child column in schema order.
//
// For relationships where the target is the child, the aggregate is computed
// once per parent key and broadcast onto every target row referencing that
// parent. For relationships where the target is the parent, child rows are
// aggregated per target row directly.
//
// # Naming
//
// Feature names are produced only by AggregateName, TransformName, and
// IdentityName:
//
//	customer.SUM(orders.OrderQuantity)
//	customer.COUNT(orders)
//	WEEKDAY(OrderDate)
//	CustomerID
//
// # Determinism
//
// Column order follows declaration order everywhere. No map is iterated
// while building the frame, so two runs over identical input produce
// identical names and values.
package engine

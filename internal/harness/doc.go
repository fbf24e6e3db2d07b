// Package harness runs featsynth scenarios: small, hand-written input tables
// pushed through a full pipeline run with expectations on the merged output.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: single_order
//	description: "What this scenario validates"
//	plan: plans/returns.cue        # optional, relative to the scenario file
//	run_id: run-single-order       # optional, fixed run ID
//	tables:
//	  orders:
//	    columns: [OrderID, CustomerID, ProductID, OrderDate, ShipDate, OrderQuantity]
//	    rows:
//	      - {OrderID: 1, CustomerID: C1, ProductID: P1, OrderDate: "2024-01-08", OrderQuantity: 2}
//	  customer:
//	    rows:
//	      - {CustomerID: C1, CustomerName: Ada}
//	expect:
//	  - table: customer
//	    key: C1
//	    values: {CUSTOMERORDERCOUNT: 1, AVERAGESPENT: 20}
//	  - table: orders
//	    rows: 1
//	expect_orphans:
//	  "orders.CustomerID -> customer.CustomerID": 0
//
// A scenario that expects the run to fail names an error code instead:
//
//	expect_error: UNKNOWN_FEATURE
//
// # Table Data
//
// Row values are YAML scalars converted with the plan's declared column
// types; undeclared columns are strings. Column order follows columns when
// given, otherwise the declared columns, then the table key, then the
// remaining keys sorted by name. A plan table the scenario omits loads empty.
//
// # Expectations
//
// Expectations match the final, uppercased output columns. A row
// expectation finds the row whose key equals key and compares only the
// listed values (subset match). Floats compare with a small tolerance.
//
// # Deterministic Testing
//
// Scenarios run against an in-memory source with a fixed run ID, so golden
// snapshots of the output tables are reproducible byte for byte.
package harness

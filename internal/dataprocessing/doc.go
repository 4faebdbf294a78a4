// Package dataprocessing turns the raw works and expenses feeds into records
// and computes the dashboard aggregates.
//
// # Data Flow
//
//	CSV text → SplitDocument → []Row → MapWorks / MapExpenses → records → Summarize
//
// Parsing never fails. Rows that do not have the minimum number of fields
// are dropped and counted in ParseStats, malformed numbers become 0 and
// dates that cannot be parsed are kept verbatim.
//
// # Expense totals
//
// The expenses sheet keeps its running totals in column G on fixed rows.
// LegacyPositionalAggregate reads exactly those cells (body rows 0 and 1 for
// the credit total, body row 3 for the balance). Body row indices count every
// line after the header, including blank ones.
//
// # Search
//
// FilterWorks and FilterExpenses perform case-insensitive substring matching
// and return new slices in the original order.
package dataprocessing

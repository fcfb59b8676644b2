// Package flow defines financial flow rows and their semantic classification.
//
// A [Row] is one user-entered record: value moving from a source label to a
// target label, measured for a current and a previous period. Rows are the
// only user-owned data; nodes and links are always derived from them by the
// graph package.
//
// # Validity
//
// A row is valid when both trimmed names are non-empty and the current
// period value is a positive finite number. Invalid rows stay in the row
// list (the user may still be editing them) but never reach the graph.
//
// # Classification
//
// [Classify] labels a row with a [FlowType] by case-insensitive substring
// matching against a [Vocabulary]. Source-side revenue signals are checked
// before target-side profit signals:
//
//	flow.Classify("Прочие доходы", "Валовая прибыль") // AdjacentRevenue
//	flow.Classify("Выручка", "Себестоимость")         // Revenue
//	flow.Classify("Валовая прибыль", "EBITDA")        // Profit
//	flow.Classify("Коммерческие расходы", "Налоги")   // Expense
//
// # Paste import
//
// [ParsePaste] converts tab/newline-delimited spreadsheet text into rows.
// Numbers tolerate thousands separators and a comma decimal separator.
package flow

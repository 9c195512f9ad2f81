// Package condition implements the closed expression language used by rule
// profiles.
//
// A condition is a boolean expression over fact names:
//
//	amount > 1000
//	len(parties) >= 2 and has_signature
//	"arbitration" in lower(dispute_clause) or governing_law in ["Delaware", "New York"]
//
// Conditions are parsed into a small tagged AST and interpreted against a
// FactContext. There is no attribute access, no assignment, no user-defined
// functions and no loops; the only functions are those in the builtin table
// (len, min, max, sum, abs, round, lower, upper, contains, str, int, float,
// bool). Evaluation is deterministic and has no side effects.
//
// Operator precedence, lowest first:
//
//	or ||
//	and &&
//	not !
//	== != < <= > >= in "not in"   (chainable: 1 < x <= 10)
//	+ -
//	* / %
//	unary -
package condition

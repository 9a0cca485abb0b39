// Package nilness defines an analyzer that reports nil pointer dereferences
// and comparisons with nil whose outcome is fixed.
//
// Functions are analysed with the points-to and nullability analysis of
// package pointsto, on their SSA form. Unlike a purely intraprocedural
// checker it follows calls into functions of the same package, so
//
//	func find() *T { return nil }
//
//	func use() int {
//		return find().n // nil dereference in field selection
//	}
//
// is reported. Only dereferences of values that are nil on every path are
// reported; values that may be nil are not.
package nilness

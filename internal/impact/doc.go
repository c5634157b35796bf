// Package impact answers call-graph questions over a graph snapshot.
//
// The analyzer can:
//   - Find the call sites of a name (FindUsages)
//   - Walk callers, callees or both up to a bounded depth (Analyze)
//   - Classify a caller count into a risk level (ClassifyRisk)
//
// Basic usage:
//
//	snap := engine.Snapshot()
//	a := impact.NewAnalyzer(snap, resolve.ForSnapshot(snap), resolve.NewWordMatcher(0))
//
//	for _, u := range a.FindUsages("getRenew", "") {
//	    fmt.Printf("%s %s:%d\n", u.Caller, u.File, u.Line)
//	}
//
//	res := a.Analyze("getRenew", 3, impact.Callers)
//	fmt.Print(impact.FormatImpact(res))
//
// Callers are found by word-boundary matching of frontier names against
// call contexts. The frontier advances by caller name, so two functions
// with the same name in different files merge into one frontier. Callees
// are found by reducing each outgoing call context to its bare callee
// token and resolving it through the name index.
//
// Depth is clamped into [MinDepth, MaxDepth]. A node is reported at the
// first hop it is reached and never again, so the result at depth d is a
// superset of the result at depth d-1.
package impact

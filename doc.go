// Package rankwell ranks candidates against a requester's preferences and
// explains each placement.
//
// An Engine owns a BadgerDB profile store, an embedding provider and a
// ranker. Rank loads a stored requester and every stored candidate, runs the
// pipeline (pool assembly, hard filters, similarity scoring, confidence,
// sorting and explanation) and returns a Run:
//
//	engine, err := rankwell.NewEngine("/var/lib/rankwell", rankwell.WithConfig(cfg))
//	if err != nil {
//	    return err
//	}
//	defer engine.Close()
//
//	run, err := engine.Rank(ctx, "requester-42")
//	if err != nil {
//	    return err
//	}
//	report, err := run.Report(visibility.RoleRequester)
//
// Identical inputs always produce the same Outcome and RunID; only
// GeneratedAt differs between runs.
package rankwell

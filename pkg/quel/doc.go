// Package quel is the entry point for compiling Quel retrieval queries.
//
// A Compiler owns an entity catalog and turns query text into analyzed
// queries, execution plans, or single SQL statements:
//
//	cat, err := metadata.LoadFile("catalog.yaml")
//	if err != nil {
//		return err
//	}
//	qc := quel.New(cat)
//	stmt, err := qc.SQL("range of x is Products\nretrieve (x.id) where x.price < :max")
//
// Queries that mix database entities and document sources have no
// single-statement form; Plan splits them into per-source execution
// stages instead:
//
//	p, err := qc.Plan(src, plan.WithParams(map[string]any{"max": 100}))
//
// Compilation failures are typed (parser.LexError, parser.ParseError,
// semantic.Error, plan.Error) and discriminated with errors.As.
package quel

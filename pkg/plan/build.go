package plan

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/quellabs/quel/pkg/ast"
	"github.com/quellabs/quel/pkg/semantic"
	"github.com/quellabs/quel/pkg/token"
)

type builder struct {
	res    *semantic.Result
	params map[string]any
	procs  map[string]ResultProcessor
}

// group is one stage under construction.
type group struct {
	name      string
	rangeIdxs []int // indexes into the compiled query's range list
	order     int   // declaration index of the group's first range
	doc       bool
}

// Build plans the analyzed query. All-relational queries produce one
// stage; document-source ranges each get their own stage. Stages are
// ordered by the declaration position of their first range; callers
// declare ranges in a dependency-respecting order, no dependency graph
// is computed here.
func Build(res *semantic.Result, opts ...Option) (*Plan, error) {
	if res == nil || res.Query == nil {
		return nil, &Error{Message: "nil semantic result"}
	}

	b := &builder{
		res:    res,
		params: make(map[string]any),
		procs:  make(map[string]ResultProcessor),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b.build()
}

func (b *builder) build() (*Plan, error) {
	groups := b.makeGroups()
	mainGi := mainGroup(groups)

	rangeStage := make(map[int]int)
	for gi, g := range groups {
		for _, ri := range g.rangeIdxs {
			rangeStage[ri] = gi
		}
	}

	q := b.res.Query
	locals := make([][]ast.Expr, len(groups))
	joins := make([][]ast.Expr, len(groups))
	for _, c := range splitConjuncts(q.Where) {
		touched := b.stagesOf(c, rangeStage)
		switch len(touched) {
		case 0:
			locals[mainGi] = append(locals[mainGi], c)
		case 1:
			locals[touched[0]] = append(locals[touched[0]], c)
		default:
			latest := touched[len(touched)-1]
			joins[latest] = append(joins[latest], c)
		}
	}

	projections := make([][]*ast.ProjectionItem, len(groups))
	for _, item := range q.Projection {
		touched := b.stagesOf(item.Expr, rangeStage)
		gi := mainGi
		if len(touched) == 1 {
			gi = touched[0]
		}
		projections[gi] = append(projections[gi], item)
	}

	plan := &Plan{Stages: make([]*Stage, len(groups))}
	for gi, g := range groups {
		stageRanges := make([]ast.RangeDecl, len(g.rangeIdxs))
		for i, ri := range g.rangeIdxs {
			stageRanges[i] = q.Ranges[ri]
		}

		stage := &Stage{
			Name: g.name,
			Query: &ast.Retrieve{
				Pos:        q.Pos,
				Ranges:     stageRanges,
				Projection: projections[gi],
				Where:      andJoin(locals[gi]),
			},
			JoinCondition: andJoin(joins[gi]),
		}
		if gi == mainGi {
			stage.Query.Unique = q.Unique
		}
		if len(g.rangeIdxs) == 1 {
			stage.Range = q.Ranges[g.rangeIdxs[0]]
		}
		if g.doc {
			stage.ResultProcessor = defaultProjection(stage.Query.Projection)
		}
		plan.Stages[gi] = stage
	}

	if err := b.distributeParams(plan); err != nil {
		return nil, err
	}
	for name, fn := range b.procs {
		s := plan.Stage(name)
		if s == nil {
			return nil, &Error{Message: fmt.Sprintf("no stage named %s", name)}
		}
		s.ResultProcessor = fn
	}
	return plan, nil
}

// makeGroups partitions the ranges into stage groups, names them, and
// orders them by first-range declaration position. The relational group
// owns the name "main"; colliding document aliases get numeric suffixes.
func (b *builder) makeGroups() []*group {
	q := b.res.Query

	var relational, docs []int
	for i, r := range q.Ranges {
		if _, ok := r.(*ast.SourceRange); ok {
			docs = append(docs, i)
		} else {
			relational = append(relational, i)
		}
	}

	if len(docs) == 0 {
		name := "main"
		if len(q.Ranges) == 1 {
			name = q.Ranges[0].RangeAlias()
		}
		return []*group{{name: name, rangeIdxs: relational}}
	}

	var groups []*group
	seen := make(map[string]bool)
	if len(relational) > 0 {
		groups = append(groups, &group{name: "main", rangeIdxs: relational, order: relational[0]})
		seen["main"] = true
	}
	for _, di := range docs {
		name := q.Ranges[di].RangeAlias()
		for n := 2; seen[name]; n++ {
			name = q.Ranges[di].RangeAlias() + strconv.Itoa(n)
		}
		seen[name] = true
		groups = append(groups, &group{name: name, rangeIdxs: []int{di}, order: di, doc: true})
	}

	sort.SliceStable(groups, func(i, j int) bool { return groups[i].order < groups[j].order })
	return groups
}

// mainGroup picks the group that receives range-less conjuncts, spanning
// projection items, and the uniqueness flag.
func mainGroup(groups []*group) int {
	for gi, g := range groups {
		if g.name == "main" {
			return gi
		}
	}
	return 0
}

// stagesOf returns the sorted set of group indexes whose ranges e
// references.
func (b *builder) stagesOf(e ast.Expr, rangeStage map[int]int) []int {
	if e == nil {
		return nil
	}
	set := make(map[int]bool)
	ast.Inspect(e, func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok && id.Bound() {
			if gi, ok := rangeStage[id.Binding]; ok {
				set[gi] = true
			}
		}
		return true
	})
	touched := make([]int, 0, len(set))
	for gi := range set {
		touched = append(touched, gi)
	}
	sort.Ints(touched)
	return touched
}

// splitConjuncts flattens the top-level and-chain of e.
func splitConjuncts(e ast.Expr) []ast.Expr {
	if e == nil {
		return nil
	}
	if b, ok := e.(*ast.BinaryExpr); ok && b.Op == token.LAND {
		return append(splitConjuncts(b.Left), splitConjuncts(b.Right)...)
	}
	return []ast.Expr{e}
}

// andJoin rebuilds a left-associative and-chain from conjuncts.
func andJoin(conjuncts []ast.Expr) ast.Expr {
	if len(conjuncts) == 0 {
		return nil
	}
	e := conjuncts[0]
	for _, c := range conjuncts[1:] {
		e = &ast.BinaryExpr{Pos: e.Position(), Op: token.LAND, Left: e, Right: c}
	}
	return e
}

// distributeParams hands each stage the parameter values it references
// and rejects references with no supplied value.
func (b *builder) distributeParams(plan *Plan) error {
	for _, stage := range plan.Stages {
		var missing string
		params := make(map[string]any)
		visit := func(n ast.Node) bool {
			p, ok := n.(*ast.ParamLit)
			if !ok {
				return true
			}
			value, supplied := b.params[p.Name]
			if !supplied {
				missing = p.Name
				return false
			}
			params[p.Name] = value
			return true
		}
		ast.Inspect(stage.Query, visit)
		if missing == "" && stage.JoinCondition != nil {
			ast.Inspect(stage.JoinCondition, visit)
		}
		if missing != "" {
			return &Error{Message: fmt.Sprintf("unknown parameter :%s", missing)}
		}
		if len(params) > 0 {
			stage.StaticParams = params
		}
	}
	return nil
}

// defaultProjection projects raw document rows down to the stage's
// projected properties, applying projection aliases.
func defaultProjection(items []*ast.ProjectionItem) ResultProcessor {
	type field struct {
		out string // output column name
		key string // raw row key
	}
	var fields []field
	for _, item := range items {
		id, ok := item.Expr.(*ast.Ident)
		if !ok {
			continue
		}
		key := id.Segments[len(id.Segments)-1]
		out := item.Alias
		if out == "" {
			out = key
		}
		fields = append(fields, field{out: out, key: key})
	}

	return func(rows []Row) []Row {
		if len(fields) == 0 {
			return rows
		}
		projected := make([]Row, len(rows))
		for i, row := range rows {
			nr := make(Row, len(fields))
			for _, f := range fields {
				if v, ok := row[f.key]; ok {
					nr[f.out] = v
				}
			}
			projected[i] = nr
		}
		return projected
	}
}

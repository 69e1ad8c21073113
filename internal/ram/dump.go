package ram

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/ramonfmir/scallop/internal/expr"
)

// Dump renders p as a debug JSON document (`scallop dump-ram`, §4.5). The
// document is built incrementally with sjson.SetRaw rather than a
// struct-tag marshaller: Dataflow is a tagged union with many mutually
// exclusive field groups, and a generic reflection-based encoder would
// either serialize every unused field as null or need as much per-kind
// logic as this does anyway.
func Dump(p *Program) (string, error) {
	doc := "{}"
	for i, s := range p.Strata {
		sd, err := dumpStratum(s)
		if err != nil {
			return "", err
		}
		doc, err = sjson.SetRaw(doc, fmt.Sprintf("strata.%d", i), sd)
		if err != nil {
			return "", err
		}
	}
	return doc, nil
}

func dumpStratum(s Stratum) (string, error) {
	doc := "{}"
	var err error
	doc, err = sjson.Set(doc, "relations", s.Relations)
	if err != nil {
		return "", err
	}
	doc, err = sjson.Set(doc, "is_recursive", s.IsRecursive)
	if err != nil {
		return "", err
	}
	for i, u := range s.Updates {
		ud, err := dumpUpdate(u)
		if err != nil {
			return "", err
		}
		doc, err = sjson.SetRaw(doc, fmt.Sprintf("updates.%d", i), ud)
		if err != nil {
			return "", err
		}
	}
	return doc, nil
}

func dumpUpdate(u Update) (string, error) {
	dfd, err := dumpDataflow(u.Dataflow)
	if err != nil {
		return "", err
	}
	doc := "{}"
	doc, err = sjson.Set(doc, "target", u.Target)
	if err != nil {
		return "", err
	}
	return sjson.SetRaw(doc, "dataflow", dfd)
}

func dumpDataflow(df *Dataflow) (string, error) {
	if df == nil {
		return "null", nil
	}
	doc := "{}"
	var err error
	doc, err = sjson.Set(doc, "kind", df.Kind.String())
	if err != nil {
		return "", err
	}
	doc, err = sjson.Set(doc, "vars", df.Vars)
	if err != nil {
		return "", err
	}

	switch df.Kind {
	case NodeRelation:
		doc, err = sjson.Set(doc, "relation", df.RelationName)
	case NodeUnion, NodeJoin, NodeAntijoin, NodeDifference:
		doc, err = setChild(doc, "left", df.Left)
		if err == nil {
			doc, err = setChild(doc, "right", df.Right)
		}
		if err == nil && len(df.JoinVars) > 0 {
			doc, err = sjson.Set(doc, "join_vars", df.JoinVars)
		}
	case NodeProject:
		doc, err = setChild(doc, "source", df.Source)
		if err == nil {
			doc, err = sjson.Set(doc, "project_vars", df.ProjectVars)
		}
		if err == nil {
			doc, err = setExprList(doc, "project_exprs", df.ProjectExprs)
		}
	case NodeFilter:
		doc, err = setChild(doc, "source", df.Source)
		if err == nil {
			doc, err = setExpr(doc, "filter_expr", df.FilterExpr)
		}
	case NodeFind:
		doc, err = setChild(doc, "source", df.Source)
		if err == nil {
			doc, err = setExprList(doc, "find_key", df.FindKey)
		}
	case NodeForeignGround, NodeForeignJoin, NodeForeignConstraint:
		doc, err = sjson.Set(doc, "predicate", df.ForeignPredicate)
		if err == nil {
			doc, err = setExprList(doc, "args", df.ForeignArgs)
		}
		if err == nil {
			doc, err = sjson.Set(doc, "free_vars", df.ForeignFreeVars)
		}
		if err == nil && df.Kind == NodeForeignConstraint {
			doc, err = setChild(doc, "source", df.Source)
		}
	case NodeExclusion:
		doc, err = setChild(doc, "source", df.Source)
		if err == nil {
			rows := make([][]string, len(df.Excluded))
			for i, row := range df.Excluded {
				rows[i] = make([]string, len(row))
				for j, v := range row {
					rows[i][j] = v.String()
				}
			}
			doc, err = sjson.Set(doc, "excluded", rows)
		}
	case NodeOverwriteOne:
		doc, err = setChild(doc, "source", df.Source)
	case NodeReduce:
		doc, err = dumpReduce(doc, df.Reduce)
	}
	return doc, err
}

func setChild(doc, key string, child *Dataflow) (string, error) {
	cd, err := dumpDataflow(child)
	if err != nil {
		return "", err
	}
	return sjson.SetRaw(doc, key, cd)
}

func dumpReduce(doc string, r *ReduceNode) (string, error) {
	var err error
	doc, err = sjson.Set(doc, "op", r.Op)
	if err != nil {
		return "", err
	}
	doc, err = sjson.Set(doc, "result_vars", r.ResultVars)
	if err != nil {
		return "", err
	}
	doc, err = sjson.Set(doc, "binding_vars", r.BindingVars)
	if err != nil {
		return "", err
	}
	doc, err = sjson.Set(doc, "negate_result", r.NegateResult)
	if err != nil {
		return "", err
	}
	doc, err = sjson.Set(doc, "k", r.K)
	if err != nil {
		return "", err
	}
	doc, err = sjson.Set(doc, "group_by.kind", int(r.GroupBy.Kind))
	if err != nil {
		return "", err
	}
	if r.GroupBy.Kind == GroupByJoin {
		doc, err = sjson.Set(doc, "group_by.relation", r.GroupBy.Relation)
		if err != nil {
			return "", err
		}
	}
	if r.GroupBy.Kind == GroupByImplicit {
		doc, err = sjson.Set(doc, "group_by.vars", r.GroupBy.Vars)
		if err != nil {
			return "", err
		}
	}
	doc, err = setExprList(doc, "args", r.Args)
	if err != nil {
		return "", err
	}
	return setChild(doc, "source", r.Source)
}

func setExprList(doc, key string, exprs []*expr.Expr) (string, error) {
	for i, e := range exprs {
		ed, err := dumpExpr(e)
		if err != nil {
			return "", err
		}
		doc, err = sjson.SetRaw(doc, fmt.Sprintf("%s.%d", key, i), ed)
		if err != nil {
			return "", err
		}
	}
	if len(exprs) == 0 {
		return sjson.SetRaw(doc, key, "[]")
	}
	return doc, nil
}

func setExpr(doc, key string, e *expr.Expr) (string, error) {
	ed, err := dumpExpr(e)
	if err != nil {
		return "", err
	}
	return sjson.SetRaw(doc, key, ed)
}

func dumpExpr(e *expr.Expr) (string, error) {
	if e == nil {
		return "null", nil
	}
	doc := "{}"
	var err error
	doc, err = sjson.Set(doc, "kind", int(e.Kind))
	if err != nil {
		return "", err
	}
	switch e.Kind {
	case expr.KindConst:
		doc, err = sjson.Set(doc, "const_type", int(e.Const.Type()))
		if err == nil {
			doc, err = sjson.Set(doc, "const", e.Const.String())
		}
		if err == nil {
			doc, err = sjson.Set(doc, "ambiguous", e.ConstAmbiguous)
		}
	case expr.KindVar:
		doc, err = sjson.Set(doc, "var", e.Var)
	case expr.KindBinary:
		doc, err = sjson.Set(doc, "op", int(e.BinOp))
		if err == nil {
			doc, err = setExpr(doc, "left", e.Left)
		}
		if err == nil {
			doc, err = setExpr(doc, "right", e.Right)
		}
	case expr.KindUnary:
		doc, err = sjson.Set(doc, "op", int(e.UnOp))
		if err == nil {
			doc, err = setExpr(doc, "operand", e.Operand)
		}
	case expr.KindCast:
		doc, err = sjson.Set(doc, "target", int(e.CastTarget))
		if err == nil {
			doc, err = setExpr(doc, "from", e.CastFrom)
		}
	case expr.KindIfThenElse:
		doc, err = setExpr(doc, "cond", e.Cond)
		if err == nil {
			doc, err = setExpr(doc, "then", e.Then)
		}
		if err == nil {
			doc, err = setExpr(doc, "else", e.Else)
		}
	case expr.KindCall:
		doc, err = sjson.Set(doc, "func", e.CallFunc)
		if err == nil {
			doc, err = setExprList(doc, "args", e.CallArgs)
		}
	}
	return doc, err
}

// Load parses doc and returns the top-level stratum count and, per
// stratum, its relation names and recursiveness flag -- the coarse shape a
// `dump-ram` round-trip test checks without needing a full structural
// equality of the expression trees.
func Load(doc string) ([]Stratum, error) {
	if !gjson.Valid(doc) {
		return nil, fmt.Errorf("ram: Load: invalid JSON")
	}
	root := gjson.Parse(doc)
	var strata []Stratum
	root.Get("strata").ForEach(func(_, s gjson.Result) bool {
		st := Stratum{IsRecursive: s.Get("is_recursive").Bool()}
		s.Get("relations").ForEach(func(_, r gjson.Result) bool {
			st.Relations = append(st.Relations, r.String())
			return true
		})
		s.Get("updates").ForEach(func(_, u gjson.Result) bool {
			st.Updates = append(st.Updates, Update{Target: u.Get("target").String()})
			return true
		})
		strata = append(strata, st)
		return true
	})
	return strata, nil
}

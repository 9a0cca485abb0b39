// Package dataflow implements a generic forward fixed-point iteration over
// the control-flow graphs of package ir.
package dataflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/BarrensZeppelin/pointsto/internal/queue"
	"github.com/BarrensZeppelin/pointsto/ir"
	log "github.com/sirupsen/logrus"
)

// Lattice provides the join operations of the abstract state D.
type Lattice[D any] interface {
	Clone(D) D
	// Merge joins the states flowing into a block.
	Merge(a, b D) D
	// MergeForBackEdge joins the previous entry state of a loop header with
	// its new input. It must guarantee termination.
	MergeForBackEdge(prev, next D) D
	Equal(a, b D) bool
}

// Transfer provides the transfer functions of an analysis.
type Transfer[D any] interface {
	// VisitBlock runs the operations of b. It owns in and returns the state
	// at the end of b.
	VisitBlock(b *ir.Block, in D) D
	// FlowBranch returns the state flowing along br, given the state at the
	// end of its source block, and whether br can be taken. It must not
	// modify out.
	FlowBranch(br *ir.Branch, out D) (D, bool)
}

// DefaultMaxIterations bounds the number of visits of a single block.
const DefaultMaxIterations = 128

type Options struct {
	// Maximum number of visits of a single block. Zero means
	// DefaultMaxIterations.
	MaxIterations int
	Logger        log.FieldLogger
}

// ErrIterationLimit is returned when a block is visited more often than
// allowed, which means the lattice does not converge.
var ErrIterationLimit = errors.New("dataflow: iteration limit exceeded")

// Result holds the fixed point. Blocks that were never visited have no
// entry in Entry and Exit.
type Result[D any] struct {
	Entry     map[*ir.Block]D
	Exit      map[*ir.Block]D
	Reachable map[*ir.Block]bool
	// Number of visits per block.
	Visits map[*ir.Block]int
	// Total number of block visits.
	Iterations int
}

type edgeState[D any] struct {
	data     D
	feasible bool
}

// Run computes the fixed point of tr over g starting from initial at the
// entry block. Blocks are processed in reverse post order; a block is
// revisited whenever the state on one of its incoming edges changes.
//
// Inputs arriving on infeasible edges are ignored when a block has at least
// one feasible input. Otherwise the block is analysed with the join of its
// infeasible inputs and reported as unreachable.
func Run[D any](ctx context.Context, g *ir.Graph, initial D, lat Lattice[D], tr Transfer[D], opts Options) (*Result[D], error) {
	maxIter := opts.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}

	rank := ReversePostOrder(g)
	res := &Result[D]{
		Entry:     make(map[*ir.Block]D),
		Exit:      make(map[*ir.Block]D),
		Reachable: make(map[*ir.Block]bool),
		Visits:    make(map[*ir.Block]int),
	}
	edges := make(map[*ir.Branch]edgeState[D])

	wl := queue.New(func(b *ir.Block) int { return rank[b] })
	entry := g.Entry()
	wl.Push(entry)

	for !wl.Empty() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		b := wl.Pop()

		var in D
		reachable := b == entry
		if reachable {
			in = lat.Clone(initial)
		} else {
			var ok bool
			in, reachable, ok = join(b, edges, lat)
			if !ok {
				continue
			}
			if prev, seen := res.Entry[b]; seen && hasBackEdge(b, rank) {
				in = lat.MergeForBackEdge(prev, in)
			}
		}

		if prev, seen := res.Entry[b]; seen && res.Reachable[b] == reachable && lat.Equal(prev, in) {
			continue
		}

		res.Visits[b]++
		res.Iterations++
		if res.Visits[b] > maxIter {
			return nil, fmt.Errorf("%w: %s visited %d times in %s", ErrIterationLimit, b, res.Visits[b], g.Owner)
		}

		res.Entry[b] = in
		res.Reachable[b] = reachable
		out := tr.VisitBlock(b, lat.Clone(in))
		res.Exit[b] = out

		for _, br := range b.Succs {
			data, feasible := tr.FlowBranch(br, out)
			feasible = feasible && reachable
			if prev, ok := edges[br]; ok && prev.feasible == feasible && lat.Equal(prev.data, data) {
				continue
			}
			edges[br] = edgeState[D]{data, feasible}
			wl.Push(br.Target)
		}
	}

	logger.WithField("graph", g.Owner).Debugf("dataflow converged after %d block visits", res.Iterations)
	return res, nil
}

// join merges the inputs of b. The second result reports whether any input
// is feasible, the third whether there is any input at all.
func join[D any](b *ir.Block, edges map[*ir.Branch]edgeState[D], lat Lattice[D]) (D, bool, bool) {
	var (
		res      D
		have     bool
		feasible bool
	)
	for _, pass := range [...]bool{true, false} {
		for _, br := range b.Preds {
			st, ok := edges[br]
			if !ok || st.feasible != pass {
				continue
			}
			if !have {
				res, have = lat.Clone(st.data), true
			} else {
				res = lat.Merge(res, st.data)
			}
			feasible = feasible || st.feasible
		}
		if have {
			break
		}
	}
	return res, feasible, have
}

func hasBackEdge(b *ir.Block, rank map[*ir.Block]int) bool {
	for _, br := range b.Preds {
		if IsBackEdge(br, rank) {
			return true
		}
	}
	return false
}

// IsBackEdge reports whether br closes a loop with respect to rank.
func IsBackEdge(br *ir.Branch, rank map[*ir.Block]int) bool {
	src, ok := rank[br.Source]
	return ok && rank[br.Target] <= src
}

// ReversePostOrder ranks the blocks reachable from the entry of g in reverse
// post order. Unreachable blocks are ranked after all reachable ones.
func ReversePostOrder(g *ir.Graph) map[*ir.Block]int {
	type frame struct {
		b    *ir.Block
		next int
	}
	seen := make(map[*ir.Block]bool, len(g.Blocks))
	post := make([]*ir.Block, 0, len(g.Blocks))

	stack := []frame{{b: g.Entry()}}
	seen[g.Entry()] = true
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(top.b.Succs) {
			succ := top.b.Succs[top.next].Target
			top.next++
			if !seen[succ] {
				seen[succ] = true
				stack = append(stack, frame{b: succ})
			}
			continue
		}
		post = append(post, top.b)
		stack = stack[:len(stack)-1]
	}

	rank := make(map[*ir.Block]int, len(g.Blocks))
	for i, b := range post {
		rank[b] = len(post) - 1 - i
	}
	next := len(post)
	for _, b := range g.Blocks {
		if !seen[b] {
			rank[b] = next
			next++
		}
	}
	return rank
}

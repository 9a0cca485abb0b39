// Package ssaflow lowers functions in SSA form into the graphs analysed by
// package pointsto, and records the program points where nil values matter:
// pointer dereferences and comparisons with nil.
package ssaflow

import (
	"fmt"
	"go/token"
	"go/types"
	"sync"

	"github.com/BarrensZeppelin/pointsto"
	"github.com/BarrensZeppelin/pointsto/internal/slices"
	"github.com/BarrensZeppelin/pointsto/ir"
	log "github.com/sirupsen/logrus"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/types/typeutil"
)

// Program lowers the functions of one SSA program. Each SSA function is
// lowered at most once, when its graph is first requested. A Program is safe
// for concurrent use.
type Program struct {
	logger log.FieldLogger

	mu    sync.Mutex
	funcs map[*ssa.Function]*Function
	// Pseudo-fields for the contents of pointers and arrays, per element
	// type.
	derefs typeutil.Map
	elems  typeutil.Map
}

// NewProgram returns an empty Program. A nil logger means the standard
// logger.
func NewProgram(logger log.FieldLogger) *Program {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Program{logger: logger, funcs: make(map[*ssa.Function]*Function)}
}

// Function is the lowered form of an SSA function.
type Function struct {
	IR  *ir.Function
	SSA *ssa.Function

	derefs    []Deref
	nilChecks []NilCheck
}

// Graph returns the control-flow graph of f, or nil for functions without a
// body.
func (f *Function) Graph() *ir.Graph { return f.IR.Body() }

// Derefs returns the dereferences in f in program order.
func (f *Function) Derefs() []Deref {
	f.Graph()
	return f.derefs
}

// NilChecks returns the branches of f on comparisons with nil.
func (f *Function) NilChecks() []NilCheck {
	f.Graph()
	return f.nilChecks
}

// Function returns the lowered form of fn. Closures refer to the lowered
// form of their enclosing function.
func (p *Program) Function(fn *ssa.Function) *Function {
	var parent *ir.Function
	if fn.Parent() != nil {
		parent = p.Function(fn.Parent()).IR
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if f, ok := p.funcs[fn]; ok {
		return f
	}

	f := &Function{SSA: fn}
	var lower func(*ir.Function) *ir.Graph
	if len(fn.Blocks) > 0 {
		lower = func(*ir.Function) *ir.Graph { return p.lower(f) }
	}
	f.IR = ir.NewFunction(fn.String(), slices.Map(fn.Params, func(v *ssa.Parameter) ir.Symbol { return v }), lower)
	f.IR.FreeVars = slices.Map(fn.FreeVars, func(v *ssa.FreeVar) ir.Symbol { return v })
	f.IR.Parent = parent
	f.IR.Source = fn
	p.funcs[fn] = f
	return f
}

// pseudoSymbol names storage that has no variable: the value a pointer
// points to, or an element of an array or slice.
type pseudoSymbol struct {
	name string
	typ  types.Type
}

func (s *pseudoSymbol) Name() string     { return s.name }
func (s *pseudoSymbol) Type() types.Type { return s.typ }

func (p *Program) pseudo(m *typeutil.Map, name string, t types.Type) ir.Symbol {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s := m.At(t); s != nil {
		return s.(*pseudoSymbol)
	}
	s := &pseudoSymbol{name: name, typ: t}
	m.Set(t, s)
	return s
}

// derefSymbol is the pseudo-field holding the target of pointers to t.
func (p *Program) derefSymbol(t types.Type) ir.Symbol { return p.pseudo(&p.derefs, "*", t) }

// elemSymbol is the pseudo-field of the elements of type t.
func (p *Program) elemSymbol(t types.Type) ir.Symbol { return p.pseudo(&p.elems, "[]", t) }

// DerefKind says how a pointer is dereferenced.
type DerefKind uint8

const (
	DerefField DerefKind = iota
	DerefLoad
	DerefStore
	DerefIndex
	DerefInvoke
	DerefCall
	DerefMapUpdate
)

func (k DerefKind) String() string {
	switch k {
	case DerefField:
		return "field selection"
	case DerefLoad:
		return "load"
	case DerefStore:
		return "store"
	case DerefIndex:
		return "index operation"
	case DerefInvoke:
		return "interface method call"
	case DerefCall:
		return "function call"
	case DerefMapUpdate:
		return "map update"
	default:
		return "dereference"
	}
}

// Deref is a program point that panics when Pointer evaluates to nil.
type Deref struct {
	Kind  DerefKind
	Pos   token.Pos
	Block *ir.Block
	// Pointer is evaluated in Block.
	Pointer *ir.Operation
}

// IsNil reports whether res proves that the pointer is nil whenever the
// dereference executes.
func (d Deref) IsNil(res *pointsto.Result) bool {
	return res.IsReachable(d.Block) && res.Value(d.Pointer).NullState() == pointsto.Null
}

// NilCheck is a conditional branch on a comparison with nil.
type NilCheck struct {
	Pos token.Pos
	// Op is token.EQL or token.NEQ.
	Op    token.Token
	Block *ir.Block
	// Cond is the branch value of Block.
	Cond *ir.Operation
	// Negated is set when Cond is the negation of the comparison.
	Negated bool
}

// Outcome returns what res knows about the result of the comparison.
func (c NilCheck) Outcome(res *pointsto.Result) pointsto.PredicateKind {
	if !res.IsReachable(c.Block) {
		return pointsto.PredicateUnknown
	}
	k := res.PredicateKind(c.Cond)
	if c.Negated {
		k = k.Negate()
	}
	return k
}

// Finding is a nil-safety problem in a function.
type Finding struct {
	Pos     token.Pos
	Message string
}

// Findings returns the problems res proves for f: dereferences of nil and
// comparisons with nil whose outcome is fixed. At most one finding is
// returned per position.
func (f *Function) Findings(res *pointsto.Result) []Finding {
	var fs []Finding
	seen := make(map[token.Pos]bool)
	add := func(pos token.Pos, format string, args ...any) {
		if !seen[pos] {
			seen[pos] = true
			fs = append(fs, Finding{Pos: pos, Message: fmt.Sprintf(format, args...)})
		}
	}
	for _, d := range f.Derefs() {
		if d.IsNil(res) {
			add(d.Pos, "nil dereference in %s", d.Kind)
		}
	}
	for _, c := range f.NilChecks() {
		switch c.Outcome(res) {
		case pointsto.AlwaysTrue:
			add(c.Pos, "comparison with nil is always %t", true)
		case pointsto.AlwaysFalse:
			add(c.Pos, "comparison with nil is always %t", false)
		}
	}
	return fs
}

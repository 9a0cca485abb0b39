package a

type T struct {
	f *T
	n int
}

type I interface{ M() }

func deref() int {
	var p *T
	return p.n // want "nil dereference in field selection"
}

func param(p *T) int {
	return p.n
}

func checked(p *T) int {
	if p == nil {
		return p.n // want "nil dereference in field selection"
	}
	return p.n
}

func alloc() *T {
	x := &T{}
	if x != nil { // want "comparison with nil is always true"
		return x
	}
	return nil
}

func fresh() int {
	t := &T{}
	return t.f.n // want "nil dereference in field selection"
}

func stored() int {
	t := &T{}
	t.f = &T{}
	return t.f.n
}

func get() *T { return nil }

func call() int {
	return get().n // want "nil dereference in field selection"
}

func set(t *T) { t.f = &T{} }

func viaCallee() int {
	t := &T{}
	set(t)
	return t.f.n
}

func invoke() {
	var i I
	i.M() // want "nil dereference in interface method call"
}

func dynamic() {
	var f func()
	f() // want "nil dereference in function call"
}

func mapWrite() {
	var m map[string]int
	m["a"] = 1 // want "nil dereference in map update"
}

func loop(xs []*T) int {
	n := 0
	for _, x := range xs {
		if x != nil {
			n += x.n
		}
	}
	return n
}

var (
	global *T
	hook   func()
	sink   func(func())
)

func register(t *T) { global = t }

func mutate() { global.f = &T{} }

func throughGlobal() int {
	t := &T{}
	register(t)
	mutate()
	hook()
	return t.f.n
}

func escapingClosure() int {
	var p *T
	p = nil
	sink(func() { p = &T{} })
	if p != nil {
		return p.n
	}
	return 0
}

package intra

type T struct{ n int }

func get() *T { return nil }

func call() int {
	return get().n
}

func local() int {
	var p *T
	return p.n // want "nil dereference in field selection"
}

package renderer

// teardown collects release functions and runs them in reverse order of
// registration. Construction code pushes the destroy call right after each
// successful create so a failure halfway unwinds what was built so far.
type teardown struct {
	fns []func()
}

func (t *teardown) push(fn func()) {
	t.fns = append(t.fns, fn)
}

func (t *teardown) run() {
	for i := len(t.fns) - 1; i >= 0; i-- {
		t.fns[i]()
	}
	t.fns = nil
}

// disarm forgets the registered functions, ownership has been handed over.
func (t *teardown) disarm() {
	t.fns = nil
}

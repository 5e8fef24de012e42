package interfaces

// Observer receives per-file outcomes of a repair run, in discovery order.
type Observer interface {
	// Fixed is called for every file whose content changed. dryRun is true
	// when the change was computed but not written.
	Fixed(path string, replacements int, dryRun bool)
	// Failed is called for every file that could not be read or written.
	Failed(path string, err error)
}

// NopObserver ignores everything.
type NopObserver struct{}

func (NopObserver) Fixed(string, int, bool) {}
func (NopObserver) Failed(string, error)    {}

package monitor

// Outcome captures the result of invoking one check routine. It is
// created per invocation by the dispatcher and handed to the notifier
// immediately; it is not retained.
type Outcome struct {
	// CheckName is the registered name of the check that produced this
	// outcome.
	CheckName string

	// Failed reports whether the check returned an error or panicked.
	Failed bool

	// Kind is the dynamic type of the failure: the error's %T for a
	// returned error, the recovered value's %T for a panic. Empty when
	// the check completed normally.
	Kind string

	// Message is the failure's message text.
	Message string

	// Trace is the goroutine stack captured at the point of a panic.
	// Empty for returned errors, which carry no stack in Go.
	Trace string
}

// Package critsec provides the non-preemptible critical section used to hand
// hardware handles between foreground code and interrupt handlers.
//
// On bare-metal TinyGo targets a section masks interrupts for its duration.
// On hosted builds (tests, Linux) the "interrupt context" is a goroutine, so
// the section is a process-wide mutex. In both cases callers must keep the
// body short and must never block inside it. Sections do not nest on hosted
// builds.
package critsec

// With runs fn inside a critical section.
func With(fn func()) {
	s := Enter()
	fn()
	Exit(s)
}

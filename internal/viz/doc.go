// Package viz is the live terminal cockpit for a flight session.
//
// [Model] is a Bubble Tea program that ticks a [session.Session] in real
// time, trims it on the first frames and then flies it with keyboard input.
//
// # Key Bindings
//
//	Space       - Pause/Resume
//	F           - Toggle freeze
//	R           - Reset and trim again
//	S           - Stop
//	Arrows      - Pitch and roll
//	+/-         - Throttle
//	B           - Toggle brakes
//	E           - Toggle engines
//	T           - Cycle color themes
//	?           - Show help overlay
package viz

// Package board drives a microcontroller attached over a byte stream.
//
// A Board owns the Transport. Its reader loop (Run) decodes frames into
// events and dispatches them to the Component owning the pin, then to the
// listeners subscribed on that component, then to board-wide observers.
// Commands are written by Send; each call performs a single Write so frames
// from concurrent callers never interleave.
//
// Pin ownership is tracked by the Registry: a pin belongs to at most one
// component. Protocol problems (corrupted frames, events for unclaimed pins,
// failing listeners) never stop the loop; they are reported as Diagnostics.
package board

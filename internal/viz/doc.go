// Package viz provides a terminal live view of a running powertrain.
//
// The view is a Bubble Tea program that steps its own engine through a
// drive-cycle profile, one tick per frame:
//
//   - speed and SOC charts drawn with asciigraph
//   - a stats panel with SOC gauge, temperature, health, gear and a
//     DC-power sparkline
//   - replay of the recent history
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Restart the cycle with a fresh engine
//	T     - Cycle color themes
//	[]    - Step back/forward through history
//	+/-   - Faster/slower playback
//	?     - Show help overlay
//	Q     - Quit
package viz

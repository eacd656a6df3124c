// Package viz renders a running scheduler in the terminal.
//
// The live view is a Bubble Tea model: every frame feeds a fixed wall delta
// to the scheduler, reads the committed samples and draws bodies and their
// trails on a braille [Canvas] through a [Viewport]. Steps already computed
// can be replayed since trajectories keep every point.
//
// # Key Bindings
//
//	Space - Pause/Resume the clock
//	Tab   - Track the next body
//	F     - Follow the tracked body
//	P     - Cycle projection plane
//	+/-   - Zoom
//	< >   - Speed
//	[ ]   - Replay
//	G     - Toggle GIF recording
//	T     - Cycle color themes
//	?     - Show help overlay
package viz

// Package render turns snapshots, plans and summaries into text.
//
// Every renderer is a pure function of its input: identical input always
// produces byte-identical output, and all orderings follow operation index,
// stream id or plan id, never map iteration order.
package render

// Package bot wires the tracker, monitor and Telegram gateway into a single
// event loop: inbound chat updates, the periodic deadline sweep and the
// aggregate summary all run on one goroutine.
package bot

// Package coordinator bounds how long a courier may take to answer a directed
// task offer. It owns the in-memory response timers, drives the accept,
// reject and expiry commands, and provides the periodic sweep that recovers
// offers whose timers were lost.
package coordinator

// Package timeline drives the audio timeline: colored regions per speaker,
// class or overlap, the mapping between playback position and fragment, and
// the playback state that keeps the two in sync.
package timeline

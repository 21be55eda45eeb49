package timeline

import "time"

// Playback tracks the audio position and the active fragment. Every
// transition recomputes the active fragment; Changed reports whether the
// last one moved it.
type Playback struct {
	cursor   *Cursor
	position float64
	duration float64
	playing  bool
	active   int
	changed  bool
}

// NewPlayback starts paused at 0. A duration of 0 uses the end of the last
// fragment.
func NewPlayback(cursor *Cursor, duration float64) *Playback {
	if duration <= 0 {
		duration = cursor.End()
	}
	p := &Playback{cursor: cursor, duration: duration, active: -1}
	p.update()
	return p
}

func (p *Playback) Position() float64 { return p.position }
func (p *Playback) Duration() float64 { return p.duration }
func (p *Playback) Playing() bool     { return p.playing }

// Active returns the fragment under the playhead, or -1.
func (p *Playback) Active() int { return p.active }

// Changed reports whether the last transition moved the active fragment.
func (p *Playback) Changed() bool { return p.changed }

// SetDuration replaces the duration once the real audio length is known.
func (p *Playback) SetDuration(d float64) {
	if d > 0 {
		p.duration = d
	}
	p.Seek(p.position)
}

// Play starts playback. At the end it restarts from 0.
func (p *Playback) Play() {
	if p.position >= p.duration {
		p.position = 0
	}
	p.playing = p.duration > 0
	p.update()
}

func (p *Playback) Pause() {
	p.playing = false
	p.update()
}

func (p *Playback) Toggle() {
	if p.playing {
		p.Pause()
		return
	}
	p.Play()
}

// Seek moves the playhead to sec, clamped to [0, duration].
func (p *Playback) Seek(sec float64) {
	p.position = min(max(sec, 0), p.duration)
	p.update()
}

// Select seeks to the start of fragment i. It returns false for an
// unknown index and leaves the state unchanged.
func (p *Playback) Select(i int) bool {
	start, ok := p.cursor.StartOf(i)
	if !ok {
		return false
	}
	p.Seek(start)
	return true
}

// Advance moves a playing playhead by dt. Reaching the end pauses.
func (p *Playback) Advance(dt time.Duration) {
	if !p.playing {
		p.changed = false
		return
	}
	p.position += dt.Seconds()
	if p.position >= p.duration {
		p.position = p.duration
		p.playing = false
	}
	p.update()
}

func (p *Playback) update() {
	next := p.cursor.IndexAt(p.position)
	p.changed = next != p.active
	p.active = next
}

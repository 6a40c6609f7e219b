package mediasource

import (
	"sync"
)

// MediaStream is an interface that's defined in
// https://w3c.github.io/mediacapture-main/#dom-mediastream
type MediaStream interface {
	// GetVideoTracks implements https://w3c.github.io/mediacapture-main/#dom-mediastream-getvideotracks
	GetVideoTracks() []Track
	// GetTracks implements https://w3c.github.io/mediacapture-main/#dom-mediastream-gettracks
	GetTracks() []Track
	// AddTrack implements https://w3c.github.io/mediacapture-main/#dom-mediastream-addtrack
	AddTrack(t Track)
	// RemoveTrack implements https://w3c.github.io/mediacapture-main/#dom-mediastream-removetrack
	RemoveTrack(t Track)
}

type mediaStream struct {
	tracks []Track
	l      sync.RWMutex
}

// NewMediaStream creates a MediaStream interface that's defined in
// https://w3c.github.io/mediacapture-main/#dom-mediastream
func NewMediaStream(tracks ...Track) MediaStream {
	m := &mediaStream{}
	for _, t := range tracks {
		m.AddTrack(t)
	}
	return m
}

func (m *mediaStream) GetVideoTracks() []Track {
	return m.queryTracks(func(t Track) bool { return t.Kind() == TrackKindVideo })
}

func (m *mediaStream) GetTracks() []Track {
	return m.queryTracks(func(Track) bool { return true })
}

// queryTracks returns all tracks that match f, in insertion order.
func (m *mediaStream) queryTracks(f func(Track) bool) []Track {
	m.l.RLock()
	defer m.l.RUnlock()

	result := make([]Track, 0)
	for _, t := range m.tracks {
		if f(t) {
			result = append(result, t)
		}
	}
	return result
}

func (m *mediaStream) AddTrack(t Track) {
	m.l.Lock()
	defer m.l.Unlock()

	for _, existing := range m.tracks {
		if existing.ID() == t.ID() {
			return
		}
	}
	m.tracks = append(m.tracks, t)
}

func (m *mediaStream) RemoveTrack(t Track) {
	m.l.Lock()
	defer m.l.Unlock()

	for i, existing := range m.tracks {
		if existing.ID() == t.ID() {
			m.tracks = append(m.tracks[:i:i], m.tracks[i+1:]...)
			return
		}
	}
}

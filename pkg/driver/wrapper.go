package driver

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pion/mediasource/pkg/io/video"
	"github.com/pion/mediasource/pkg/prop"
)

func wrapAdapter(a Adapter, info Info) Driver {
	generator, err := uuid.NewRandom()
	if err != nil {
		panic(err)
	}

	d := &adapterWrapper{
		Adapter: a,
		id:      generator.String(),
		info:    info,
		state:   StateClosed,
	}

	switch v := a.(type) {
	case VideoRecorder:
		// Only expose Driver and VideoRecorder interfaces
		d.VideoRecorder = v
		r := &struct {
			Driver
			VideoRecorder
		}{d, d}
		return r
	}

	return nil
}

type adapterWrapper struct {
	Adapter
	VideoRecorder
	id    string
	info  Info
	mu    sync.Mutex
	state State
}

func (w *adapterWrapper) ID() string {
	return w.id
}

func (w *adapterWrapper) Info() Info {
	return w.info
}

func (w *adapterWrapper) Status() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *adapterWrapper) Open() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.Update(StateOpened, w.Adapter.Open)
}

func (w *adapterWrapper) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.Update(StateClosed, w.Adapter.Close)
}

func (w *adapterWrapper) Properties() []prop.Media {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateClosed {
		return nil
	}

	p := append([]prop.Media(nil), w.Adapter.Properties()...)
	for i := range p {
		p[i].DeviceID = w.id
	}
	return p
}

func (w *adapterWrapper) VideoRecord(p prop.Media) (r video.Reader, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	err = w.state.Update(StateRunning, func() error {
		r, err = w.VideoRecorder.VideoRecord(p)
		return err
	})
	return
}

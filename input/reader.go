package input

import (
	"io"
	"sync"

	"github.com/muesli/cancelreader"
)

// Reader runs a background goroutine that reads raw bytes from a source
// (normally os.Stdin) and decodes them into Events, delivered on a
// channel. It uses cancelreader so Close actually unblocks the pending
// read, rather than closing a done channel while the reader goroutine
// stays blocked on ReadByte forever.
type Reader struct {
	cr      cancelreader.CancelReader
	events  chan Event
	errs    chan error
	decoder *Decoder

	closeOnce sync.Once
}

// NewReader wraps src in a cancelable reader and starts decoding
// immediately.
func NewReader(src io.Reader) (*Reader, error) {
	cr, err := cancelreader.NewReader(src)
	if err != nil {
		return nil, err
	}
	r := &Reader{
		cr:      cr,
		events:  make(chan Event, 64),
		errs:    make(chan error, 1),
		decoder: NewDecoder(),
	}
	go r.loop()
	return r, nil
}

func (r *Reader) loop() {
	defer close(r.events)
	buf := make([]byte, 4096)
	for {
		n, err := r.cr.Read(buf)
		if n > 0 {
			for _, ev := range r.decoder.Feed(buf[:n]) {
				r.events <- ev
			}
		}
		if err != nil {
			if err != io.EOF {
				select {
				case r.errs <- err:
				default:
				}
			}
			return
		}
	}
}

// Events returns the channel events are delivered on. It closes when the
// underlying reader is closed or its source reaches EOF.
func (r *Reader) Events() <-chan Event { return r.events }

// Close cancels the pending read and stops the background goroutine.
func (r *Reader) Close() error {
	var err error
	r.closeOnce.Do(func() {
		r.cr.Cancel()
		err = r.cr.Close()
	})
	return err
}

package surface

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// Frame is one rendered indicator update as emitted by a Writer.
type Frame struct {
	Indicator string `json:"indicator"`
	Title     string `json:"title"`
	Image     string `json:"image,omitempty"`
}

// Writer renders an indicator as JSON lines on a stream, one frame per
// title update. Ticks from both indicators may interleave on a shared
// stream, so writes are serialized.
type Writer struct {
	mu        sync.Mutex
	out       io.Writer
	indicator string
	image     string
}

func NewWriter(out io.Writer, indicator string) *Writer {
	return &Writer{out: out, indicator: indicator}
}

func (w *Writer) SetTitle(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	frame := Frame{Indicator: w.indicator, Title: text, Image: w.image}
	payload, err := json.Marshal(frame)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w.out, "%s\n", payload)
}

func (w *Writer) SetImage(asset string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.image = asset
}

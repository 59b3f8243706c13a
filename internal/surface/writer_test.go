package surface

import (
	"bufio"
	"bytes"
	"encoding/json"
	"testing"
)

func TestWriter_EmitsFramePerTitle(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	writer := NewWriter(&buf, "current")

	writer.SetImage("imgs/high.jpg")
	writer.SetTitle("5m\nleft")
	writer.SetImage("")
	writer.SetTitle("Nothing\nnow")

	scanner := bufio.NewScanner(&buf)
	frames := make([]Frame, 0, 2)
	for scanner.Scan() {
		var frame Frame
		if err := json.Unmarshal(scanner.Bytes(), &frame); err != nil {
			t.Fatalf("decode frame: %v", err)
		}
		frames = append(frames, frame)
	}

	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
	if frames[0].Indicator != "current" || frames[0].Title != "5m\nleft" || frames[0].Image != "imgs/high.jpg" {
		t.Fatalf("unexpected first frame: %+v", frames[0])
	}
	if frames[1].Image != "" {
		t.Fatalf("expected cleared image, got %q", frames[1].Image)
	}
}

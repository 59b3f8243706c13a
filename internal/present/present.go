package present

import (
	"strconv"
	"strings"
	"time"

	"github.com/isaacw/deckcal/internal/calendar"
)

// Intensity is the discrete urgency tier driving the indicator's color cue.
type Intensity int

const (
	IntensityNone Intensity = iota
	IntensityLow
	IntensityMedium
	IntensityHigh
	IntensityCritical
)

func (i Intensity) String() string {
	switch i {
	case IntensityLow:
		return "low"
	case IntensityMedium:
		return "medium"
	case IntensityHigh:
		return "high"
	case IntensityCritical:
		return "critical"
	default:
		return "none"
	}
}

// Reference selects which edge of the occurrence the countdown measures.
type Reference int

const (
	ReferenceStart Reference = iota
	ReferenceEnd
)

// Rendering is the finished indicator content: title lines ready to join
// with newlines, plus an intensity tier for the color cue.
type Rendering struct {
	TitleLines []string
	Intensity  Intensity
}

func (r Rendering) Title() string {
	return strings.Join(r.TitleLines, "\n")
}

const (
	titleWidth    = 8
	titleMaxLines = 4
	ellipsis      = "…"
)

// Render formats one occurrence for the key-sized display. ReferenceStart
// produces the wrapped title above an "in Xm" countdown to the start;
// ReferenceEnd produces an "Xm left" countdown to the end with an intensity
// that tightens as the event runs out.
func Render(occ calendar.Occurrence, ref Reference, now time.Time) Rendering {
	if ref == ReferenceEnd {
		minutes := wholeMinutes(occ.End.Sub(now))
		return Rendering{
			TitleLines: []string{formatMinutes(minutes), "left"},
			Intensity:  intensityFor(minutes),
		}
	}

	minutes := wholeMinutes(occ.Start.Sub(now))
	lines := WrapTitle(occ.Title)
	lines = append(lines, "in "+formatMinutes(minutes))
	return Rendering{TitleLines: lines, Intensity: IntensityNone}
}

// NoNext is the placeholder when no occurrence remains today.
func NoNext() Rendering {
	return Rendering{TitleLines: []string{"No", "events", "left"}, Intensity: IntensityNone}
}

// NoCurrent is the placeholder when nothing is in progress.
func NoCurrent() Rendering {
	return Rendering{TitleLines: []string{"Nothing", "now"}, Intensity: IntensityNone}
}

func intensityFor(minutesLeft int) Intensity {
	switch {
	case minutesLeft <= 1:
		return IntensityCritical
	case minutesLeft <= 5:
		return IntensityHigh
	case minutesLeft <= 10:
		return IntensityMedium
	default:
		return IntensityLow
	}
}

func wholeMinutes(d time.Duration) int {
	minutes := int(d / time.Minute)
	if minutes < 0 {
		minutes = 0
	}
	return minutes
}

func formatMinutes(minutes int) string {
	if minutes < 60 {
		return strconv.Itoa(minutes) + "m"
	}
	return strconv.Itoa(minutes/60) + "h " + strconv.Itoa(minutes%60) + "m"
}

// zeroWidthSpace marks a break opportunity after each slash so compound
// titles like "Design/Review" split at the slash instead of mid-word.
const zeroWidthSpace = "​"

// WrapTitle word-wraps a title to the key's column width, clamping to four
// lines with a trailing ellipsis line, or padding with one blank line so the
// countdown always lands on the same row.
func WrapTitle(title string) []string {
	escaped := strings.ReplaceAll(title, "/", "/"+zeroWidthSpace)
	lines := wrap(escaped, titleWidth)

	if len(lines) > titleMaxLines {
		lines = append(lines[:titleMaxLines-1:titleMaxLines-1], ellipsis)
	} else if len(lines) < titleMaxLines {
		lines = append(lines, "")
	}
	return lines
}

// wrap greedily fills lines of at most width visible runes. Spaces and
// zero-width spaces both break; a space joins words sharing a line, a
// zero-width break joins with nothing. Words longer than the width keep
// their own overlong line.
func wrap(text string, width int) []string {
	type token struct {
		word string
		glue string // joiner when the previous token shares the line
	}

	tokens := make([]token, 0, 8)
	for _, field := range strings.Fields(text) {
		glue := " "
		for _, part := range strings.Split(field, zeroWidthSpace) {
			if part == "" {
				continue
			}
			tokens = append(tokens, token{word: part, glue: glue})
			glue = ""
		}
	}

	if len(tokens) == 0 {
		return []string{""}
	}

	lines := make([]string, 0, 4)
	var line strings.Builder
	lineLen := 0
	for _, tok := range tokens {
		wordLen := len([]rune(tok.word))
		if lineLen == 0 {
			line.WriteString(tok.word)
			lineLen = wordLen
			continue
		}
		glueLen := len([]rune(tok.glue))
		if lineLen+glueLen+wordLen <= width {
			line.WriteString(tok.glue)
			line.WriteString(tok.word)
			lineLen += glueLen + wordLen
			continue
		}
		lines = append(lines, line.String())
		line.Reset()
		line.WriteString(tok.word)
		lineLen = wordLen
	}
	lines = append(lines, line.String())
	return lines
}

package domain

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Caption is one timed subtitle segment.
type Caption struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// CaptionSet is an ordered list of captions. A normalized set is sorted by
// start time, strictly increasing, with no overlapping ranges.
type CaptionSet []Caption

// Normalize enforces the CaptionSet invariant. Segments with End <= Start
// are dropped; overlapping segments are clamped to the previous segment's
// end and dropped if nothing remains. Returns the normalized set and the
// number of dropped segments.
func (cs CaptionSet) Normalize() (CaptionSet, int) {
	kept := make(CaptionSet, 0, len(cs))
	dropped := 0
	for _, c := range cs {
		if c.End <= c.Start {
			dropped++
			continue
		}
		kept = append(kept, c)
	}

	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Start < kept[j].Start })

	out := make(CaptionSet, 0, len(kept))
	for _, c := range kept {
		if len(out) > 0 {
			prev := out[len(out)-1]
			if c.Start < prev.End {
				c.Start = prev.End
			}
			if c.End <= c.Start {
				dropped++
				continue
			}
		}
		out = append(out, c)
	}
	return out, dropped
}

// Duration returns the end time of the last caption, or zero for an empty set.
func (cs CaptionSet) Duration() time.Duration {
	if len(cs) == 0 {
		return 0
	}
	return cs[len(cs)-1].End
}

// WriteSRT renders the set in SubRip format.
func (cs CaptionSet) WriteSRT(w io.Writer) error {
	for i, c := range cs {
		_, err := fmt.Fprintf(w, "%d\n%s --> %s\n%s\n\n",
			i+1, formatSRTTime(c.Start), formatSRTTime(c.End), strings.TrimSpace(c.Text))
		if err != nil {
			return err
		}
	}
	return nil
}

// ParseSRT parses SubRip content back into a CaptionSet. Blocks that do not
// contain a valid timestamp line are skipped; a timestamp that fails to
// parse is an error.
func ParseSRT(data []byte) (CaptionSet, error) {
	content := strings.ReplaceAll(string(data), "\r\n", "\n")
	blocks := strings.Split(strings.TrimSpace(content), "\n\n")

	var cs CaptionSet
	for _, block := range blocks {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		// index line, timestamp line, at least one text line
		if len(lines) < 3 {
			continue
		}
		timestamps := strings.Split(lines[1], " --> ")
		if len(timestamps) != 2 {
			continue
		}
		start, err := parseSRTTime(timestamps[0])
		if err != nil {
			return nil, fmt.Errorf("invalid start timestamp %q: %w", timestamps[0], err)
		}
		end, err := parseSRTTime(timestamps[1])
		if err != nil {
			return nil, fmt.Errorf("invalid end timestamp %q: %w", timestamps[1], err)
		}
		cs = append(cs, Caption{
			Start: start,
			End:   end,
			Text:  strings.Join(lines[2:], " "),
		})
	}
	if len(cs) == 0 {
		return nil, fmt.Errorf("no caption blocks found")
	}
	return cs, nil
}

// formatSRTTime renders a duration as HH:MM:SS,mmm.
func formatSRTTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	ms := d / time.Millisecond
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// parseSRTTime parses HH:MM:SS,mmm into a duration.
func parseSRTTime(ts string) (time.Duration, error) {
	ts = strings.TrimSpace(ts)
	parts := strings.Split(ts, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("expected HH:MM:SS,mmm")
	}
	secParts := strings.Split(parts[2], ",")
	if len(secParts) != 2 {
		return 0, fmt.Errorf("missing milliseconds")
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hours: %w", err)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minutes: %w", err)
	}
	seconds, err := strconv.Atoi(secParts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid seconds: %w", err)
	}
	millis, err := strconv.Atoi(secParts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid milliseconds: %w", err)
	}

	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond, nil
}

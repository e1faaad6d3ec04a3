package logtail

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"
	"time"
)

// DefaultLines is how many entries the activity screen shows.
const DefaultLines = 400

const timeLayout = "2006-01-02T15:04:05.000Z0700"

// Entry is one line of the application log.
type Entry struct {
	Time    time.Time
	Level   string
	Logger  string
	Message string
	Error   string
	// Fields holds the remaining key/value pairs, formatted as key=value.
	Fields []string
}

// Read returns at most maxLines entries from the end of the file at path,
// oldest first. A missing file yields no entries.
func Read(path string, maxLines int) ([]Entry, error) {
	if maxLines <= 0 || path == "" {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	ring := make([]string, maxLines)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	count := 0
	idx := 0
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == "" {
			continue
		}
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		count = min(count+1, maxLines)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	start := 0
	if count == maxLines {
		start = idx
	}
	entries := make([]Entry, count)
	for i := range count {
		entries[i] = Parse(ring[(start+i)%maxLines])
	}
	return entries, nil
}

// Parse decodes one JSON log line. Lines that are not JSON become an entry
// whose message is the raw text.
func Parse(line string) Entry {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Entry{Message: strings.TrimSpace(line)}
	}

	e := Entry{
		Level:   strings.ToUpper(take(raw, "level")),
		Logger:  take(raw, "logger"),
		Message: take(raw, "msg"),
		Error:   take(raw, "error"),
	}
	if ts := take(raw, "ts"); ts != "" {
		if t, err := time.Parse(timeLayout, ts); err == nil {
			e.Time = t
		}
	}
	delete(raw, "caller")
	delete(raw, "stacktrace")
	delete(raw, "v")

	for _, k := range slices.Sorted(maps.Keys(raw)) {
		e.Fields = append(e.Fields, k+"="+fmt.Sprint(raw[k]))
	}
	return e
}

func take(raw map[string]any, key string) string {
	v, ok := raw[key]
	if !ok {
		return ""
	}
	delete(raw, key)
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

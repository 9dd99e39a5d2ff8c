package logx

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

type record struct {
	Level     Level
	Message   string
	Fields    Fields
	Timestamp time.Time
}

// Formatter renders a record into bytes.
type Formatter interface {
	Format(rec record) ([]byte, error)
}

type consoleFormatter struct{}

func (consoleFormatter) Format(rec record) ([]byte, error) {
	var b strings.Builder
	b.WriteString(rec.Timestamp.Format("2006-01-02 15:04:05"))
	b.WriteString(" [")
	b.WriteString(rec.Level.String())
	b.WriteString("] ")
	b.WriteString(rec.Message)

	if len(rec.Fields) > 0 {
		keys := make([]string, 0, len(rec.Fields))
		for k := range rec.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, rec.Fields[k])
		}
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

type jsonFormatter struct{}

func (jsonFormatter) Format(rec record) ([]byte, error) {
	out := make(map[string]any, len(rec.Fields)+3)
	for k, v := range rec.Fields {
		out[k] = v
	}
	out["timestamp"] = rec.Timestamp.Format(time.RFC3339Nano)
	out["level"] = rec.Level.String()
	out["message"] = rec.Message

	data, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

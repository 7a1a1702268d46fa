package file

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/tx-code/subwatch/internal/domain/observation"
)

var _ observation.Log = (*ObservationLog)(nil)

// FileName is the fixed name of the CSV log inside the data directory.
const FileName = "reddit_online_count.csv"

var header = []string{"timestamp", "subreddit", "online_count", "member_count", "success", "error"}

// ObservationLog appends one CSV row per monitoring cycle. The header
// row is written exactly once, when the file is created. Rows are
// never rewritten.
type ObservationLog struct {
	dir string
}

func NewObservationLog(dir string) *ObservationLog {
	return &ObservationLog{dir: dir}
}

func (l *ObservationLog) path() string {
	return filepath.Join(l.dir, FileName)
}

func (l *ObservationLog) Append(o *observation.Observation) (string, error) {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return "", fmt.Errorf("data dir: %w", err)
	}

	p := l.path()
	_, statErr := os.Stat(p)
	fresh := os.IsNotExist(statErr)

	f, err := os.OpenFile(p, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if fresh {
		if err := w.Write(header); err != nil {
			return "", fmt.Errorf("write header: %w", err)
		}
	}
	if err := w.Write(encodeRow(o)); err != nil {
		return "", fmt.Errorf("write row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush log: %w", err)
	}
	return p, nil
}

func (l *ObservationLog) Last() (*observation.Observation, error) {
	rows, err := l.readRows()
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return decodeRow(rows[len(rows)-1]), nil
}

func (l *ObservationLog) Recent(limit int) ([]*observation.Observation, error) {
	rows, err := l.readRows()
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[len(rows)-limit:]
	}
	out := make([]*observation.Observation, 0, len(rows))
	for _, r := range rows {
		out = append(out, decodeRow(r))
	}
	return out, nil
}

// readRows returns all data rows, header excluded. A missing file is
// an empty log, not an error.
func (l *ObservationLog) readRows() ([][]string, error) {
	f, err := os.Open(l.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var rows [][]string
	first := true
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		if first {
			first = false
			continue
		}
		if len(rec) >= len(header) {
			rows = append(rows, rec)
		}
	}
	return rows, nil
}

func encodeRow(o *observation.Observation) []string {
	return []string{
		o.Timestamp.Format(time.RFC3339),
		o.Subreddit,
		intField(o.OnlineCount),
		intField(o.MemberCount),
		strconv.FormatBool(o.Success),
		o.Error,
	}
}

func decodeRow(rec []string) *observation.Observation {
	o := &observation.Observation{Subreddit: rec[1], Error: rec[5]}
	if t, err := time.Parse(time.RFC3339, rec[0]); err == nil {
		o.Timestamp = t
	}
	o.OnlineCount = parseIntField(rec[2])
	o.MemberCount = parseIntField(rec[3])
	o.Success, _ = strconv.ParseBool(rec[4])
	return o
}

func intField(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func parseIntField(s string) *int {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

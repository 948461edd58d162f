package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"time"

	"github.com/Egor213/AuditTrack/internal/domain"
)

const flatTextColumns = 7

var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// FlatText writes one comma separated line per entry, without a header:
// timestamp, actor, action kind, entity kind, entity id, outcome, source address.
// Line breaks inside fields become spaces so the line count equals the entry count.
func FlatText(entries []domain.LogEntry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	record := make([]string, flatTextColumns)
	for _, e := range entries {
		record[0] = e.OccurredAt.UTC().Format(time.RFC3339)
		record[1] = e.ActorDisplayName()
		record[2] = string(e.ActionKind)
		record[3] = e.EntityKind
		record[4] = e.EntityID
		record[5] = string(e.Outcome)
		record[6] = e.SourceAddress

		for i := range record {
			record[i] = lineBreaks.Replace(record[i])
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

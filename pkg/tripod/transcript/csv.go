package transcript

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"
)

// CSVHeader is the column layout of the sentence export.
var CSVHeader = []string{"ref", "sentence", "tags", "notes"}

// ToCSV renders sentences as CSV with CRLF record endings. Every row carries
// the same notes value. Fields containing a comma, a double quote, a line
// break or a leading space are quoted with inner quotes doubled. Line breaks
// inside a quoted field are written exactly as given.
//
// It returns "" when there are no sentences.
func ToCSV(sentences []Sentence, notes string) string {
	if len(sentences) == 0 {
		return ""
	}

	// csv.Writer with UseCRLF also rewrites line breaks inside fields, so
	// records are written one at a time and only the terminator is changed.
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	var sb strings.Builder
	writeRecord := func(rec []string) {
		buf.Reset()
		// bytes.Buffer never fails, so Write errors are impossible here.
		_ = w.Write(rec)
		w.Flush()
		sb.Write(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
		sb.WriteString("\r\n")
	}

	writeRecord(CSVHeader)
	for _, s := range sentences {
		writeRecord([]string{
			strconv.Itoa(s.Index),
			strings.TrimSpace(s.Text),
			s.Tags.String(),
			notes,
		})
	}
	return sb.String()
}

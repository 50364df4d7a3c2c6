// Package export renders notes as a spreadsheet-friendly CSV document.
//
// The output starts with a UTF-8 byte order mark, separates records with CRLF
// and quotes every field, so spreadsheet applications open it without an
// import dialog and never reinterpret values.
package export

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/notekeep/notekeep-server/internal/domain"
)

// Filename is the suggested download name.
const Filename = "notes_export.csv"

// ContentType is the media type of the document.
const ContentType = "text/csv; charset=utf-8"

// TimeLayout formats timestamps in the *_jst columns.
const TimeLayout = "2006/01/02 15:04:05"

const bom = "\ufeff"

// Tokyo is the zone of the *_jst columns.
//
//nolint:gochecknoglobals // Loaded once
var Tokyo = loadTokyo()

func loadTokyo() *time.Location {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		return time.FixedZone("JST", 9*60*60)
	}
	return loc
}

// Options selects the optional columns.
type Options struct {
	// IncludeDeleted adds deleted_at_jst.
	IncludeDeleted bool
	// Ranked adds _rank.
	Ranked bool
}

// Header returns the column names for opts.
func Header(opts Options) []string {
	h := []string{"id", "content", "tags", "created_at_jst", "updated_at_jst"}
	if opts.IncludeDeleted {
		h = append(h, "deleted_at_jst")
	}
	if opts.Ranked {
		h = append(h, "_rank")
	}
	return h
}

// Write renders notes to w.
func Write(w io.Writer, notes []domain.RankedNote, opts Options) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(bom); err != nil {
		return err
	}

	// The header row is written bare; every data field is quoted.
	if _, err := bw.WriteString(strings.Join(Header(opts), ",")); err != nil {
		return err
	}
	for i := range notes {
		if _, err := bw.WriteString("\r\n"); err != nil {
			return err
		}
		writeRecord(bw, row(&notes[i], opts))
	}
	return bw.Flush()
}

func row(n *domain.RankedNote, opts Options) []string {
	rec := []string{
		strconv.FormatInt(n.ID, 10),
		n.Content,
		strings.Join(n.Tags, ","),
		FormatTime(&n.CreatedAt),
		FormatTime(&n.UpdatedAt),
	}
	if opts.IncludeDeleted {
		rec = append(rec, FormatTime(n.DeletedAt))
	}
	if opts.Ranked {
		var rank string
		if n.Rank != nil {
			rank = strconv.FormatFloat(*n.Rank, 'f', -1, 64)
		}
		rec = append(rec, rank)
	}
	return rec
}

// writeRecord quotes every field and doubles embedded quotes. Errors surface
// from the final Flush.
func writeRecord(bw *bufio.Writer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			bw.WriteByte(',')
		}
		bw.WriteByte('"')
		bw.WriteString(strings.ReplaceAll(f, `"`, `""`))
		bw.WriteByte('"')
	}
}

// FormatTime renders t in Tokyo time, or "" for nil.
func FormatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.In(Tokyo).Format(TimeLayout)
}

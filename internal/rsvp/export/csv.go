// Package export renders RSVP responses as the admin CSV download.
//
// encoding/csv only quotes a field when it has to, while the download quotes
// every free text column so spreadsheet tools never reinterpret a guest's name
// or message. Rows are therefore written by hand.
package export

import (
	"bytes"
	"fmt"
	"io"
	"ms-rsvp/internal/models"
	"strconv"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

var Header = []string{"Name", "Email", "Attendance", "Guests", "Message", "Date"}

// Filename is the download name for a CSV produced at now, dated in UTC like
// the Date column.
func Filename(now time.Time) string {
	return fmt.Sprintf("rsvp-responses-%s.csv", now.UTC().Format(DateLayout))
}

// WriteCSV writes the header and one row per response, in the given order.
// Rows are separated by a single newline with none after the last row.
func WriteCSV(w io.Writer, responses []models.RSVPResponse) error {
	if _, err := io.WriteString(w, strings.Join(Header, ",")); err != nil {
		return err
	}
	for _, r := range responses {
		if _, err := io.WriteString(w, "\n"+Row(r)); err != nil {
			return err
		}
	}
	return nil
}

func CSV(responses []models.RSVPResponse) []byte {
	var buf bytes.Buffer
	_ = WriteCSV(&buf, responses)
	return buf.Bytes()
}

func Row(r models.RSVPResponse) string {
	return strings.Join([]string{
		quote(r.Name),
		quote(r.Email),
		string(r.Attendance),
		strconv.Itoa(r.Guests),
		quote(r.Message),
		r.CreatedAt.UTC().Format(DateLayout),
	}, ",")
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

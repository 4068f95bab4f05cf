package baseline

import (
	"encoding/csv"
	"io"
	"strconv"
)

// CSVHeader is the first row written by WriteCSV.
var CSVHeader = []string{"MAC", "Source", "RSSI", "Complete Local Name", "Channel", "Auth"}

const unknownName = "UNKNOWN"

// WriteCSV writes the snapshot records in snapshot order.
func WriteCSV(w io.Writer, s *Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	if s != nil {
		for _, r := range s.Records {
			if err := cw.Write(csvRow(&r)); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(r *Record) []string {
	name := r.Name
	if name == "" {
		name = unknownName
	}
	var channel, auth string
	if r.WiFi != nil {
		channel = strconv.Itoa(r.WiFi.Channel)
		auth = string(r.WiFi.Auth)
	}
	return []string{
		r.Address.String(),
		r.Sources.Label(),
		strconv.Itoa(r.RSSI),
		name,
		channel,
		auth,
	}
}

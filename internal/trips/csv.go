package trips

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// TimeLayout is the timestamp format used by the trip exports.
const TimeLayout = "2006-01-02 15:04:05"

// columns maps export header names to Trip fields. The reader is
// header-driven so column order does not matter, and unknown columns
// (vendor_id, rate_code, ...) are ignored.
var columns = map[string]struct{}{
	"medallion":         {},
	"pickup_datetime":   {},
	"dropoff_datetime":  {},
	"passenger_count":   {},
	"trip_distance":     {},
	"pickup_longitude":  {},
	"pickup_latitude":   {},
	"dropoff_longitude": {},
	"dropoff_latitude":  {},
	"fare_amount":       {},
	"tip_amount":        {},
	"total_amount":      {},
}

// Reader decodes trip records from a CSV stream. Rows that fail to decode
// are counted and skipped rather than aborting the whole file; large trip
// exports routinely contain a handful of mangled rows.
type Reader struct {
	cr      *csv.Reader
	cols    map[string]int
	header  []string
	badRows int
	rows    int
}

// NewReader wraps r and consumes the header row.
func NewReader(r io.Reader) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.ToLower(name))
		if _, ok := columns[name]; ok {
			cols[name] = i
		}
	}
	for _, required := range []string{"pickup_longitude", "pickup_latitude"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("csv header missing required column %q", required)
		}
	}

	out := make([]string, len(header))
	copy(out, header)
	return &Reader{cr: cr, cols: cols, header: out}, nil
}

// Header returns the raw header row as read from the file.
func (r *Reader) Header() []string { return r.header }

// Rows returns the number of data rows consumed so far, including bad ones.
func (r *Reader) Rows() int { return r.rows }

// BadRows returns the number of rows skipped because they failed to decode.
func (r *Reader) BadRows() int { return r.badRows }

// Next returns the next decodable trip. It returns io.EOF at end of stream.
func (r *Reader) Next() (Trip, error) {
	for {
		rec, err := r.cr.Read()
		if err == io.EOF {
			return Trip{}, io.EOF
		}
		if err != nil {
			// Malformed CSV row (bare quote, wrong field count): count and move on.
			r.rows++
			r.badRows++
			continue
		}
		r.rows++

		t, err := r.decode(rec)
		if err != nil {
			r.badRows++
			continue
		}
		return t, nil
	}
}

// ReadAll consumes the remainder of the stream.
func (r *Reader) ReadAll() ([]Trip, error) {
	var out []Trip
	for {
		t, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, t)
	}
}

func (r *Reader) decode(rec []string) (Trip, error) {
	var t Trip
	var err error

	get := func(name string) (string, bool) {
		i, ok := r.cols[name]
		if !ok || i >= len(rec) {
			return "", false
		}
		return strings.TrimSpace(rec[i]), true
	}

	if s, ok := get("medallion"); ok {
		t.Medallion = s
	}
	if s, ok := get("pickup_datetime"); ok && s != "" {
		if t.PickupTime, err = time.Parse(TimeLayout, s); err != nil {
			return Trip{}, fmt.Errorf("pickup_datetime: %w", err)
		}
	}
	if s, ok := get("dropoff_datetime"); ok && s != "" {
		if t.DropoffTime, err = time.Parse(TimeLayout, s); err != nil {
			return Trip{}, fmt.Errorf("dropoff_datetime: %w", err)
		}
	}
	if s, ok := get("passenger_count"); ok && s != "" {
		if t.PassengerCount, err = strconv.Atoi(s); err != nil {
			return Trip{}, fmt.Errorf("passenger_count: %w", err)
		}
	}

	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{"trip_distance", &t.TripDistance},
		{"pickup_longitude", &t.PickupLng},
		{"pickup_latitude", &t.PickupLat},
		{"dropoff_longitude", &t.DropoffLng},
		{"dropoff_latitude", &t.DropoffLat},
		{"fare_amount", &t.FareAmount},
		{"tip_amount", &t.TipAmount},
		{"total_amount", &t.TotalAmount},
	} {
		s, ok := get(f.name)
		if !ok || s == "" {
			continue
		}
		if *f.dst, err = strconv.ParseFloat(s, 64); err != nil {
			return Trip{}, fmt.Errorf("%s: %w", f.name, err)
		}
	}

	return t, nil
}

// Writer encodes trips back to CSV with an extra cluster label column.
// It writes the canonical column set rather than echoing arbitrary input
// columns, which keeps downstream consumers on a fixed schema.
type Writer struct {
	cw     *csv.Writer
	wroteH bool
}

// NewWriter returns a Writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{cw: csv.NewWriter(w)}
}

var outputHeader = []string{
	"medallion", "pickup_datetime", "dropoff_datetime", "passenger_count",
	"trip_distance", "pickup_longitude", "pickup_latitude",
	"dropoff_longitude", "dropoff_latitude", "fare_amount", "tip_amount",
	"total_amount", "cluster",
}

// Write appends one labeled trip row, emitting the header first if needed.
func (w *Writer) Write(t Trip, cluster int) error {
	if !w.wroteH {
		if err := w.cw.Write(outputHeader); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
		w.wroteH = true
	}

	fmtTime := func(ts time.Time) string {
		if ts.IsZero() {
			return ""
		}
		return ts.Format(TimeLayout)
	}

	rec := []string{
		t.Medallion,
		fmtTime(t.PickupTime),
		fmtTime(t.DropoffTime),
		strconv.Itoa(t.PassengerCount),
		strconv.FormatFloat(t.TripDistance, 'f', -1, 64),
		strconv.FormatFloat(t.PickupLng, 'f', -1, 64),
		strconv.FormatFloat(t.PickupLat, 'f', -1, 64),
		strconv.FormatFloat(t.DropoffLng, 'f', -1, 64),
		strconv.FormatFloat(t.DropoffLat, 'f', -1, 64),
		strconv.FormatFloat(t.FareAmount, 'f', -1, 64),
		strconv.FormatFloat(t.TipAmount, 'f', -1, 64),
		strconv.FormatFloat(t.TotalAmount, 'f', -1, 64),
		strconv.Itoa(cluster),
	}
	return w.cw.Write(rec)
}

// Flush flushes buffered rows and reports any write error.
func (w *Writer) Flush() error {
	w.cw.Flush()
	return w.cw.Error()
}

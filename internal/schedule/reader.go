package schedule

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	StopsFile     = "stops.txt"
	StopTimesFile = "stop_times.txt"
)

var (
	stopsColumns     = []string{"stop_id", "stop_name", "stop_lat", "stop_lon"}
	stopTimesColumns = []string{"trip_id", "stop_id", "stop_sequence", "arrival_time", "departure_time"}
)

// SchemaError reports a required column missing from a schedule table. It is
// fatal: nothing downstream can work around a missing column.
type SchemaError struct {
	File   string
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: missing required column %q", e.File, e.Column)
}

// RowError reports a row whose values cannot be parsed.
type RowError struct {
	File string
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s line %d: %v", e.File, e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// table streams the rows of one delimited file, addressing cells by header name.
type table struct {
	file   string
	reader *csv.Reader
	index  map[string]int
}

func openTable(file string, r io.Reader, required []string) (*table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &SchemaError{File: file, Column: required[0]}
	}
	if err != nil {
		return nil, fmt.Errorf("error reading %s header: %w", file, err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		index[name] = i
	}
	for _, column := range required {
		if _, ok := index[column]; !ok {
			return nil, &SchemaError{File: file, Column: column}
		}
	}

	return &table{file: file, reader: reader, index: index}, nil
}

// next returns the following record, or io.EOF once the file is exhausted.
func (t *table) next() ([]string, error) {
	record, err := t.reader.Read()
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("error reading %s: %w", t.file, err)
	}
	return record, err
}

func (t *table) line() int {
	line, _ := t.reader.FieldPos(0)
	return line
}

func (t *table) get(record []string, column string) string {
	i, ok := t.index[column]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func (t *table) rowError(err error) error {
	return &RowError{File: t.file, Line: t.line(), Err: err}
}

// ReadStops parses a stops table. Columns other than stop_id, stop_name,
// stop_lat and stop_lon are ignored. Rows without a stop_id are skipped.
func ReadStops(r io.Reader) ([]Stop, error) {
	t, err := openTable(StopsFile, r, stopsColumns)
	if err != nil {
		return nil, err
	}

	var stops []Stop
	for {
		record, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		stop := Stop{
			ID:   t.get(record, "stop_id"),
			Name: t.get(record, "stop_name"),
			Lat:  t.get(record, "stop_lat"),
			Lon:  t.get(record, "stop_lon"),
		}
		if stop.ID == "" {
			continue
		}
		stops = append(stops, stop)
	}
	return stops, nil
}

// ReadStopTimes parses a stop_times table. When only one of arrival_time and
// departure_time is present the other takes the same value.
func ReadStopTimes(r io.Reader) ([]StopTime, error) {
	t, err := openTable(StopTimesFile, r, stopTimesColumns)
	if err != nil {
		return nil, err
	}

	var stopTimes []StopTime
	for {
		record, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		tripID := t.get(record, "trip_id")
		stopID := t.get(record, "stop_id")
		if tripID == "" || stopID == "" {
			return nil, t.rowError(errors.New("trip_id and stop_id are required"))
		}

		sequence, err := strconv.Atoi(t.get(record, "stop_sequence"))
		if err != nil {
			return nil, t.rowError(fmt.Errorf("invalid stop_sequence: %w", err))
		}

		arrivalRaw := t.get(record, "arrival_time")
		departureRaw := t.get(record, "departure_time")
		switch {
		case arrivalRaw == "" && departureRaw == "":
			return nil, t.rowError(errors.New("arrival_time and departure_time are both empty"))
		case arrivalRaw == "":
			arrivalRaw = departureRaw
		case departureRaw == "":
			departureRaw = arrivalRaw
		}

		arrival, err := ParseClock(arrivalRaw)
		if err != nil {
			return nil, t.rowError(err)
		}
		departure, err := ParseClock(departureRaw)
		if err != nil {
			return nil, t.rowError(err)
		}

		stopTimes = append(stopTimes, StopTime{
			TripID:    tripID,
			StopID:    stopID,
			Sequence:  sequence,
			Arrival:   arrival,
			Departure: departure,
		})
	}
	return stopTimes, nil
}

package schedule

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strconv"

	"github.com/jamespfennell/gtfs"

	"trainmapper.org/internal/logging"
)

// Source names where the schedule is read from: either the two plain tables
// or a zipped GTFS static feed. FeedPath wins when both are set.
type Source struct {
	StopsPath     string
	StopTimesPath string
	FeedPath      string
}

func (s Source) String() string {
	if s.FeedPath != "" {
		return s.FeedPath
	}
	return s.StopsPath + "," + s.StopTimesPath
}

// Load reads the schedule described by src.
func Load(src Source, logger *slog.Logger) (*Data, error) {
	if src.FeedPath != "" {
		return LoadFeed(src.FeedPath)
	}
	return LoadFiles(src.StopsPath, src.StopTimesPath, logger)
}

// LoadFiles reads a stops table and a stop_times table from disk.
func LoadFiles(stopsPath, stopTimesPath string, logger *slog.Logger) (*Data, error) {
	stopsFile, err := os.Open(stopsPath)
	if err != nil {
		return nil, fmt.Errorf("error opening stops file: %w", err)
	}
	defer logging.SafeCloseWithLogging(stopsFile, logger, "close_stops_file")

	stops, err := ReadStops(stopsFile)
	if err != nil {
		return nil, err
	}

	stopTimesFile, err := os.Open(stopTimesPath)
	if err != nil {
		return nil, fmt.Errorf("error opening stop times file: %w", err)
	}
	defer logging.SafeCloseWithLogging(stopTimesFile, logger, "close_stop_times_file")

	stopTimes, err := ReadStopTimes(stopTimesFile)
	if err != nil {
		return nil, err
	}

	return &Data{Stops: stops, StopTimes: stopTimes}, nil
}

// LoadFeed reads a zipped GTFS static feed. Stops come from the parsed feed;
// stop_times.txt is read from the archive with ReadStopTimes so that rows
// carrying only one of arrival_time and departure_time keep their time.
func LoadFeed(feedPath string) (*Data, error) {
	b, err := os.ReadFile(feedPath)
	if err != nil {
		return nil, fmt.Errorf("error reading GTFS feed: %w", err)
	}

	static, err := gtfs.ParseStatic(b, gtfs.ParseStaticOptions{})
	if err != nil {
		return nil, fmt.Errorf("error parsing GTFS feed: %w", err)
	}

	stopTimes, err := readFeedStopTimes(b)
	if err != nil {
		return nil, err
	}

	data := stopsFromStatic(static)
	data.StopTimes = stopTimes
	return data, nil
}

func readFeedStopTimes(b []byte) ([]StopTime, error) {
	archive, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("error opening GTFS feed: %w", err)
	}

	for _, f := range archive.File {
		if path.Base(f.Name) != StopTimesFile {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("error opening %s in GTFS feed: %w", StopTimesFile, err)
		}
		stopTimes, err := ReadStopTimes(rc)
		if cerr := rc.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("error closing %s in GTFS feed: %w", StopTimesFile, cerr)
		}
		return stopTimes, err
	}
	return nil, errors.New("GTFS feed has no " + StopTimesFile)
}

func stopsFromStatic(static *gtfs.Static) *Data {
	data := &Data{Stops: make([]Stop, 0, len(static.Stops))}

	for _, s := range static.Stops {
		data.Stops = append(data.Stops, Stop{
			ID:   s.Id,
			Name: s.Name,
			Lat:  formatCoordinate(s.Latitude),
			Lon:  formatCoordinate(s.Longitude),
		})
	}

	return data
}

func formatCoordinate(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

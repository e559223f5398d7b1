package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/san-kum/evtwin/internal/powertrain"
)

const InfluxMeasurement = "powertrain"

type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// Points converts records into InfluxDB points tagged with the run ID and
// motor variant. Record time offsets are added to start.
func Points(meta RunMetadata, records []powertrain.Record, start time.Time) []*influxdb2_write.Point {
	points := make([]*influxdb2_write.Point, 0, len(records))
	for _, r := range records {
		ts := start.Add(time.Duration(r.TimeMinutes * float64(time.Minute)))
		p := influxdb2.NewPointWithMeasurement(InfluxMeasurement).
			AddTag("run_id", meta.ID).
			SetTime(ts)
		if meta.MotorVariant != "" {
			p.AddTag("motor", meta.MotorVariant)
		}
		for name, v := range Fields(r) {
			p.AddField(name, v)
		}
		p.AddField(regenColumn, r.Regen)
		points = append(points, p)
	}
	return points
}

// WriteLineProtocol writes points in InfluxDB line protocol, one per line,
// for offline import.
func WriteLineProtocol(w io.Writer, points []*influxdb2_write.Point) error {
	for _, p := range points {
		line := strings.TrimRight(influxdb2_write.PointToLineProtocol(p, time.Nanosecond), "\n")
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// ExportInflux writes a run to an InfluxDB v2 server with the blocking API.
func ExportInflux(ctx context.Context, cfg InfluxConfig, meta RunMetadata, records []powertrain.Record) (int, error) {
	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token,
		influxdb2.DefaultOptions().SetBatchSize(2500))
	defer client.Close()

	ok, err := client.Ping(ctx)
	if err != nil {
		return 0, fmt.Errorf("influx: %s unreachable: %w", cfg.URL, err)
	}
	if !ok {
		return 0, fmt.Errorf("influx: %s not ready", cfg.URL)
	}

	points := Points(meta, records, meta.Timestamp)
	if err := client.WriteAPIBlocking(cfg.Org, cfg.Bucket).WritePoint(ctx, points...); err != nil {
		return 0, fmt.Errorf("influx: write: %w", err)
	}
	return len(points), nil
}

package recorder

import (
	"context"
	"strconv"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/pkg/errors"
)

const defaultInfluxMeasurement = "dio"

// Influx writes one point per sample with the blocking write API.
type Influx struct {
	Host         string
	Token        string
	Organization string
	Bucket       string
	Measurement  string

	client influxdb2.Client
	writer api.WriteAPIBlocking
}

func (in *Influx) Open() error {
	if len(in.Host) == 0 || len(in.Bucket) == 0 {
		return errors.New("influx host and bucket are required")
	}
	in.client = influxdb2.NewClient(in.Host, in.Token)
	in.writer = in.client.WriteAPIBlocking(in.Organization, in.Bucket)
	return nil
}

func (in *Influx) point(s Sample) *write.Point {
	measurement := in.Measurement
	if len(measurement) == 0 {
		measurement = defaultInfluxMeasurement
	}
	return influxdb2.NewPoint(
		measurement,
		map[string]string{
			"board": strconv.Itoa(s.Board),
			"port":  strconv.Itoa(int(s.Port)),
		},
		map[string]interface{}{
			"written": int64(s.Written),
			"read":    int64(s.Read),
			"cycle":   int64(s.Cycle),
		},
		s.At,
	)
}

func (in *Influx) Record(s Sample) error {
	if in.writer == nil {
		return errors.New("influx recorder not open")
	}
	err := in.writer.WritePoint(context.Background(), in.point(s))
	if err != nil {
		return errors.Wrapf(err, "failed to write sample of port %d to influx", s.Port)
	}
	return nil
}

func (in *Influx) EndCycle(cycle int) error {
	return nil
}

func (in *Influx) Close() error {
	if in.client != nil {
		in.client.Close()
		in.client = nil
		in.writer = nil
	}
	return nil
}

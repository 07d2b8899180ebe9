package output

import (
	"context"

	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/influxdata/influxdb-client-go/api"

	"github.com/axmet/axlog/pkg/ax178"
)

// InfluxOutput writes a point per measurement. Values are normalized to base
// units so a series spanning an auto-range change stays comparable; the
// display prefix is kept as a tag.
type InfluxOutput struct {
	writeAPI api.WriteAPI
	recvChan chan ax178.Measurement
}

func NewInfluxOutput(writeAPI api.WriteAPI) *InfluxOutput {
	return &InfluxOutput{
		writeAPI: writeAPI,
		recvChan: make(chan ax178.Measurement, measurementBufferLength),
	}
}

func (o *InfluxOutput) Receive() chan<- ax178.Measurement {
	return o.recvChan
}

func (o *InfluxOutput) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			o.writeAPI.Flush()
			return ctx.Err()
		case m := <-o.recvChan:
			o.writeAPI.WritePoint(influxdb2.NewPoint("axlog.measurement",
				map[string]string{
					"unit":   string(m.Unit),
					"prefix": string(m.Prefix),
					"mode":   string(m.Mode),
				},
				map[string]interface{}{
					"value":    m.BaseValue(),
					"overload": m.Overload,
				}, m.Timestamp))
		}
	}
}

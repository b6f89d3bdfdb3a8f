package recorder

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/rsenegor-bpc/DIO/mqtt"
)

const defaultMqttTopic = "singledio"
const mqttDisconnectTimeout = 2 * time.Second

// Mqtt publishes every sample as JSON on <Topic>/port/<n>.
type Mqtt struct {
	Publisher mqtt.Publisher
	Topic     string
}

func (m *Mqtt) topic(port uint16) string {
	prefix := m.Topic
	if len(prefix) == 0 {
		prefix = defaultMqttTopic
	}
	return fmt.Sprintf("%s/port/%d", prefix, port)
}

func (m *Mqtt) Record(s Sample) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "failed to encode sample")
	}
	return m.Publisher.Publish(m.topic(s.Port), payload)
}

func (m *Mqtt) EndCycle(cycle int) error {
	return nil
}

// Close disconnects the publisher when it holds a broker connection.
func (m *Mqtt) Close() error {
	dc, ok := m.Publisher.(interface {
		Disconnect(ctx context.Context) error
	})
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), mqttDisconnectTimeout)
	defer cancel()
	return dc.Disconnect(ctx)
}

package recorder

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/pkg/errors"
)

type fakePublisher struct {
	topics   []string
	payloads [][]byte
	err      error
}

func (fp *fakePublisher) Publish(topic string, payload []byte) error {
	if fp.err != nil {
		return fp.err
	}
	fp.topics = append(fp.topics, topic)
	fp.payloads = append(fp.payloads, payload)
	return nil
}

type countingRecorder struct {
	records, cycles, closes int
	err                     error
}

func (cr *countingRecorder) Record(s Sample) error {
	cr.records++
	return cr.err
}

func (cr *countingRecorder) EndCycle(cycle int) error {
	cr.cycles++
	return cr.err
}

func (cr *countingRecorder) Close() error {
	cr.closes++
	return cr.err
}

func TestConsoleFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	c := &Console{W: buf}

	c.Record(Sample{Port: 2, Written: 0x1f, Read: 0x1f})
	c.Record(Sample{Port: 3, Written: 0x1f, Read: 0xbeef})
	c.EndCycle(0)

	want := "Value Write on Port 2: 0x1f\n" +
		"Value Read on Port 2: 0x1f\n" +
		"Value Write on Port 3: 0x1f\n" +
		"Value Read on Port 3: 0xbeef\n" +
		"\n"
	if buf.String() != want {
		t.Errorf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestMqttRecorder(t *testing.T) {
	fp := &fakePublisher{}
	m := &Mqtt{Publisher: fp, Topic: "lab/bench1"}

	at := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	err := m.Record(Sample{Board: 1, Cycle: 4, Port: 5, Written: 4, Read: 4, At: at})
	if err != nil {
		t.Fatalf("Record returned err: %v", err)
	}

	if len(fp.topics) != 1 || fp.topics[0] != "lab/bench1/port/5" {
		t.Fatalf("got topics %v", fp.topics)
	}

	got := Sample{}
	if err := json.Unmarshal(fp.payloads[0], &got); err != nil {
		t.Fatalf("payload is not json: %v", err)
	}
	if got.Port != 5 || got.Cycle != 4 || got.Board != 1 || !got.At.Equal(at) {
		t.Errorf("got sample %+v", got)
	}
}

func TestMqttRecorderDefaultTopic(t *testing.T) {
	m := &Mqtt{}
	if m.topic(0) != "singledio/port/0" {
		t.Errorf("got %s", m.topic(0))
	}
}

func TestMqttRecorderPublishError(t *testing.T) {
	fp := &fakePublisher{err: errors.New("broker gone")}
	m := &Mqtt{Publisher: fp}

	if err := m.Record(Sample{}); err == nil {
		t.Error("got nil error from failing publisher")
	}
}

func TestInfluxPoint(t *testing.T) {
	in := &Influx{}
	at := time.Unix(1700000000, 0)
	p := in.point(Sample{Board: 0, Cycle: 7, Port: 2, Written: 7, Read: 6, At: at})

	if p.Name() != "dio" {
		t.Errorf("got measurement %s want dio", p.Name())
	}
	if !p.Time().Equal(at) {
		t.Errorf("got time %v want %v", p.Time(), at)
	}

	tags := map[string]string{}
	for _, tag := range p.TagList() {
		tags[tag.Key] = tag.Value
	}
	if tags["board"] != "0" || tags["port"] != "2" {
		t.Errorf("got tags %v", tags)
	}

	fields := map[string]interface{}{}
	for _, f := range p.FieldList() {
		fields[f.Key] = f.Value
	}
	if fields["written"] != int64(7) || fields["read"] != int64(6) || fields["cycle"] != int64(7) {
		t.Errorf("got fields %v", fields)
	}
}

func TestInfluxNeedsOpen(t *testing.T) {
	in := &Influx{}
	if err := in.Record(Sample{}); err == nil {
		t.Error("Record before Open succeeded")
	}
	if err := in.Open(); err == nil {
		t.Error("Open without host and bucket succeeded")
	}
}

func TestMulti(t *testing.T) {
	first := &countingRecorder{}
	second := &countingRecorder{}
	m := Multi{first, second}

	m.Record(Sample{})
	m.EndCycle(0)
	m.Close()

	for _, cr := range []*countingRecorder{first, second} {
		if cr.records != 1 || cr.cycles != 1 || cr.closes != 1 {
			t.Errorf("got %+v", cr)
		}
	}
}

func TestMultiStopsOnError(t *testing.T) {
	failing := &countingRecorder{err: errors.New("disk full")}
	after := &countingRecorder{}
	m := Multi{failing, after}

	if err := m.Record(Sample{}); err == nil {
		t.Error("got nil error")
	}
	if after.records != 0 {
		t.Error("recorder after a failing one was called")
	}

	if err := m.Close(); err == nil {
		t.Error("Close returned nil error")
	}
	if after.closes != 1 {
		t.Error("Close stopped at the failing recorder")
	}
}

package logger

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestComponent_TagsJSONLines(t *testing.T) {
	var buf bytes.Buffer
	log := Component(New(&buf, "json"), "result_worker")
	log.Info().Int("batch", 3).Msg("flushed")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("not a JSON line: %v (%s)", err, buf.String())
	}
	if line["component"] != "result_worker" {
		t.Errorf("component = %v", line["component"])
	}
	if line["message"] != "flushed" {
		t.Errorf("message = %v", line["message"])
	}
	if _, ok := line["time"]; !ok {
		t.Error("missing timestamp")
	}
}

package registry

import (
	"encoding/json"
	"testing"

	"github.com/inventiapp/stocktrack-backend/pkg/enums"
)

func TestDecoderRegistry(t *testing.T) {
	reg := NewDecoderRegistry()
	reg.Register(enums.EventStockLow, 1, func(payload json.RawMessage) (interface{}, error) {
		var decoded map[string]int
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return nil, err
		}
		return decoded, nil
	})

	input := json.RawMessage(`{"current_stock":2}`)
	output, err := reg.Decode(enums.EventStockLow, 1, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outMap, ok := output.(map[string]int); !ok || outMap["current_stock"] != 2 {
		t.Fatalf("unexpected output %+v", output)
	}
}

func TestDecoderRegistryUnknownVersion(t *testing.T) {
	reg := NewDecoderRegistry()
	if _, err := reg.Decode(enums.EventStockLow, 2, json.RawMessage(`{}`)); err == nil {
		t.Fatal("expected missing decoder error")
	}
}

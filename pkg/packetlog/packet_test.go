package packetlog

import "testing"

func TestNewStreamPacket(t *testing.T) {
	p := NewStreamPacket("orders", Result{Value: "v"})

	if p.Kind != KindStream {
		t.Errorf("Expected KindStream, got %v", p.Kind)
	}
	if p.StreamName != "orders" {
		t.Errorf("Expected stream name 'orders', got %q", p.StreamName)
	}
	if p.Result.Value != "v" || p.Result.Done {
		t.Errorf("Unexpected result: %+v", p.Result)
	}
}

func TestNewConsumerPacket(t *testing.T) {
	p := NewConsumerPacket(42, Result{Value: "v", Done: true})

	if p.Kind != KindConsumer {
		t.Errorf("Expected KindConsumer, got %v", p.Kind)
	}
	if p.ConsumerID != 42 {
		t.Errorf("Expected consumer id 42, got %d", p.ConsumerID)
	}
	if !p.Result.Done {
		t.Error("Expected done result to be preserved")
	}
}

func TestNewEndPacket(t *testing.T) {
	// End markers are terminal even when the caller forgets the flag.
	p := NewEndPacket(Result{Value: "bye"})

	if p.Kind != KindEnd {
		t.Errorf("Expected KindEnd, got %v", p.Kind)
	}
	if !p.Result.Done {
		t.Error("Expected end packet result to be done")
	}
	if p.Result.Value != "bye" {
		t.Errorf("Expected value 'bye', got %v", p.Result.Value)
	}
}

func TestPacket_AddressedTo(t *testing.T) {
	tests := []struct {
		name       string
		packet     Packet
		cursorID   int64
		streamName string
		want       bool
	}{
		{"stream packet matching name", NewStreamPacket("orders", Result{}), 1, "orders", true},
		{"stream packet other name", NewStreamPacket("payments", Result{}), 1, "orders", false},
		{"consumer packet matching id", NewConsumerPacket(7, Result{}), 7, "orders", true},
		{"consumer packet other id", NewConsumerPacket(8, Result{}), 7, "orders", false},
		{"consumer packet ignores stream name", NewConsumerPacket(7, Result{}), 7, "payments", true},
		{"end packet matches everyone", NewEndPacket(Result{}), 99, "anything", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.packet.AddressedTo(tt.cursorID, tt.streamName); got != tt.want {
				t.Errorf("AddressedTo(%d, %q) = %t, want %t", tt.cursorID, tt.streamName, got, tt.want)
			}
		})
	}
}

func TestPacketKind_String(t *testing.T) {
	if KindStream.String() != "stream" || KindConsumer.String() != "consumer" || KindEnd.String() != "end" {
		t.Error("Unexpected kind names")
	}
}

package esdb

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/porti/internal/application/ports"
)

func TestTranslatePassesThroughForeignErrors(t *testing.T) {
	if translate(nil) != nil {
		t.Fatal("nil must stay nil")
	}
	boom := errors.New("boom")
	if err := translate(boom); err != boom {
		t.Fatalf("err = %v", err)
	}
}

func TestResolvedRejectsForeignEvents(t *testing.T) {
	if _, err := resolved(&ports.DeliveredEvent{RecordedEvent: ports.RecordedEvent{EventID: "x"}}); err == nil {
		t.Fatal("expected error for event without esdb payload")
	}
}

func TestOpenRejectsBadConnectionString(t *testing.T) {
	if _, err := Open("http://not-esdb", zerolog.Nop()); err == nil {
		t.Fatal("expected parse error")
	}
}

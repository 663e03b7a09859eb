package service

import (
	"testing"

	"github.com/subgate-io/subgate/pkg/model"
	"github.com/subgate-io/subgate/pkg/protocol/jsonproto"
)

func TestPlatformStatusService_MessageReceived(t *testing.T) {
	var got []model.PlatformStatus
	s := NewPlatformStatusService(jsonproto.NewPlatformStatus(), syncEnqueue,
		func(status model.PlatformStatus) { got = append(got, status) })

	s.MessageReceived(model.NewMessage("p2d/connection_status", []byte("CONNECTED")))
	s.MessageReceived(model.NewMessage("p2d/connection_status", []byte("OFFLINE\n")))

	if len(got) != 2 || got[0] != model.PlatformStatusConnected || got[1] != model.PlatformStatusOffline {
		t.Errorf("listener got %v", got)
	}
}

func TestPlatformStatusService_MalformedDropped(t *testing.T) {
	called := false
	s := NewPlatformStatusService(jsonproto.NewPlatformStatus(), syncEnqueue,
		func(model.PlatformStatus) { called = true })

	s.MessageReceived(model.NewMessage("p2d/connection_status", []byte("BOGUS")))
	if called {
		t.Error("listener invoked for an unknown status token")
	}
}

func TestPlatformStatusService_NilListener(t *testing.T) {
	s := NewPlatformStatusService(jsonproto.NewPlatformStatus(), syncEnqueue, nil)

	// Must not panic without a listener installed.
	s.MessageReceived(model.NewMessage("p2d/connection_status", []byte("CONNECTED")))
}

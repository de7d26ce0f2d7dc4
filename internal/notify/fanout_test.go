package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"assetbot/internal/monitor"
)

type fakeDeliverer struct {
	delivered []int64
	failFor   map[int64]error
}

func (f *fakeDeliverer) Deliver(_ context.Context, chatID int64, _ string, _ []Photo) error {
	if err := f.failFor[chatID]; err != nil {
		return err
	}
	f.delivered = append(f.delivered, chatID)
	return nil
}

type fakeImages struct {
	fetched []string
	failFor map[string]error
}

func (f *fakeImages) Fetch(_ context.Context, url string) ([]byte, error) {
	if err := f.failFor[url]; err != nil {
		return nil, err
	}
	f.fetched = append(f.fetched, url)
	return []byte("png"), nil
}

func TestBroadcastIsolatesFailures(t *testing.T) {
	t.Parallel()
	d := &fakeDeliverer{failFor: map[int64]error{2: errors.New("rate limited")}}
	f := NewFanout(d, nil, 0, zerolog.Nop())

	recips := []*monitor.Subscriber{{ID: 1}, {ID: 2}, {ID: 3}}
	sent, failed := f.Broadcast(context.Background(), Notification{Text: "hi"}, recips)

	if sent != 2 || failed != 1 {
		t.Fatalf("sent=%d failed=%d, want 2/1", sent, failed)
	}
	if len(d.delivered) != 2 || d.delivered[0] != 1 || d.delivered[1] != 3 {
		t.Fatalf("delivery order wrong: %v", d.delivered)
	}
	if !recips[0].Shown || recips[1].Shown || !recips[2].Shown {
		t.Fatalf("shown flags wrong: %v %v %v", recips[0].Shown, recips[1].Shown, recips[2].Shown)
	}
}

func TestBroadcastKeepsRegistrationOrder(t *testing.T) {
	t.Parallel()
	d := &fakeDeliverer{}
	f := NewFanout(d, nil, 0, zerolog.Nop())

	recips := []*monitor.Subscriber{{ID: 5}, {ID: 4}, {ID: 9}}
	f.Broadcast(context.Background(), Notification{Text: "hi"}, recips)

	want := []int64{5, 4, 9}
	for i, id := range want {
		if d.delivered[i] != id {
			t.Fatalf("delivered %v, want %v", d.delivered, want)
		}
	}
}

func TestBroadcastFetchesImagesOncePerDescriptor(t *testing.T) {
	t.Parallel()
	d := &fakeDeliverer{}
	imgs := &fakeImages{}
	f := NewFanout(d, imgs, 0, zerolog.Nop())

	n := Notification{Text: "hi", Images: []Image{{Name: "a", URL: "u1"}, {Name: "b", URL: "u2"}}}
	f.Broadcast(context.Background(), n, []*monitor.Subscriber{{ID: 1}, {ID: 2}})

	if len(imgs.fetched) != 2 {
		t.Fatalf("images fetched %d times, want once per descriptor: %v", len(imgs.fetched), imgs.fetched)
	}
}

func TestBroadcastSurvivesImageFailure(t *testing.T) {
	t.Parallel()
	d := &fakeDeliverer{}
	imgs := &fakeImages{failFor: map[string]error{"bad": errors.New("404")}}
	f := NewFanout(d, imgs, 0, zerolog.Nop())

	n := Notification{Text: "hi", Images: []Image{{Name: "a", URL: "bad"}, {Name: "b", URL: "ok"}}}
	sent, failed := f.Broadcast(context.Background(), n, []*monitor.Subscriber{{ID: 1}})

	if sent != 1 || failed != 0 {
		t.Fatalf("sent=%d failed=%d, want 1/0", sent, failed)
	}
	if len(imgs.fetched) != 1 || imgs.fetched[0] != "ok" {
		t.Fatalf("unexpected fetches: %v", imgs.fetched)
	}
}

func TestBroadcastAbortsOnCancel(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := &fakeDeliverer{}
	f := NewFanout(d, nil, 0, zerolog.Nop())
	sent, failed := f.Broadcast(ctx, Notification{Text: "hi"}, []*monitor.Subscriber{{ID: 1}})

	if sent != 0 || failed != 0 {
		t.Fatalf("sent=%d failed=%d after cancel, want 0/0", sent, failed)
	}
}

func TestSendTo(t *testing.T) {
	t.Parallel()
	d := &fakeDeliverer{}
	f := NewFanout(d, nil, 0, zerolog.Nop())

	if err := f.SendTo(context.Background(), 42, Notification{Text: "hi"}); err != nil {
		t.Fatalf("SendTo: %v", err)
	}
	if len(d.delivered) != 1 || d.delivered[0] != 42 {
		t.Fatalf("unexpected deliveries: %v", d.delivered)
	}
}

package trail

import (
	"testing"
	"time"

	"github.com/lixenwraith/radarterm/protocol"
)

func player(id, name string, x, y float64) protocol.Player {
	return protocol.Player{ID: id, Name: name, X: x, Y: y, Team: protocol.TeamT}
}

func TestUpdate_Cap(t *testing.T) {
	tr := NewTracker()
	start := time.Unix(0, 0)

	for i := 0; i < 40; i++ {
		tr.Update([]protocol.Player{player("1", "a", float64(i), 0)}, start.Add(time.Duration(i)*time.Second))

		got, ok := tr.Get("1_a")
		if !ok {
			t.Fatalf("update %d: trail missing", i)
		}
		if len(got.Samples) > MaxSamples {
			t.Fatalf("update %d: %d samples exceeds cap", i, len(got.Samples))
		}
	}

	got, _ := tr.Get("1_a")
	if len(got.Samples) != MaxSamples {
		t.Fatalf("len = %d, want %d", len(got.Samples), MaxSamples)
	}
	// Oldest evicted first: remaining samples are updates 28..39
	if got.Samples[0].X != 28 || got.Samples[MaxSamples-1].X != 39 {
		t.Errorf("window = [%v .. %v], want [28 .. 39]", got.Samples[0].X, got.Samples[MaxSamples-1].X)
	}
	if got.Team != protocol.TeamT {
		t.Errorf("team = %q", got.Team)
	}
}

func TestUpdate_Disappearance(t *testing.T) {
	tr := NewTracker()
	now := time.Unix(0, 0)

	tr.Update([]protocol.Player{player("1", "a", 0, 0), player("2", "b", 0, 0)}, now)
	tr.Update([]protocol.Player{player("2", "b", 1, 1)}, now.Add(time.Second))

	if _, ok := tr.Get("1_a"); ok {
		t.Error("trail should be deleted after one snapshot without its identity")
	}
	if tr.Len() != 1 {
		t.Errorf("Len() = %d, want 1", tr.Len())
	}

	// Reappearing identity starts a fresh trail
	tr.Update([]protocol.Player{player("1", "a", 5, 5), player("2", "b", 2, 2)}, now.Add(2*time.Second))
	if got, _ := tr.Get("1_a"); len(got.Samples) != 1 {
		t.Errorf("reappeared trail has %d samples, want 1", len(got.Samples))
	}
}

func TestUpdate_IdentityIsIDAndName(t *testing.T) {
	tr := NewTracker()
	now := time.Unix(0, 0)

	// Same id reused by a different player is a different identity
	tr.Update([]protocol.Player{player("7", "old", 0, 0)}, now)
	tr.Update([]protocol.Player{player("7", "new", 0, 0)}, now.Add(time.Second))

	if _, ok := tr.Get("7_old"); ok {
		t.Error("old identity should be gone")
	}
	if got, ok := tr.Get("7_new"); !ok || len(got.Samples) != 1 {
		t.Error("new identity should start with one sample")
	}
}

func TestEach_Order(t *testing.T) {
	tr := NewTracker()
	now := time.Unix(0, 0)
	tr.Update([]protocol.Player{player("3", "c", 0, 0), player("1", "a", 0, 0)}, now)

	var keys []string
	tr.Each(func(tl *Trail) { keys = append(keys, tl.Key) })
	if len(keys) != 2 || keys[0] != "3_c" || keys[1] != "1_a" {
		t.Errorf("Each order = %v", keys)
	}

	tr.Reset()
	if tr.Len() != 0 {
		t.Error("Reset should drop all trails")
	}
}

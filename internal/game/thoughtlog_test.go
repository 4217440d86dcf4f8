package game

import (
	"fmt"
	"testing"
)

func TestThoughtLog_WrapsOldestFirst(t *testing.T) {
	tl := NewThoughtLog(3)
	for i := 0; i < 5; i++ {
		tl.Add(i, "G0", GuardPatrol, fmt.Sprintf("m%d", i))
	}
	got := tl.Recent()
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	for i, want := range []string{"m2", "m3", "m4"} {
		if got[i].Message != want {
			t.Fatalf("entry %d = %q, want %q", i, got[i].Message, want)
		}
	}
}

func TestThoughtLog_NilIsNoop(t *testing.T) {
	var tl *ThoughtLog
	tl.Add(1, "G0", GuardSearch, "ignored")
}

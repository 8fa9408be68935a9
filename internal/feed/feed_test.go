package feed

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestLinesSkipsEmpty(t *testing.T) {
	input := "one\n\ntwo\n\n\nthree\n"
	var got []string
	err := Lines(context.Background(), strings.NewReader(input), func(line []byte) error {
		got = append(got, string(line))
		return nil
	})
	if err != nil {
		t.Fatalf("Lines returned error: %v", err)
	}
	want := []string{"one", "two", "three"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLinesStopsOnCallbackError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := Lines(context.Background(), strings.NewReader("a\nb\nc\n"), func([]byte) error {
		calls++
		if calls == 2 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("callback ran %d times, want 2", calls)
	}
}

func TestLinesStopsOnContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Lines(ctx, strings.NewReader("a\nb\nc\n"), func([]byte) error {
		calls++
		cancel()
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("callback ran %d times, want 1", calls)
	}
}

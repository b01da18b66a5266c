package object

import "testing"

func TestPageKey(t *testing.T) {
	if got := PageKey("abc", 42, 3); got != "abc/42/page-3.png" {
		t.Fatalf("unexpected key %q", got)
	}
}

package bucketsort

import (
	"math/rand"
	"testing"

	"github.com/csvquery/xsort/internal/lineview"
	"github.com/csvquery/xsort/internal/linetable"
)

func mkLine(s string) lineview.LineView {
	return lineview.Extract([]byte(s+"\n"), ';', 0)
}

func isSorted(lines []lineview.LineView) bool {
	for i := 1; i < len(lines); i++ {
		if lineview.Compare(lines[i-1], lines[i]) > 0 {
			return false
		}
	}
	return true
}

func TestSortSmall(t *testing.T) {
	tbl := linetable.New(linetable.Geometric, 0)
	for _, s := range []string{"c", "a", "b", "a", "z", "0"} {
		tbl.Add(mkLine(s))
	}
	Sort(tbl, 4)
	if !isSorted(tbl.Lines()) {
		t.Fatalf("not sorted: %+v", tbl.Lines())
	}
}

func TestSortPreservesMultiset(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	tbl := linetable.New(linetable.Geometric, 0)
	input := make(map[string]int)
	for i := 0; i < 5000; i++ {
		key := string(rune('a' + rng.Intn(26)))
		tbl.Add(mkLine(key))
		// mkLine's line has no delimiter, so its field-0 key runs to the
		// end of the value and includes the trailing newline.
		input[key+"\n"]++
	}

	Sort(tbl, 8)

	if !isSorted(tbl.Lines()) {
		t.Fatalf("not sorted")
	}

	got := make(map[string]int)
	for _, l := range tbl.Lines() {
		got[string(l.Key)]++
	}
	for k, want := range input {
		if got[k] != want {
			t.Errorf("key %q: got %d, want %d", k, got[k], want)
		}
	}
}

func TestSortEmptyAndSingle(t *testing.T) {
	empty := linetable.New(linetable.Geometric, 0)
	Sort(empty, 4) // must not panic

	single := linetable.New(linetable.Geometric, 0)
	single.Add(mkLine("only"))
	Sort(single, 4)
	if single.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", single.Len())
	}
}

func TestSortSingleThread(t *testing.T) {
	tbl := linetable.New(linetable.Geometric, 0)
	for i := 0; i < 1000; i++ {
		tbl.Add(mkLine(string(rune('a' + i%26))))
	}
	Sort(tbl, 0) // coerced to 1
	if !isSorted(tbl.Lines()) {
		t.Fatalf("not sorted with threads=0")
	}
}

func TestSortEmptyKeysFirst(t *testing.T) {
	tbl := linetable.New(linetable.Geometric, 0)
	tbl.Add(lineview.Extract([]byte("nodelim\n"), ';', 1)) // empty key
	tbl.Add(mkLine("a"))
	tbl.Add(mkLine("z"))
	Sort(tbl, 4)
	lines := tbl.Lines()
	if len(lines[0].Key) != 0 {
		t.Fatalf("expected empty key first, got %q", lines[0].Key)
	}
}

package record

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/Zuo-Peng/chatmem/internal/parse"
	"github.com/Zuo-Peng/chatmem/internal/schema"
)

const testSchema = `
fields:
  - {name: date, type: string, required: true}
  - {name: time_range, type: string, required: true}
  - {name: summary, type: string, required: true}
  - {name: points, type: list}
  - {name: people, type: dict, dict_keys: [alice, 7]}
  - {name: weight, type: number}
derived:
  date: from_first_turn_date_ymd_slash
  time_range: from_first_last_turn_time_range
`

func mustSchema(t *testing.T, doc string) *schema.Schema {
	t.Helper()
	s, err := schema.Decode([]byte(doc))
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	return s
}

var (
	firstTurn = parse.Turn{Index: 1, Timestamp: "2024-02-03 09:00:00", Speaker: "A", Content: "x"}
	lastTurn  = parse.Turn{Index: 9, Timestamp: "2024-02-03 09:45:10", Speaker: "B", Content: "y"}
)

func TestSkeleton(t *testing.T) {
	m := Skeleton(mustSchema(t, testSchema), firstTurn, lastTurn)

	wantKeys := []any{"date", "time_range", "summary", "points", "people", "weight"}
	if !reflect.DeepEqual(m.Keys(), wantKeys) {
		t.Fatalf("keys = %v, want %v", m.Keys(), wantKeys)
	}

	if v, _ := m.Get("date"); v != "2024/02/03" {
		t.Errorf("date = %v", v)
	}
	if v, _ := m.Get("time_range"); v != "09:00:00-09:45:10" {
		t.Errorf("time_range = %v", v)
	}
	if v, _ := m.Get("summary"); v != "" {
		t.Errorf("summary = %#v", v)
	}
	if v, _ := m.Get("points"); !reflect.DeepEqual(v, []any{}) {
		t.Errorf("points = %#v", v)
	}
	people, _ := m.Get("people")
	pm, ok := people.(*Map)
	if !ok {
		t.Fatalf("people = %T", people)
	}
	if !reflect.DeepEqual(pm.Keys(), []any{"alice", 7}) {
		t.Errorf("people keys = %v", pm.Keys())
	}
	if v, ok := m.Get("weight"); !ok || v != nil {
		t.Errorf("weight = %#v, present=%v", v, ok)
	}
}

func TestSkeleton_SameTimeNoRange(t *testing.T) {
	m := Skeleton(mustSchema(t, testSchema), firstTurn, firstTurn)
	if v, _ := m.Get("time_range"); v != "09:00:00" {
		t.Errorf("time_range = %v", v)
	}
}

func TestEncodeDecode_KeepsOrder(t *testing.T) {
	m := Skeleton(mustSchema(t, testSchema), firstTurn, lastTurn)
	data, err := Encode(m)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	text := string(data)
	last := -1
	for _, k := range []string{"date:", "time_range:", "summary:", "points:", "people:", "weight:"} {
		i := strings.Index(text, k)
		if i < 0 || i < last {
			t.Fatalf("key %s out of order in:\n%s", k, text)
		}
		last = i
	}

	v, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	back, ok := v.(*Map)
	if !ok {
		t.Fatalf("decoded %T", v)
	}
	if !reflect.DeepEqual(back.Keys(), m.Keys()) {
		t.Errorf("keys after round trip = %v", back.Keys())
	}
	people, _ := back.Get("people")
	if pm := people.(*Map); !pm.Has(7) || !pm.Has("alice") {
		t.Errorf("people keys after round trip = %v", pm.Keys())
	}
}

func TestDecode_Shapes(t *testing.T) {
	v, err := Decode([]byte(""))
	if err != nil || v != nil {
		t.Errorf("empty: %v, %v", v, err)
	}

	v, err = Decode([]byte("- a\n- b\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(v, []any{"a", "b"}) {
		t.Errorf("sequence = %#v", v)
	}

	if _, err := Decode([]byte("a: [unclosed\n")); err == nil {
		t.Error("expected parse error")
	}

	// anchors that contain themselves are errors, not infinite values
	for _, doc := range []string{"a: &x [*x]\n", "a: &x {b: *x}\n"} {
		if _, err := Decode([]byte(doc)); err == nil {
			t.Errorf("expected error for self-referencing anchor in %q", doc)
		}
	}

	// a shared anchor is expanded at every use
	v, err = Decode([]byte("a: &x [1, 2]\nb: *x\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := v.(*Map)
	if b, _ := m.Get("b"); !reflect.DeepEqual(b, []any{1, 2}) {
		t.Errorf("alias value = %#v", b)
	}
}

func TestDecode_AliasExpansionLimited(t *testing.T) {
	var b strings.Builder
	b.WriteString("a: &a [x, x, x, x, x, x, x, x, x, x]\n")
	prev := "a"
	for _, name := range []string{"b", "c", "d", "e", "f", "g", "h", "i"} {
		fmt.Fprintf(&b, "%s: &%s [*%s, *%s, *%s, *%s, *%s, *%s, *%s, *%s, *%s, *%s]\n",
			name, name, prev, prev, prev, prev, prev, prev, prev, prev, prev, prev)
		prev = name
	}
	if _, err := Decode([]byte(b.String())); err == nil {
		t.Fatal("expected error for excessive alias expansion")
	}
}

func TestMap_SetKeepsPosition(t *testing.T) {
	m := NewMap()
	m.Set("a", 1)
	m.Set("b", 2)
	m.Set("a", 3)
	if !reflect.DeepEqual(m.Keys(), []any{"a", "b"}) {
		t.Errorf("keys = %v", m.Keys())
	}
	if v, _ := m.Get("a"); v != 3 {
		t.Errorf("a = %v", v)
	}
	if m.Len() != 2 {
		t.Errorf("len = %d", m.Len())
	}
}

func TestWriteSkeleton_NeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	s := mustSchema(t, testSchema)

	path, created, err := WriteSkeleton(dir, 1, s, firstTurn, lastTurn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Fatal("expected record to be created")
	}
	if filepath.Base(path) != "ch_0001.yaml" {
		t.Errorf("path = %s", path)
	}

	edited := []byte("summary: filled in by hand\n")
	if err := os.WriteFile(path, edited, 0o644); err != nil {
		t.Fatal(err)
	}

	_, created, err = WriteSkeleton(dir, 1, s, firstTurn, lastTurn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Error("expected existing record to be kept")
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(edited) {
		t.Errorf("record was modified: %q", got)
	}
}

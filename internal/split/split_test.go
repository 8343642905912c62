package split

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Zuo-Peng/chatmem/internal/chunk"
	"github.com/Zuo-Peng/chatmem/internal/record"
	"github.com/Zuo-Peng/chatmem/internal/schema"
	"github.com/Zuo-Peng/chatmem/internal/validate"
)

const transcript = `exported chat, ignore this line
[2024-03-01 09:00:00] Alice: morning
[2024-03-01 09:01:00] Bob: hi
second line
[2024-03-01 09:02:00] Alice:
[2024-03-01 09:03:00] Bob: plans?
[2024-03-01 09:04:00] Alice: lunch
`

const testSchema = `
fields:
  - {name: date, type: string, required: true}
  - {name: time_range, type: string, required: true}
  - {name: summary, type: string, required: true}
derived:
  date: from_first_turn_date_ymd_slash
  time_range: from_first_last_turn_time_range
`

func setup(t *testing.T, input string) Options {
	t.Helper()
	root := t.TempDir()
	opts := Options{
		InputPath:     filepath.Join(root, "input", "raw_chat.txt"),
		ChunksDir:     filepath.Join(root, "chunks"),
		ChaptersDir:   filepath.Join(root, "output", "chapters"),
		SchemaPath:    filepath.Join(root, "schema.yaml"),
		TurnsPerChunk: 2,
		Overlap:       0,
	}
	if err := os.MkdirAll(filepath.Dir(opts.InputPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(opts.InputPath, []byte(input), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(opts.SchemaPath, []byte(testSchema), 0o644); err != nil {
		t.Fatal(err)
	}
	return opts
}

func TestRun(t *testing.T) {
	opts := setup(t, transcript)

	res, err := Run(opts, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Turns) != 5 {
		t.Fatalf("expected 5 turns, got %d", len(res.Turns))
	}
	if len(res.Chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(res.Chunks))
	}
	if res.Created() != 3 || res.Kept() != 0 {
		t.Errorf("created/kept = %d/%d", res.Created(), res.Kept())
	}

	text, err := os.ReadFile(filepath.Join(opts.ChunksDir, "ch_0001.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(text), "[2024-03-01 09:01:00] Bob:\nhi\nsecond line\n") {
		t.Errorf("chunk text:\n%s", text)
	}

	last := res.Chunks[2]
	if got := res.TurnsOf(last); len(got) != 1 || got[0].Content != "lunch" {
		t.Errorf("last chunk turns = %+v", got)
	}

	s, err := schema.Load(opts.SchemaPath)
	if err != nil {
		t.Fatal(err)
	}
	doc, err := record.Load(filepath.Join(opts.ChaptersDir, "ch_0002.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	m := doc.(*record.Map)
	if v, _ := m.Get("time_range"); v != "09:02:00-09:03:00" {
		t.Errorf("time_range = %v", v)
	}
	if errs := validate.Record(s, doc); len(errs) != 0 {
		t.Errorf("fresh skeleton violations: %v", errs)
	}

	var buf bytes.Buffer
	res.WriteSummary(&buf, opts.ChunksDir, opts.ChaptersDir)
	if !strings.Contains(buf.String(), "Parsed turns: 5\n") || !strings.Contains(buf.String(), "3 new, 0 kept") {
		t.Errorf("summary:\n%s", buf.String())
	}
}

func TestRun_KeepsEditedRecords(t *testing.T) {
	opts := setup(t, transcript)
	if _, err := Run(opts, nil); err != nil {
		t.Fatal(err)
	}

	edited := filepath.Join(opts.ChaptersDir, "ch_0001.yaml")
	if err := os.WriteFile(edited, []byte("summary: done\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := Run(opts, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Created() != 0 || res.Kept() != 3 {
		t.Errorf("created/kept = %d/%d", res.Created(), res.Kept())
	}
	got, _ := os.ReadFile(edited)
	if string(got) != "summary: done\n" {
		t.Errorf("edited record overwritten: %q", got)
	}
}

func TestRun_Overlap(t *testing.T) {
	opts := setup(t, transcript)
	opts.TurnsPerChunk = 3
	opts.Overlap = 1

	res, err := Run(opts, nil)
	if err != nil {
		t.Fatal(err)
	}
	var got []chunk.Range
	for _, c := range res.Chunks {
		got = append(got, c.Range)
	}
	want := []chunk.Range{{ID: 1, Start: 0, End: 3}, {ID: 2, Start: 2, End: 5}}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("ranges = %+v, want %+v", got, want)
	}
}

func TestRun_Errors(t *testing.T) {
	t.Run("bad params before io", func(t *testing.T) {
		opts := setup(t, transcript)
		opts.Overlap = 2
		if _, err := Run(opts, nil); !errors.Is(err, chunk.ErrInvalidArgument) {
			t.Errorf("err = %v, want ErrInvalidArgument", err)
		}
		if _, err := os.Stat(opts.ChunksDir); !os.IsNotExist(err) {
			t.Error("chunks dir created despite invalid parameters")
		}
	})

	t.Run("missing input", func(t *testing.T) {
		opts := setup(t, transcript)
		opts.InputPath += ".missing"
		if _, err := Run(opts, nil); !errors.Is(err, ErrInput) {
			t.Errorf("err = %v, want ErrInput", err)
		}
	})

	t.Run("no turns", func(t *testing.T) {
		opts := setup(t, "just some text\nwithout markers\n")
		if _, err := Run(opts, nil); !errors.Is(err, ErrInput) {
			t.Errorf("err = %v, want ErrInput", err)
		}
	})

	t.Run("missing schema", func(t *testing.T) {
		opts := setup(t, transcript)
		opts.SchemaPath += ".missing"
		if _, err := Run(opts, nil); !errors.Is(err, schema.ErrConfiguration) {
			t.Errorf("err = %v, want ErrConfiguration", err)
		}
	})
}

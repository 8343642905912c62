package scan

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Zuo-Peng/chatmem/internal/chunk"
	"github.com/Zuo-Peng/chatmem/internal/record"
)

const (
	KindChunk  = "chunk"
	KindRecord = "record"
)

type FileInfo struct {
	Path  string
	Stem  string // "ch_0001"
	Kind  string // "chunk" or "record"
	Mtime int64
	Size  int64
}

// Pairing is the result of matching chunk texts with records by stem.
type Pairing struct {
	Chunks         []FileInfo
	Records        []FileInfo
	MissingRecords []string // chunk stems with no record
	OrphanRecords  []string // record stems with no chunk
}

// Stat describes a single file, e.g. the transcript, for change detection.
func Stat(path string) (FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, err
	}
	return FileInfo{
		Path:  path,
		Stem:  strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Mtime: info.ModTime().Unix(),
		Size:  info.Size(),
	}, nil
}

func ScanChunks(dir string) ([]FileInfo, error) {
	return scanDir(dir, "ch_*"+chunk.TextExt, KindChunk)
}

func ScanRecords(dir string) ([]FileInfo, error) {
	return scanDir(dir, "ch_*"+record.Ext, KindRecord)
}

// ScanDirs lists both directories and pairs their files by stem.
func ScanDirs(chunksDir, recordsDir string) (*Pairing, error) {
	chunks, err := ScanChunks(chunksDir)
	if err != nil {
		return nil, err
	}
	records, err := ScanRecords(recordsDir)
	if err != nil {
		return nil, err
	}
	return Pair(chunks, records), nil
}

func Pair(chunks, records []FileInfo) *Pairing {
	p := &Pairing{Chunks: chunks, Records: records}

	haveChunk := make(map[string]bool, len(chunks))
	for _, c := range chunks {
		haveChunk[c.Stem] = true
	}
	haveRecord := make(map[string]bool, len(records))
	for _, r := range records {
		haveRecord[r.Stem] = true
	}

	for _, c := range chunks {
		if !haveRecord[c.Stem] {
			p.MissingRecords = append(p.MissingRecords, c.Stem)
		}
	}
	for _, r := range records {
		if !haveChunk[r.Stem] {
			p.OrphanRecords = append(p.OrphanRecords, r.Stem)
		}
	}
	sort.Strings(p.MissingRecords)
	sort.Strings(p.OrphanRecords)
	return p
}

// scanDir lists regular files in dir (non-recursive) whose base name
// matches pattern, sorted by name.
func scanDir(dir, pattern, kind string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ok, _ := filepath.Match(pattern, e.Name()); !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue // removed while listing
		}
		if !info.Mode().IsRegular() {
			continue
		}
		files = append(files, FileInfo{
			Path:  filepath.Join(dir, e.Name()),
			Stem:  strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())),
			Kind:  kind,
			Mtime: info.ModTime().Unix(),
			Size:  info.Size(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

package inputs

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultPattern — шаблон входных файлов по умолчанию.
const DefaultPattern = "**/*dcm"

// ErrBadPattern — некорректный glob-шаблон.
var ErrBadPattern = errors.New("bad input pattern")

// Pair — вход ветки и соответствующий путь в выходной директории.
type Pair struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// FileMapper возвращает файлы inputDir, путь которых относительно
// inputDir соответствует pattern.
func FileMapper(inputDir, outputDir, pattern string) ([]Pair, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	segments := strings.Split(path.Clean(filepath.ToSlash(pattern)), "/")
	for _, s := range segments {
		if s == "**" {
			continue
		}
		if _, err := path.Match(s, ""); err != nil {
			return nil, fmt.Errorf("%w: %q", ErrBadPattern, pattern)
		}
	}

	var pairs []Pair
	err := filepath.WalkDir(inputDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(inputDir, p)
		if err != nil {
			return err
		}
		if match(segments, strings.Split(filepath.ToSlash(rel), "/")) {
			pairs = append(pairs, Pair{Input: p, Output: filepath.Join(outputDir, rel)})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", inputDir, err)
	}

	sortPairs(pairs)
	return pairs, nil
}

// DirMapperDeep возвращает листовые директории inputDir
// (директории без поддиректорий). Если поддиректорий нет вовсе,
// единственная пара — сама inputDir.
func DirMapperDeep(inputDir, outputDir string) ([]Pair, error) {
	hasChildren := make(map[string]bool)
	var dirs []string

	err := filepath.WalkDir(inputDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		dirs = append(dirs, p)
		if p != inputDir {
			hasChildren[filepath.Dir(p)] = true
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", inputDir, err)
	}

	var pairs []Pair
	for _, dir := range dirs {
		if hasChildren[dir] {
			continue
		}
		rel, err := filepath.Rel(inputDir, dir)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, Pair{Input: dir, Output: filepath.Join(outputDir, rel)})
	}

	sortPairs(pairs)
	return pairs, nil
}

// match сопоставляет сегменты пути с сегментами шаблона.
func match(pattern, name []string) bool {
	for len(pattern) > 0 {
		if pattern[0] == "**" {
			rest := pattern[1:]
			for i := 0; i <= len(name); i++ {
				if match(rest, name[i:]) {
					return true
				}
			}
			return false
		}
		if len(name) == 0 {
			return false
		}
		if ok, _ := path.Match(pattern[0], name[0]); !ok {
			return false
		}
		pattern, name = pattern[1:], name[1:]
	}
	return len(name) == 0
}

func sortPairs(pairs []Pair) {
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Input < pairs[j].Input })
}

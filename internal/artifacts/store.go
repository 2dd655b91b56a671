// Package artifacts persists write-once feedback reports on local disk.
package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Store writes timestamp-named report files. Names are derived from local
// time so lexicographic order on disk matches chronological order.
type Store struct {
	Dir string

	// Now is overridable in tests.
	Now func() time.Time
}

func NewStore(dir string) *Store {
	return &Store{Dir: dir, Now: time.Now}
}

// Save writes text to feedback_<local-datetime>.txt, appending _1, _2, ...
// until a free name is found. Returns the written path.
func (s *Store) Save(text string) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", err
	}

	base := "feedback_" + s.Now().Local().Format("2006-01-02_15-04-05")
	path := filepath.Join(s.Dir, base+".txt")
	for i := 1; exists(path); i++ {
		path = filepath.Join(s.Dir, fmt.Sprintf("%s_%d.txt", base, i))
	}

	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

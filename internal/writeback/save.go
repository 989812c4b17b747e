package writeback

import (
	"fmt"
	"path"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/agentic-research/conftree/internal/store"
)

// Save rewrites every file in the store that contains dirty nodes, clears the
// dirty flags, and returns the rewritten paths in registration order.
func Save(st *store.Store) ([]string, error) {
	var saved []string
	for _, p := range st.UnsavedFiles() {
		frag, ok := st.Fragment(p)
		if !ok {
			continue
		}
		if err := writeFile(st.FS(), p, Render(frag)); err != nil {
			return saved, fmt.Errorf("save %s: %w", p, err)
		}
		frag.ClearDirty()
		saved = append(saved, p)
	}
	return saved, nil
}

// writeFile replaces the target atomically: content goes to a temp file in
// the same directory first, then a rename swaps it in. The previous file mode
// is carried over when the filesystem supports it.
func writeFile(fs billy.Filesystem, filePath string, content []byte) error {
	dir := path.Dir(filePath)
	tmp, err := util.TempFile(fs, dir, ".conftree-save-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = fs.Remove(tmpName) // best-effort cleanup
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = fs.Remove(tmpName) // best-effort cleanup
		return fmt.Errorf("close temp: %w", err)
	}

	if info, err := fs.Stat(filePath); err == nil {
		if ch, ok := fs.(billy.Change); ok {
			_ = ch.Chmod(tmpName, info.Mode()) // best-effort permission sync
		}
	}

	if err := fs.Rename(tmpName, filePath); err != nil {
		_ = fs.Remove(tmpName) // best-effort cleanup
		return fmt.Errorf("rename temp to %s: %w", filePath, err)
	}
	return nil
}

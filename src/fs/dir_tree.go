package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"github.com/xlab/treeprint"
)

// SCLExtensions lists the file extensions of SCL documents.
var SCLExtensions = []string{".scd", ".icd", ".cid", ".ssd", ".iid", ".sed", ".xml"}

// IsSCLFile reports whether name carries an SCL extension.
func IsSCLFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, candidate := range SCLExtensions {
		if ext == candidate {
			return true
		}
	}
	return false
}

// Tree renders the directory tree rooted at path. With sclOnly set, regular
// files without an SCL extension and directories without SCL files are left
// out. An empty tree renders as "".
func Tree(fsys afero.Fs, path string, sclOnly bool) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	info, err := fsys.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s 不是目录", path)
	}
	root := treeprint.NewWithRoot(filepath.Base(abs))
	count, err := populate(fsys, root, abs, sclOnly)
	if err != nil {
		return "", err
	}
	if count == 0 {
		return "", nil
	}
	return strings.TrimRight(root.String(), "\n"), nil
}

func populate(fsys afero.Fs, tree treeprint.Tree, dir string, sclOnly bool) (int, error) {
	entries, err := readEntries(fsys, dir)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			if sclOnly && !IsSCLFile(entry.Name()) {
				continue
			}
			tree.AddNode(entry.Name())
			count++
			continue
		}
		full := filepath.Join(dir, entry.Name())
		if sclOnly && !containsSCL(fsys, full) {
			continue
		}
		branch := tree.AddBranch(entry.Name())
		n, err := populate(fsys, branch, full, sclOnly)
		if err != nil {
			branch.AddNode(fmt.Sprintf("<error: %v>", err))
		}
		count += n + 1
	}
	return count, nil
}

func containsSCL(fsys afero.Fs, dir string) bool {
	entries, err := readEntries(fsys, dir)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if entry.IsDir() {
			if containsSCL(fsys, filepath.Join(dir, entry.Name())) {
				return true
			}
		} else if IsSCLFile(entry.Name()) {
			return true
		}
	}
	return false
}

func readEntries(fsys afero.Fs, path string) ([]os.FileInfo, error) {
	entries, err := afero.ReadDir(fsys, path)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir() == entries[j].IsDir() {
			return strings.ToLower(entries[i].Name()) < strings.ToLower(entries[j].Name())
		}
		return entries[i].IsDir()
	})
	return entries, nil
}

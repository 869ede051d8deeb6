package fs_test

import (
	"strings"
	"testing"

	"github.com/spf13/afero"

	"scltemplates/src/fs"
)

func seed(t *testing.T) afero.Fs {
	t.Helper()
	mem := afero.NewMemMapFs()
	files := map[string]string{
		"/work/station.scd":     "<SCL/>",
		"/work/notes.txt":       "notes",
		"/work/ied/breaker.icd": "<SCL/>",
		"/work/docs/readme.md":  "readme",
	}
	for path, content := range files {
		if err := afero.WriteFile(mem, path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s failed: %v", path, err)
		}
	}
	return mem
}

func TestDirTree(t *testing.T) {
	tree, err := fs.Tree(seed(t), "/work", false)
	if err != nil {
		t.Fatalf("dir tree failed: %v", err)
	}
	for _, name := range []string{"station.scd", "notes.txt", "ied", "breaker.icd", "docs", "readme.md"} {
		if !strings.Contains(tree, name) {
			t.Fatalf("tree should contain %s:\n%s", name, tree)
		}
	}
	if strings.Index(tree, "docs") > strings.Index(tree, "notes.txt") {
		t.Fatalf("directories should be listed first:\n%s", tree)
	}
}

func TestDirTreeSCLOnly(t *testing.T) {
	tree, err := fs.Tree(seed(t), "/work", true)
	if err != nil {
		t.Fatalf("dir tree failed: %v", err)
	}
	if !strings.Contains(tree, "breaker.icd") || !strings.Contains(tree, "station.scd") {
		t.Fatalf("tree should list SCL files:\n%s", tree)
	}
	if strings.Contains(tree, "notes.txt") || strings.Contains(tree, "docs") {
		t.Fatalf("tree should hide non SCL entries:\n%s", tree)
	}
}

func TestDirTreeEmpty(t *testing.T) {
	mem := afero.NewMemMapFs()
	if err := mem.MkdirAll("/empty", 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	tree, err := fs.Tree(mem, "/empty", false)
	if err != nil {
		t.Fatalf("dir tree failed: %v", err)
	}
	if tree != "" {
		t.Fatalf("empty dir should return empty string, got: %s", tree)
	}
	if _, err := fs.Tree(mem, "/missing", false); err == nil {
		t.Fatalf("missing dir should fail")
	}
}

func TestIsSCLFile(t *testing.T) {
	if !fs.IsSCLFile("A.SCD") || fs.IsSCLFile("a.txt") {
		t.Fatalf("unexpected extension classification")
	}
}

package workspace_test

import (
	"errors"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"

	"scltemplates/src/workspace"
)

func TestStateKeeperSaveLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	keeper := workspace.NewStateKeeper(fs, "/work")
	state := workspace.WorkspaceState{
		Editors: []workspace.EditorState{
			{Path: "/work/a.scd", Modified: true, Selected: map[string]string{"DOType": "DOT1"}},
		},
		Active:  "/work/a.scd",
		Logging: []string{"/work/a.scd"},
	}
	if err := keeper.Save(state); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if keeper.Path() != "/work/.scl_workspace" {
		t.Fatalf("unexpected state path %s", keeper.Path())
	}
	loaded, err := keeper.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if diff := cmp.Diff(state, loaded); diff != "" {
		t.Fatalf("loaded state mismatch (-want +got):\n%s", diff)
	}
}

func TestStateKeeperEmptyState(t *testing.T) {
	keeper := workspace.NewStateKeeper(afero.NewMemMapFs(), "/work")
	if _, err := keeper.Load(); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing state should report not exist, got %v", err)
	}
	if err := keeper.Save(workspace.WorkspaceState{}); err != nil {
		t.Fatalf("save empty state failed: %v", err)
	}
	loaded, err := keeper.Load()
	if err != nil {
		t.Fatalf("load empty state failed: %v", err)
	}
	if len(loaded.Editors) != 0 || loaded.Active != "" {
		t.Fatalf("empty state should be empty: %+v", loaded)
	}
}

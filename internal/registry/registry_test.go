package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/protocol"
)

func newTestRegistry(t *testing.T) (*Registry, *config.Paths) {
	t.Helper()
	paths := config.NewPaths(t.TempDir())
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return New(paths, WithClock(func() time.Time { return fixed })), paths
}

func TestLoad_MissingFile(t *testing.T) {
	reg, _ := newTestRegistry(t)

	doc, err := reg.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(doc.Instances) != 0 {
		t.Errorf("Instances = %v, want empty", doc.Instances)
	}
	if doc.NextPort != protocol.DefaultPortHint {
		t.Errorf("NextPort = %d, want %d", doc.NextPort, protocol.DefaultPortHint)
	}
}

func TestCreateThenGet(t *testing.T) {
	reg, _ := newTestRegistry(t)
	mounts := []Mount{
		{Host: "/home/me/notes", Container: "/home/node/.openclaw/workspace/user_shared/notes", Mode: MountReadOnly},
		{Host: "/home/me/code", Container: "/srv/code", Mode: MountReadWrite},
	}

	if _, err := reg.Create("alpha", 18789, mounts); err != nil {
		t.Fatalf("Create: %v", err)
	}

	rec, err := reg.Get("alpha")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(rec.Mounts, mounts) {
		t.Errorf("Mounts = %+v, want %+v", rec.Mounts, mounts)
	}
	if rec.Container != "openclaw-alpha" {
		t.Errorf("Container = %q", rec.Container)
	}
	if rec.Port != 18789 {
		t.Errorf("Port = %d", rec.Port)
	}
	if rec.Status != StatusCreated {
		t.Errorf("Status = %q", rec.Status)
	}
	if rec.Name != "alpha" {
		t.Errorf("Name = %q", rec.Name)
	}
}

func TestCreate_AdvancesHint(t *testing.T) {
	reg, _ := newTestRegistry(t)

	if _, err := reg.Create("alpha", 18789, nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	hint, err := reg.NextPortHint()
	if err != nil {
		t.Fatal(err)
	}
	if hint != 18789+220 {
		t.Errorf("NextPortHint = %d, want %d", hint, 18789+220)
	}
}

func TestCreate_AlreadyExists(t *testing.T) {
	reg, _ := newTestRegistry(t)

	if _, err := reg.Create("alpha", 18789, nil); err != nil {
		t.Fatal(err)
	}
	_, err := reg.Create("alpha", 19009, nil)
	if !errors.Is(err, errors.ErrAlreadyExists) {
		t.Fatalf("err = %v, want AlreadyExists", err)
	}

	rec, _ := reg.Get("alpha")
	if rec.Port != 18789 {
		t.Errorf("existing record was modified: port %d", rec.Port)
	}
}

func TestCreate_InvalidName(t *testing.T) {
	reg, _ := newTestRegistry(t)
	for _, name := range []string{"", "Bad", "../x", protocol.AllInstances} {
		if _, err := reg.Create(name, 18789, nil); err == nil {
			t.Errorf("Create(%q) should fail", name)
		}
	}
}

func TestCreate_ProvisionsDirectories(t *testing.T) {
	tests := []struct {
		name       string
		mounts     []Mount
		wantShared bool
	}{
		{"no mounts", nil, false},
		{"with mounts", []Mount{{Host: "/tmp/x", Container: SharedMountPath("/tmp/x"), Mode: MountReadWrite}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, paths := newTestRegistry(t)
			if _, err := reg.Create("alpha", 18789, tt.mounts); err != nil {
				t.Fatal(err)
			}

			dir := filepath.Join(paths.InstancesDir, "alpha")
			for _, sub := range []string{".openclaw", "workspace", ".openclaw/workspace"} {
				info, err := os.Stat(filepath.Join(dir, sub))
				if err != nil || !info.IsDir() {
					t.Errorf("%s not created: %v", sub, err)
				}
			}

			_, err := os.Stat(filepath.Join(dir, ".openclaw/workspace/user_shared"))
			if got := err == nil; got != tt.wantShared {
				t.Errorf("user_shared exists = %v, want %v", got, tt.wantShared)
			}
		})
	}
}

func TestEnsureDirs_KeepsExistingContent(t *testing.T) {
	reg, paths := newTestRegistry(t)
	if _, err := reg.Create("alpha", 18789, nil); err != nil {
		t.Fatal(err)
	}

	dir := filepath.Join(paths.InstancesDir, "alpha")
	state := filepath.Join(dir, ".openclaw", "openclaw.json")
	if err := os.WriteFile(state, []byte("{}"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.RemoveAll(filepath.Join(dir, "workspace")); err != nil {
		t.Fatal(err)
	}

	if err := reg.EnsureDirs("alpha", false); err != nil {
		t.Fatalf("EnsureDirs: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "workspace")); err != nil {
		t.Errorf("workspace not restored: %v", err)
	}
	if data, err := os.ReadFile(state); err != nil || string(data) != "{}" {
		t.Errorf("existing config changed: %q, %v", data, err)
	}
}

func TestGet_NotFound(t *testing.T) {
	reg, _ := newTestRegistry(t)
	_, err := reg.Get("ghost")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("err = %v, want NotFound", err)
	}
}

func TestRemove(t *testing.T) {
	reg, _ := newTestRegistry(t)
	if _, err := reg.Create("alpha", 18789, nil); err != nil {
		t.Fatal(err)
	}

	if err := reg.Remove("alpha"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if ok, _ := reg.Exists("alpha"); ok {
		t.Error("alpha still registered")
	}
	if err := reg.Remove("alpha"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("second Remove err = %v, want NotFound", err)
	}
}

func TestRemoveAll_Resets(t *testing.T) {
	reg, _ := newTestRegistry(t)
	for i, name := range []string{"alpha", "beta"} {
		if _, err := reg.Create(name, 18789+i*220, nil); err != nil {
			t.Fatal(err)
		}
	}

	if err := reg.Remove(protocol.AllInstances); err != nil {
		t.Fatalf("Remove(__all__): %v", err)
	}

	list, err := reg.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Errorf("List = %v, want empty", list)
	}
	hint, _ := reg.NextPortHint()
	if hint != protocol.DefaultPortHint {
		t.Errorf("hint = %d, want %d", hint, protocol.DefaultPortHint)
	}
}

func TestRemoveAll_CustomDefault(t *testing.T) {
	paths := config.NewPaths(t.TempDir())
	reg := New(paths, WithDefaultHint(30000))
	if _, err := reg.Create("alpha", 30000, nil); err != nil {
		t.Fatal(err)
	}
	if err := reg.Remove(protocol.AllInstances); err != nil {
		t.Fatal(err)
	}
	if hint, _ := reg.NextPortHint(); hint != 30000 {
		t.Errorf("hint = %d, want 30000", hint)
	}
}

func TestSetStatus(t *testing.T) {
	reg, _ := newTestRegistry(t)
	if _, err := reg.Create("alpha", 18789, nil); err != nil {
		t.Fatal(err)
	}
	if err := reg.SetStatus("alpha", StatusRunning); err != nil {
		t.Fatal(err)
	}
	rec, _ := reg.Get("alpha")
	if rec.Status != StatusRunning {
		t.Errorf("Status = %q", rec.Status)
	}
	if err := reg.SetStatus("ghost", StatusRunning); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("SetStatus(ghost) err = %v", err)
	}
}

func TestUnknownFieldsRoundTrip(t *testing.T) {
	reg, paths := newTestRegistry(t)
	if err := os.MkdirAll(paths.StateDir, 0755); err != nil {
		t.Fatal(err)
	}

	original := `{
  "schema": {"v": 2},
  "instances": {
    "legacy": {
      "container": "openclaw-legacy",
      "port": 18789,
      "created": "2025-06-01T10:00:00.000Z",
      "status": "created",
      "mounts": [],
      "labels": {"team": "infra"},
      "pinned": true
    }
  },
  "nextPort": 19009
}`
	if err := os.WriteFile(paths.RegistryFile, []byte(original), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := reg.Create("beta", 19009, nil); err != nil {
		t.Fatalf("Create: %v", err)
	}

	data, err := os.ReadFile(paths.RegistryFile)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}

	if _, ok := raw["schema"]; !ok {
		t.Error("top-level unknown key dropped")
	}
	legacy := raw["instances"].(map[string]any)["legacy"].(map[string]any)
	if legacy["pinned"] != true {
		t.Errorf("record unknown key dropped: %v", legacy)
	}
	labels, ok := legacy["labels"].(map[string]any)
	if !ok || labels["team"] != "infra" {
		t.Errorf("labels = %v", legacy["labels"])
	}

	rec, err := reg.Get("legacy")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Created.Year() != 2025 {
		t.Errorf("Created = %v", rec.Created)
	}
}

func TestSave_NoTempLeftBehind(t *testing.T) {
	reg, paths := newTestRegistry(t)
	if _, err := reg.Create("alpha", 18789, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(paths.RegistryFile + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file should not remain, stat err = %v", err)
	}

	data, _ := os.ReadFile(paths.RegistryFile)
	if !strings.Contains(string(data), "\n  \"instances\"") {
		t.Errorf("expected 2-space indented document, got:\n%s", data)
	}
}

func TestLoad_Corrupt(t *testing.T) {
	reg, paths := newTestRegistry(t)
	if err := os.MkdirAll(paths.StateDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(paths.RegistryFile, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := reg.Load(); err == nil {
		t.Error("expected parse error")
	}
	if _, err := reg.Create("alpha", 18789, nil); err == nil {
		t.Error("Create must not overwrite a corrupt registry")
	}
}

func TestConcurrentCreates(t *testing.T) {
	reg, _ := newTestRegistry(t)

	names := []string{"a1", "a2", "a3", "a4", "a5", "a6"}
	var wg sync.WaitGroup
	errs := make(chan error, len(names))
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			_, err := reg.Create(name, 20000+i*100, nil)
			errs <- err
		}(i, name)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("Create: %v", err)
		}
	}

	list, err := reg.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != len(names) {
		t.Errorf("got %d records, want %d (lost update)", len(list), len(names))
	}
}

func TestSorted(t *testing.T) {
	reg, _ := newTestRegistry(t)
	for i, name := range []string{"zeta", "alpha", "mid"} {
		if _, err := reg.Create(name, 18789+i*220, nil); err != nil {
			t.Fatal(err)
		}
	}
	records, err := reg.Sorted()
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, r := range records {
		got = append(got, r.Name)
	}
	if want := []string{"alpha", "mid", "zeta"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Sorted = %v, want %v", got, want)
	}
}

//go:build integration

package integration_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/pointy-labs/pointy/internal/apperr"
	"github.com/pointy-labs/pointy/internal/extension"
	"github.com/pointy-labs/pointy/internal/manifest"
	"github.com/pointy-labs/pointy/internal/prefs"
	"github.com/pointy-labs/pointy/internal/updater"
	"github.com/pointy-labs/pointy/internal/userdata"
)

// TestFullLifecycle exercises the complete flow:
// install from the index -> list -> toggle -> reorder -> update -> delete.
func TestFullLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	host := newReleaseHost(t)
	host.publish("clock", "1.0.0", nil)
	host.publish("notes", "0.3.0", nil)

	svc := newService(t, host)
	ctx := context.Background()

	// Step 1: Install both extensions by id.
	for _, id := range []string{"clock", "notes"} {
		if _, err := svc.Install(ctx, id); err != nil {
			t.Fatalf("Install(%s): %v", id, err)
		}
	}
	assertDirExists(t, filepath.Join(env.ExtensionsDir, "clock"))
	assertFileExists(t, filepath.Join(env.ExtensionsDir, "clock", manifest.IconFileName))
	assertFileContains(t, filepath.Join(env.ExtensionsDir, "notes", manifest.FileName), `"0.3.0"`)

	// Step 2: Both are listed and enabled.
	infos, err := svc.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got := ids(infos); len(got) != 2 {
		t.Fatalf("List = %v, want clock and notes", got)
	}
	active, err := svc.Active()
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if len(active) != 2 {
		t.Errorf("Active = %v, want both enabled", ids(active))
	}

	// Step 3: Disable clock.
	enabled, err := svc.Toggle(ctx, "clock")
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if enabled {
		t.Error("Toggle returned enabled, want disabled")
	}
	active, _ = svc.Active()
	if got := ids(active); len(got) != 1 || got[0] != "notes" {
		t.Errorf("Active after toggle = %v, want [notes]", got)
	}

	// Step 4: Reorder and check the persisted preferences.
	if err := svc.SetOrder(ctx, []string{"notes", "clock"}); err != nil {
		t.Fatalf("SetOrder: %v", err)
	}
	infos, _ = svc.List()
	if got := ids(infos); got[0] != "notes" || got[1] != "clock" {
		t.Errorf("List after reorder = %v, want [notes clock]", got)
	}
	stored, err := prefs.Load(userdata.GetPreferencesPath())
	if err != nil {
		t.Fatalf("prefs.Load: %v", err)
	}
	if len(stored.Ordered) != 2 || stored.Ordered[0] != "notes" {
		t.Errorf("persisted order = %v", stored.Ordered)
	}

	// Step 5: Publish a new clock release and update everything.
	host.publish("clock", "1.1.0", nil)
	report, err := svc.UpdateAll(ctx)
	if err != nil {
		t.Fatalf("UpdateAll: %v", err)
	}
	statuses := map[string]updater.Status{}
	for _, r := range report.Results {
		statuses[r.ID] = r.Status
	}
	if statuses["clock"] != updater.StatusUpdated {
		t.Errorf("clock status = %q, want updated", statuses["clock"])
	}
	if statuses["notes"] != updater.StatusUpToDate {
		t.Errorf("notes status = %q, want up_to_date", statuses["notes"])
	}
	if v := installedVersion(t, "clock"); v != "1.1.0" {
		t.Errorf("clock version = %s, want 1.1.0", v)
	}

	// Step 6: Delete clock; its directory and preference entries go away.
	if err := svc.Delete(ctx, "clock"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	assertFileNotExists(t, filepath.Join(env.ExtensionsDir, "clock"))
	stored, _ = prefs.Load(userdata.GetPreferencesPath())
	for _, id := range append(stored.Enabled, stored.Ordered...) {
		if id == "clock" {
			t.Errorf("preferences still reference clock: %+v", stored)
		}
	}
}

// TestInstallRejectsTamperedAsset verifies a checksum mismatch leaves no
// trace of the extension on disk.
func TestInstallRejectsTamperedAsset(t *testing.T) {
	env := setupTestEnv(t)
	host := newReleaseHost(t)
	host.publish("clock", "1.0.0", nil)

	host.mu.Lock()
	host.assets["clock"] = append(host.assets["clock"], 0)
	host.mu.Unlock()

	svc := newService(t, host)
	_, err := svc.Install(context.Background(), "clock")
	if !errors.Is(err, apperr.ErrChecksum) {
		t.Fatalf("Install error = %v, want checksum error", err)
	}
	assertFileNotExists(t, filepath.Join(env.ExtensionsDir, "clock"))
}

// TestUpdateKeepsWorkingCopyOnFailure verifies that a broken release does
// not replace the installed version.
func TestUpdateKeepsWorkingCopyOnFailure(t *testing.T) {
	setupTestEnv(t)
	host := newReleaseHost(t)
	host.publish("clock", "1.0.0", nil)

	svc := newService(t, host)
	ctx := context.Background()
	if _, err := svc.Install(ctx, "clock"); err != nil {
		t.Fatalf("Install: %v", err)
	}

	host.publish("clock", "2.0.0", nil)
	host.mu.Lock()
	host.assets["clock"] = []byte("not an archive")
	host.mu.Unlock()

	report, err := svc.UpdateAll(ctx)
	if err != nil {
		t.Fatalf("UpdateAll: %v", err)
	}
	if len(report.Results) != 1 || report.Results[0].Status != updater.StatusFailed {
		t.Fatalf("results = %+v, want one failure", report.Results)
	}
	if v := installedVersion(t, "clock"); v != "1.0.0" {
		t.Errorf("clock version = %s, want 1.0.0 kept", v)
	}
}

func ids(infos []extension.Info) []string {
	out := make([]string, 0, len(infos))
	for _, info := range infos {
		out = append(out, info.ID())
	}
	return out
}

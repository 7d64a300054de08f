package update

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"
)

func newTestUpdater(t *testing.T, current string, handler http.HandlerFunc) *Updater {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	u := New(current)
	u.apiBase = srv.URL
	return u
}

func TestCheckForUpdate_NewerRelease(t *testing.T) {
	goarch := runtime.GOARCH
	if goarch == "amd64" {
		goarch = "x86_64"
	}
	asset := fmt.Sprintf("minder_%s_%s", runtime.GOOS, goarch)

	u := newTestUpdater(t, "v1.0.0", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/minderhq/minder/releases/latest" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprintf(w, `{"tag_name":"v1.1.0","assets":[{"name":%q,"browser_download_url":"https://example.com/dl"}]}`, asset)
	})

	rel, err := u.CheckForUpdate(context.Background())
	if err != nil {
		t.Fatalf("CheckForUpdate: %v", err)
	}
	if rel == nil {
		t.Fatal("no release returned")
	}
	if rel.Version != "v1.1.0" || rel.URL != "https://example.com/dl" {
		t.Errorf("release = %+v", rel)
	}
}

func TestCheckForUpdate_AlreadyLatest(t *testing.T) {
	u := newTestUpdater(t, "v1.1.0", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"tag_name":"v1.1.0","assets":[]}`)
	})

	rel, err := u.CheckForUpdate(context.Background())
	if err != nil {
		t.Fatalf("CheckForUpdate: %v", err)
	}
	if rel != nil {
		t.Errorf("release = %+v, want nil", rel)
	}
}

func TestCheckForUpdate_DevBuildSkipped(t *testing.T) {
	u := newTestUpdater(t, "dev", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"tag_name":"v9.9.9","assets":[]}`)
	})

	rel, err := u.CheckForUpdate(context.Background())
	if err != nil {
		t.Fatalf("CheckForUpdate: %v", err)
	}
	if rel != nil {
		t.Errorf("release = %+v, want nil for dev build", rel)
	}
}

func TestCheckForUpdate_APIError(t *testing.T) {
	u := newTestUpdater(t, "v1.0.0", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	if _, err := u.CheckForUpdate(context.Background()); err == nil {
		t.Fatal("no error on API failure")
	}
}

func TestCheckForUpdate_NoPlatformAsset(t *testing.T) {
	u := newTestUpdater(t, "v1.0.0", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"tag_name":"v2.0.0","assets":[{"name":"minder_plan9_mips","browser_download_url":"x"}]}`)
	})

	if _, err := u.CheckForUpdate(context.Background()); err == nil {
		t.Fatal("no error when no asset matches the platform")
	}
}

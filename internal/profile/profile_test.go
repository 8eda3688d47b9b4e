package profile

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleProfiles = `<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<profiles active="tv" version="3.1">
<profile name="tv">
<profileitem ca="" distributor="0" key="/keys/author.p12" password="authorpass" rootca=""/>
<profileitem ca="" distributor="1" key="/keys/distributor.p12" password="distpass" rootca=""/>
<profileitem ca="" distributor="2" key="" password="" rootca=""/>
</profile>
<profile name="mobile">
<profileitem ca="" distributor="0" key="/keys/mobile-author.p12" password="mp" rootca=""/>
</profile>
</profiles>
`

func writeProfiles(t *testing.T, content string) string {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "tizensign-test-profiles-")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	path := filepath.Join(tmpDir, "profiles.xml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write profiles.xml: %v", err)
	}
	return path
}

func TestLoadProfiles(t *testing.T) {
	profiles, err := Load(writeProfiles(t, sampleProfiles))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if profiles.Active != "tv" {
		t.Errorf("Active = %q, want tv", profiles.Active)
	}
	if len(profiles.Profiles) != 2 {
		t.Fatalf("Loaded %d profiles, want 2", len(profiles.Profiles))
	}

	tv, err := profiles.Get("tv")
	if err != nil {
		t.Fatalf("Get(tv) failed: %v", err)
	}
	if tv.Author == nil || tv.Author.KeyPath != "/keys/author.p12" || tv.Author.Password != "authorpass" {
		t.Errorf("Author item = %+v", tv.Author)
	}
	// The empty distributor-2 item is dropped
	if len(tv.Distributors) != 1 {
		t.Fatalf("Profile has %d distributor items, want 1", len(tv.Distributors))
	}
	d := tv.Distributor()
	if d.KeyPath != "/keys/distributor.p12" || d.Password != "distpass" || d.Distributor != 1 {
		t.Errorf("Distributor item = %+v", d)
	}
}

func TestGetDefaultsToActive(t *testing.T) {
	profiles, err := Load(writeProfiles(t, sampleProfiles))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	p, err := profiles.Get("")
	if err != nil {
		t.Fatalf("Get active failed: %v", err)
	}
	if p.Name != "tv" {
		t.Errorf("Active profile = %q, want tv", p.Name)
	}

	if _, err := profiles.Get("missing"); err == nil {
		t.Error("Get(missing) succeeded, want error")
	}
}

func TestProfileWithoutDistributor(t *testing.T) {
	profiles, err := Load(writeProfiles(t, sampleProfiles))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	mobile, err := profiles.Get("mobile")
	if err != nil {
		t.Fatalf("Get(mobile) failed: %v", err)
	}
	if mobile.Distributor() != nil {
		t.Error("Mobile profile has a distributor item, want none")
	}
}

func TestLoadRejectsWrongRoot(t *testing.T) {
	if _, err := Load(writeProfiles(t, `<widget/>`)); err == nil {
		t.Error("Load succeeded on a non-profiles document")
	}
}

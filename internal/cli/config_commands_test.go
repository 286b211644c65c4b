package cli

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cloudfm/cloudfm/internal/api"
	"github.com/cloudfm/cloudfm/internal/config"
	"github.com/cloudfm/cloudfm/internal/logging"
	"github.com/cloudfm/cloudfm/internal/models"
)

// TestConfigCommandsStructure checks each config subcommand is wired.
func TestConfigCommandsStructure(t *testing.T) {
	cmd := newConfigCmd()
	want := map[string]bool{"init": false, "show": false, "test": false, "path": false}
	for _, sub := range cmd.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
		}
		if sub.RunE == nil {
			t.Errorf("config %s has no RunE", sub.Name())
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("config %s not registered", name)
		}
	}
}

// TestConfigInitAndPathSkipConfig verifies the repair commands run with a broken config.
func TestConfigInitAndPathSkipConfig(t *testing.T) {
	if newConfigInitCmd().Annotations[annotationSkipConfig] != "true" {
		t.Error("config init must skip config resolution")
	}
	if newConfigPathCmd().Annotations[annotationSkipConfig] != "true" {
		t.Error("config path must skip config resolution")
	}
	if newConfigShowCmd().Annotations[annotationSkipConfig] == "true" {
		t.Error("config show must resolve config")
	}
}

func TestRunConfigInit(t *testing.T) {
	logger = logging.Nop()
	path := filepath.Join(t.TempDir(), "cloudfm", "config")
	input := strings.Join([]string{
		"http://backend.test:8000", // base URL
		"ms",                       // default tab alias
		"n",                        // confirm delete
		"y",                        // desktop notifications
		"",                         // proxy mode default
	}, "\n") + "\n"
	var out bytes.Buffer

	if err := runConfigInit(newLineReader(strings.NewReader(input), &out), &out, path, false); err != nil {
		t.Fatalf("runConfigInit() error = %v\n%s", err, out.String())
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIBaseURL != "http://backend.test:8000" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.DefaultTab != "onedrive" {
		t.Errorf("DefaultTab = %q, want onedrive", cfg.DefaultTab)
	}
	if cfg.ConfirmDelete {
		t.Error("ConfirmDelete = true, want false")
	}
	if !cfg.DesktopNotifications {
		t.Error("DesktopNotifications = false, want true")
	}
	if cfg.ProxyMode != "no-proxy" {
		t.Errorf("ProxyMode = %q", cfg.ProxyMode)
	}
	if !strings.Contains(out.String(), "Configuration saved to") {
		t.Errorf("output missing confirmation:\n%s", out.String())
	}
}

func TestRunConfigInitKeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	if err := config.Save(config.NewConfig(), path); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer

	if err := runConfigInit(newLineReader(strings.NewReader(""), &out), &out, path, false); err != nil {
		t.Fatalf("runConfigInit() error = %v", err)
	}
	if !strings.Contains(out.String(), "already exists") {
		t.Errorf("expected existing-config notice, got:\n%s", out.String())
	}
}

func TestRunConfigInitRepromptsInvalidTab(t *testing.T) {
	logger = logging.Nop()
	path := filepath.Join(t.TempDir(), "config")
	input := "\ndropbox\ngoogle\n\n\n\n"
	var out bytes.Buffer

	if err := runConfigInit(newLineReader(strings.NewReader(input), &out), &out, path, true); err != nil {
		t.Fatalf("runConfigInit() error = %v", err)
	}
	if !strings.Contains(out.String(), "enter google or onedrive") {
		t.Errorf("expected a re-prompt, got:\n%s", out.String())
	}
}

func TestWriteConfigHidesPassword(t *testing.T) {
	cfg := config.NewConfig()
	cfg.ProxyMode = "basic"
	cfg.ProxyHost = "proxy.example.org"
	cfg.ProxyPort = 3128
	cfg.ProxyUser = "alice"
	cfg.ProxyPassword = "s3cret"

	var out bytes.Buffer
	writeConfig(&out, cfg)

	s := out.String()
	if strings.Contains(s, "s3cret") {
		t.Error("proxy password leaked into config show output")
	}
	for _, want := range []string{"http://localhost:5000", "proxy.example.org", "<set>", "Google Drive", "unlimited"} {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %q:\n%s", want, s)
		}
	}
}

type stubFetcher map[models.Provider]struct {
	id  *models.UserIdentity
	err error
}

func (s stubFetcher) FetchUser(_ context.Context, p models.Provider) (*models.UserIdentity, error) {
	r := s[p]
	return r.id, r.err
}

func TestRunConfigTest(t *testing.T) {
	var out bytes.Buffer
	ok := stubFetcher{
		models.ProviderGoogle: {id: &models.UserIdentity{DisplayName: "Ada", Email: "ada@example.com"}},
	}
	if err := runConfigTest(context.Background(), ok, &out); err != nil {
		t.Fatalf("runConfigTest() error = %v", err)
	}
	if !strings.Contains(out.String(), "Ada <ada@example.com>") || !strings.Contains(out.String(), "not connected") {
		t.Errorf("unexpected output:\n%s", out.String())
	}

	out.Reset()
	down := stubFetcher{
		models.ProviderGoogle: {err: &api.NetworkError{Op: "fetch user", Err: errors.New("connection refused")}},
	}
	err := runConfigTest(context.Background(), down, &out)
	if err == nil || !IsReported(err) {
		t.Fatalf("runConfigTest() error = %v, want reported failure", err)
	}
}

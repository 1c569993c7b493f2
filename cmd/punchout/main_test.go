package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
}

func setupCLITestEnv(t *testing.T, exportEndpoint string) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf("[paths]\ndata_dir = %q\nlog_dir = %q\n\n[admin]\nuser_id = \"cli-user\"\n\n[export]\nendpoint = %q\n",
		filepath.Join(base, "data"),
		filepath.Join(base, "logs"),
		exportEndpoint,
	)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &cliTestEnv{baseDir: base, configPath: configPath}
}

func runCLI(t *testing.T, env *cliTestEnv, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func mustRun(t *testing.T, env *cliTestEnv, args ...string) string {
	t.Helper()
	out, stderr, err := runCLI(t, env, "", args...)
	if err != nil {
		t.Fatalf("%v: %v (stderr: %s)", args, err, stderr)
	}
	return out
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

type exportSink struct {
	mu     sync.Mutex
	bodies [][]byte
}

func (s *exportSink) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	body, _ := io.ReadAll(r.Body)
	s.mu.Lock()
	s.bodies = append(s.bodies, body)
	s.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (s *exportSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bodies)
}

func TestDayLifecycleExportsOnLock(t *testing.T) {
	sink := &exportSink{}
	srv := httptest.NewServer(sink)
	defer srv.Close()
	env := setupCLITestEnv(t, srv.URL)

	requireContains(t, mustRun(t, env, "day", "start"), "Day started")
	requireContains(t, mustRun(t, env, "entry", "add", "ordre 4100-12 07:00 til 09:00 strøing"), "Logged")
	requireContains(t, mustRun(t, env, "entry", "list"), "4100-12")

	out := mustRun(t, env, "day", "end")
	requireContains(t, out, "1 item(s) to resolve")
	requireContains(t, mustRun(t, env, "resolve", "list"), "main_time")

	if _, _, err := runCLI(t, env, "", "day", "lock"); err == nil || !strings.Contains(err.Error(), "unresolved_items") {
		t.Fatalf("expected lock rejection, got %v", err)
	}

	requireContains(t, mustRun(t, env, "time", "add", "HOVED", "--kode", "ORD", "--fra", "07:00", "--til", "15:00"), "Added ORD 07:00-15:00")
	requireContains(t, mustRun(t, env, "time", "confirm", "HOVED"), "confirmed")
	requireContains(t, mustRun(t, env, "resolve", "list"), "Nothing to resolve")

	requireContains(t, mustRun(t, env, "day", "lock"), "Day locked")
	if sink.count() != 1 {
		t.Fatalf("expected one delivered packet after lock, got %d", sink.count())
	}
	requireContains(t, mustRun(t, env, "export", "status"), "Export:  sent")

	today := time.Now().Format("2006-01-02")
	requireContains(t, mustRun(t, env, "history", "list"), today)
	report := mustRun(t, env, "report", "--date", today)
	requireContains(t, report, "PUNCHOUT DAGSRAPPORT")
	requireContains(t, report, "Ansatt: cli-user")
	requireContains(t, report, "ORD 07:00 – 15:00")

	requireContains(t, mustRun(t, env, "day", "new"), "Ready for a new day")
	requireContains(t, mustRun(t, env, "day", "status"), "NOT_STARTED")
}

func TestRejectedCommandReportsReason(t *testing.T) {
	env := setupCLITestEnv(t, "")
	_, _, err := runCLI(t, env, "", "day", "lock")
	if err == nil || !strings.Contains(err.Error(), "wrong_state") {
		t.Fatalf("expected wrong_state rejection, got %v", err)
	}
}

func TestRunMapsRejectionsToExitStatus(t *testing.T) {
	env := setupCLITestEnv(t, "")
	cases := []struct {
		name   string
		args   []string
		want   int
		stderr string
	}{
		{name: "applied", args: []string{"day", "start"}, want: 0},
		{name: "rejected", args: []string{"day", "start"}, want: exitRejected, stderr: "day start rejected: wrong_state"},
		{name: "invalid argument", args: []string{"entry", "edit", "x", "tekst"}, want: exitFailure, stderr: "invalid entry number"},
	}
	for _, tc := range cases {
		cmd := newRootCommand()
		cmd.SetOut(io.Discard)
		cmd.SetArgs(append([]string{"--config", env.configPath}, tc.args...))
		var stderr bytes.Buffer
		if got := run(context.Background(), cmd, &stderr); got != tc.want {
			t.Fatalf("%s: exit status %d, want %d (stderr: %s)", tc.name, got, tc.want, stderr.String())
		}
		if tc.stderr != "" && !strings.Contains(stderr.String(), tc.stderr) {
			t.Fatalf("%s: expected stderr to contain %q, got %q", tc.name, tc.stderr, stderr.String())
		}
	}
}

func TestListenFeedsTranscripts(t *testing.T) {
	env := setupCLITestEnv(t, "")
	out, _, err := runCLI(t, env, "Startet dagen\nSkrev vaktlogg om stengt vei\n", "listen")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	requireContains(t, out, "Handled 2 transcript(s)")
	requireContains(t, mustRun(t, env, "entry", "list"), "vaktlogg")
}

func TestSchemaSetAndResolveFlow(t *testing.T) {
	env := setupCLITestEnv(t, "")
	mustRun(t, env, "day", "start")
	mustRun(t, env, "entry", "add", "--type", "friksjon", "friksjon 0,35 på E6")
	mustRun(t, env, "day", "end")

	list := mustRun(t, env, "--json", "resolve", "list")
	requireContains(t, list, `"kind": "friksjon"`)
	id := extractJSONString(t, list, "friksjon_")

	if _, _, err := runCLI(t, env, "", "resolve", "confirm", id); err == nil {
		t.Fatal("expected missing field rejection")
	}
	requireContains(t, mustRun(t, env, "resolve", "confirm", id, "--field", "sted=E6 Soknedal"), "Resolved")
	requireContains(t, mustRun(t, env, "resolve", "discard", "main_time", "--reason", "no_work_done"), "ready to lock")
}

// extractJSONString returns the first quoted JSON value starting with prefix.
func extractJSONString(t *testing.T, raw, prefix string) string {
	t.Helper()
	start := strings.Index(raw, `"`+prefix)
	if start < 0 {
		t.Fatalf("no value with prefix %q in %s", prefix, raw)
	}
	rest := raw[start+1:]
	end := strings.Index(rest, `"`)
	return rest[:end]
}

func TestDoctorPassesOnFreshConfig(t *testing.T) {
	env := setupCLITestEnv(t, "")
	out := mustRun(t, env, "doctor")
	requireContains(t, out, "Data directory")
	requireContains(t, out, "Outbox")
	requireContains(t, out, "Disabled")
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t, "")

	requireContains(t, mustRun(t, env, "config", "validate"), "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	requireContains(t, mustRun(t, env, "config", "init", "--path", target), "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, _, err := runCLI(t, env, "", "config", "init", "--path", target); err == nil {
		t.Fatal("expected refusal to overwrite")
	}
}

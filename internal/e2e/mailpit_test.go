//go:build e2e

package e2e

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestEmailAlertE2E runs one real poll cycle against a local giveaway feed and
// checks that the alert mail lands in mailpit.
func TestEmailAlertE2E(t *testing.T) {
	if os.Getenv("FREEGAME_E2E") == "" {
		t.Skip("set FREEGAME_E2E=1 to enable e2e tests")
	}
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not installed")
	}

	repoRoot, err := findRepoRoot()
	if err != nil {
		t.Fatalf("find repo root: %v", err)
	}
	composeFile := envOr("MAILPIT_COMPOSE_FILE", filepath.Join(repoRoot, "docker-compose.yml"))
	apiBase := strings.TrimRight(envOr("MAILPIT_API_BASE", "http://localhost:8025"), "/")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := dockerCompose(ctx, repoRoot, composeFile, "up", "-d"); err != nil {
		t.Fatalf("docker compose up: %v", err)
	}
	if os.Getenv("MAILPIT_KEEP_RUNNING") == "" {
		t.Cleanup(func() {
			_ = dockerCompose(context.Background(), repoRoot, composeFile, "down")
		})
	}
	waitForOK(t, ctx, apiBase+"/api/v1/messages")

	runID := fmt.Sprintf("%d-%d", time.Now().Unix(), rand.IntN(1_000_000))
	feedServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
		_, _ = io.WriteString(w, strings.ReplaceAll(feedFixture, "__RUN_ID__", runID))
	}))
	t.Cleanup(feedServer.Close)

	doc := strings.ReplaceAll(documentFixture, "__FEED_URL__", feedServer.URL)
	doc = strings.ReplaceAll(doc, "__RUN_ID__", runID)
	docPath := filepath.Join(t.TempDir(), "freegame.yaml")
	if err := os.WriteFile(docPath, []byte(doc), 0o600); err != nil {
		t.Fatalf("write document: %v", err)
	}

	cmd := exec.CommandContext(ctx, "go", "run", "./cmd/freegame-alerts", "-config", docPath, "-run-once")
	cmd.Dir = repoRoot
	cmd.Env = append(os.Environ(),
		"SMTP_HOST=localhost",
		"SMTP_PORT=1025",
		"SMTP_TLS_MODE=disabled",
		"LOG_LEVEL=debug",
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("freegame-alerts run failed: %v\n%s", err, out)
	}

	msg := waitForMessage(t, ctx, apiBase, runID)
	if !strings.Contains(msg.Subject, "Harbor Lights "+runID) {
		t.Fatalf("unexpected subject: %q", msg.Subject)
	}
	if !strings.Contains(msg.HTML, "FREE") {
		t.Fatalf("expected price marker in html body")
	}
}

const feedFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Local giveaways</title>
    <link>http://localhost/</link>
    <description>Deterministic feed for e2e.</description>
    <item>
      <title>Harbor Lights __RUN_ID__</title>
      <link>http://localhost/harbor-lights</link>
      <guid>harbor-lights-__RUN_ID__</guid>
    </item>
  </channel>
</rss>`

const documentFixture = `schedule:
  source_spacing: 0s
platforms:
  - id: local_giveaways
    name: Local Giveaways
    kind: feed
    url: "__FEED_URL__"
notifier:
  kind: email
  email:
    to: dev@example.com
    from: alerts@example.com
    subject: "Free game: %s"
`

type mailpitList struct {
	Messages []struct {
		ID      string `json:"ID"`
		Subject string `json:"Subject"`
	} `json:"messages"`
}

type mailpitMessage struct {
	Subject string `json:"Subject"`
	HTML    string `json:"HTML"`
	Text    string `json:"Text"`
}

func waitForMessage(t *testing.T, ctx context.Context, apiBase, runID string) mailpitMessage {
	t.Helper()
	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		var list mailpitList
		_ = json.Unmarshal(mustGet(t, ctx, apiBase+"/api/v1/messages"), &list)
		for _, m := range list.Messages {
			if m.ID != "" && strings.Contains(m.Subject, runID) {
				var msg mailpitMessage
				raw := mustGet(t, ctx, apiBase+"/api/v1/message/"+m.ID)
				if err := json.Unmarshal(raw, &msg); err != nil {
					t.Fatalf("parse message json: %v\n%s", err, raw)
				}
				return msg
			}
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for mailpit message for run %q", runID)
	return mailpitMessage{}
}

func dockerCompose(ctx context.Context, dir, composeFile string, args ...string) error {
	cmd := exec.CommandContext(ctx, "docker", append([]string{"compose", "-f", composeFile}, args...)...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%v: %w\n%s", cmd.Args, err, out)
	}
	return nil
}

func waitForOK(t *testing.T, ctx context.Context, url string) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if resp, err := http.DefaultClient.Do(req); err == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			if resp.StatusCode/100 == 2 {
				return
			}
		}
		time.Sleep(200 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", url)
}

func mustGet(t *testing.T, ctx context.Context, url string) []byte {
	t.Helper()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		t.Fatalf("GET %s: status=%d body=%s", url, resp.StatusCode, body)
	}
	return body
}

func findRepoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("go.mod not found in parent directories")
		}
		dir = parent
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

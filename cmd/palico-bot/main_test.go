package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/palico-bot/internal/bot"
	"github.com/ramonehamilton/palico-bot/internal/config"
	"github.com/ramonehamilton/palico-bot/internal/mhw"
	"github.com/ramonehamilton/palico-bot/internal/mhw/armor"
	"github.com/ramonehamilton/palico-bot/internal/mhw/catalog"
)

const armorJSON = `[
  {"id":1,"name":"Leather Headgear","type":"head","rank":"low","rarity":1,
   "defense":{"base":2,"max":10,"augmented":10},
   "resistances":{"fire":2,"water":0,"ice":0,"thunder":0,"dragon":0},
   "slots":[],"skills":[{"skillName":"Hunger Resistance","level":1}],
   "armorSet":{"id":1,"name":"Leather","rank":"low"},
   "crafting":{"materials":[{"quantity":1,"item":{"id":1,"name":"Iron Ore"}}]}},
  {"id":2,"name":"Leather Mail","type":"chest","rank":"low","rarity":1,
   "defense":{"base":2,"max":10,"augmented":10},
   "resistances":{"fire":2,"water":0,"ice":0,"thunder":0,"dragon":0},
   "slots":[],"skills":[],
   "armorSet":{"id":1,"name":"Leather","rank":"low"},
   "crafting":{"materials":[{"quantity":2,"item":{"id":1,"name":"Iron Ore"}}]}}
]`

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/armor", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, armorJSON)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "[]")
	})
	upstream := httptest.NewServer(mux)
	t.Cleanup(upstream.Close)

	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Data.Dir = filepath.Join(dir, "resources")
	cfg.Data.Watch = false
	cfg.Fetch.BaseURL = upstream.URL
	cfg.Fetch.RequestsPerSecond = 100
	cfg.Storage.Path = filepath.Join(dir, "palico.db")
	cfg.API.Enabled = false
	require.NoError(t, cfg.Validate())
	return cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestApp_InitAndResolve(t *testing.T) {
	cfg := testConfig(t)
	a, err := newApp(cfg, discardLogger())
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.catalog.Init(context.Background()))

	for _, kind := range mhw.AllResources {
		assert.FileExists(t, filepath.Join(cfg.Data.Dir, "raw_"+string(kind)+".json"))
	}
	assert.FileExists(t, filepath.Join(cfg.Data.Dir, armor.DerivedFileName))

	resp, err := a.catalog.Resolve("leather", "set", mhw.RankLow)
	require.NoError(t, err)
	require.Equal(t, catalog.KindSets, resp.Kind)
	require.Len(t, resp.Sets, 1)
	assert.Equal(t, 4, resp.Sets[0].Defense.Base)
	assert.Equal(t, []mhw.Material{{Item: "Iron Ore", Quantity: 3}}, resp.Sets[0].Materials)

	fetches, err := a.storage.LatestFetches(context.Background())
	require.NoError(t, err)
	assert.Len(t, fetches, len(mhw.AllResources))
}

func TestChatHandler(t *testing.T) {
	cfg := testConfig(t)
	a, err := newApp(cfg, discardLogger())
	require.NoError(t, err)
	defer a.Close()
	require.NoError(t, a.catalog.Init(context.Background()))

	d, err := bot.NewDispatcher(bot.Options{Resolver: a.catalog, Recorder: a.storage, Logger: discardLogger()})
	require.NoError(t, err)
	chat := chatHandler(d)

	reply, err := chat(context.Background(), "abc", "!set leather low")
	require.NoError(t, err)
	r, ok := reply.(*bot.Reply)
	require.True(t, ok)
	require.Len(t, r.Embeds, 1)
	assert.Equal(t, "Leather", r.Embeds[0].Title)

	reply, err = chat(context.Background(), "abc", "just chatting")
	require.NoError(t, err)
	assert.Nil(t, reply)

	queries, err := a.storage.RecentQueries(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, queries, 1)
	assert.Equal(t, "ws:abc", queries[0].Session)
}

func TestParseResources(t *testing.T) {
	kinds, err := parseResources([]string{"armor", "skills"})
	require.NoError(t, err)
	assert.Equal(t, []mhw.ResourceKind{mhw.ResourceArmor, mhw.ResourceSkills}, kinds)

	_, err = parseResources([]string{"monsters"})
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)
	assert.Contains(t, out.String(), "palico-bot dev")
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[api]\nport = -1\n"), 0o600))

	configPath = path
	defer func() { configPath = "" }()

	_, err := loadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

type failingTransport struct{ closed bool }

func (f *failingTransport) Open() error  { return errors.New("gateway unreachable") }
func (f *failingTransport) Close() error { f.closed = true; return nil }

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("failed to reserve port: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	if err := ln.Close(); err != nil {
		t.Fatalf("failed to release port: %v", err)
	}
	return port
}

func TestRunServe_TransportFailureReleasesAPIPort(t *testing.T) {
	cfg := testConfig(t)
	cfg.API.Enabled = true
	cfg.API.Port = freePort(t)
	cfg.Discord.Enabled = true
	cfg.Discord.Token = "test-token"

	transport := &failingTransport{}
	orig := newChatTransport
	newChatTransport = func(bot.DiscordOptions) (chatTransport, error) { return transport, nil }
	defer func() { newChatTransport = orig }()

	err := runServe(context.Background(), cfg)
	if err == nil || err.Error() != "gateway unreachable" {
		t.Fatalf("runServe() error = %v, want gateway unreachable", err)
	}
	if transport.closed {
		t.Error("transport closed although it never opened")
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.API.Port))
	if err != nil {
		t.Fatalf("API port still bound after runServe returned: %v", err)
	}
	_ = ln.Close()
}

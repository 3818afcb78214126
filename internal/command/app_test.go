package command

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apex/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nagiek/rendr/config"
	"github.com/nagiek/rendr/fetcher"
	"github.com/nagiek/rendr/model"
	"github.com/nagiek/rendr/registry"
	"github.com/nagiek/rendr/remote"
	"github.com/nagiek/rendr/remote/memory"
)

const testConfig = `
types:
  collections:
    Users: User
`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rendr.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o644))
	return path
}

func memoryRemote(b *memory.Backend) RemoteFactory {
	return func(*config.Config, log.Interface) (remote.Remote, error) { return b, nil }
}

func seeded() *memory.Backend {
	b := memory.New(&registry.Static{Collections: map[string]string{"Users": "User"}})
	b.Put(
		model.NewEntity("User", "1", map[string]any{"id": "1", "name": "ann", "role": "ops"}),
		model.NewEntity("User", "2", map[string]any{"id": "2", "name": "bob", "role": "dev"}),
	)
	return b
}

func run(t *testing.T, env Env, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	env.Stdout = &out
	env.Stderr = &bytes.Buffer{}
	err := InitApp(env).Run(t.Context(), append([]string{"rendr"}, args...))
	return out.String(), err
}

func TestFetchPrintsPayload(t *testing.T) {
	cfg := writeConfig(t)
	out, err := run(t, Env{NewRemote: memoryRemote(seeded())},
		"--config", cfg, "fetch", "me=model:User/1", "ops=collection:Users?role=ops")
	require.NoError(t, err)

	var payload map[string]fetcher.Bootstrap
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Equal(t, model.Summary{Model: "User", ID: "1"}, payload["me"].Summary)
	assert.Equal(t, []string{"1"}, payload["ops"].Summary.IDs)
	assert.JSONEq(t, `[{"id":"1","name":"ann","role":"ops"}]`, string(payload["ops"].Data))
}

func TestFetchErrors(t *testing.T) {
	cfg := writeConfig(t)
	env := Env{NewRemote: memoryRemote(seeded())}

	_, err := run(t, env, "--config", cfg, "fetch")
	assert.Error(t, err)

	_, err = run(t, env, "--config", cfg, "fetch", "bogus")
	assert.Error(t, err)

	_, err = run(t, env, "--config", cfg, "fetch", "a=model:User/1", "a=model:User/2")
	assert.ErrorContains(t, err, "duplicate")

	_, err = run(t, env, "--config", cfg, "fetch", "model:User/9")
	assert.Equal(t, 404, remote.StatusOf(err))
}

func TestFetchThenHydrate(t *testing.T) {
	cfg := writeConfig(t)
	payload, err := run(t, Env{NewRemote: memoryRemote(seeded())},
		"--config", cfg, "fetch", "me=model:User/2", "all=collection:Users")
	require.NoError(t, err)

	out, err := run(t, Env{Stdin: strings.NewReader(payload)}, "--config", cfg, "hydrate")
	require.NoError(t, err)

	var summaries map[string]model.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &summaries))
	assert.Equal(t, model.Summary{Model: "User", ID: "2"}, summaries["me"])
	assert.Equal(t, []string{"1", "2"}, summaries["all"].IDs)
}

func TestHydrateRejectsGarbage(t *testing.T) {
	_, err := run(t, Env{Stdin: strings.NewReader("not json")}, "--config", writeConfig(t), "hydrate")
	assert.ErrorContains(t, err, "reading payload")
}

func TestRESTRemoteNeedsURL(t *testing.T) {
	_, err := RESTRemote(config.Default(), log.Log)
	assert.ErrorIs(t, err, config.ErrNoRemoteURL)
}

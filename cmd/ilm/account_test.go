package main

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/DonovanMods/instance-launcher/internal/core"
	"github.com/DonovanMods/instance-launcher/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountCmd_Structure(t *testing.T) {
	var subCmds []string
	for _, cmd := range accountCmd.Commands() {
		subCmds = append(subCmds, cmd.Name())
	}

	for _, name := range []string{"add", "list", "remove", "default"} {
		assert.Contains(t, subCmds, name)
	}
}

func TestAccountAddCmd_Offline(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "account", "add", "Notch", "--offline")
	assert.Contains(t, out, "b50ad385-829d-3141-a216-7e7d7539ba7f")
}

func TestAccountAddCmd_RequiresUUID(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "account", "add", "Alex", "--token", "abc")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInput))

	_, err = env.run(t, "account", "add", "Alex", "--token", "abc", "--uuid", "not-a-uuid")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInput))
}

func TestAccountAddCmd_NoToken(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "account", "add", "Alex", "--uuid", "069a79f4-44e9-4726-a5be-fca90e38aaf5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no access token")
}

func TestAccessToken_Sources(t *testing.T) {
	t.Setenv("ILM_ACCESS_TOKEN", "")
	accountToken = ""
	t.Cleanup(func() { accountToken = "" })

	token, err := accessToken(strings.NewReader("from-stdin\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, "from-stdin", token)

	t.Setenv("ILM_ACCESS_TOKEN", "from-env")
	token, err = accessToken(strings.NewReader("from-stdin\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, "from-env", token)

	accountToken = "from-flag"
	token, err = accessToken(strings.NewReader(""), nil)
	require.NoError(t, err)
	assert.Equal(t, "from-flag", token)
}

func TestAccountCmd_ListDefaultRemove(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "account", "add", "Alex", "--uuid", "069a79f4-44e9-4726-a5be-fca90e38aaf5", "--token", "abc")
	env.mustRun(t, "account", "add", "Steve", "--offline")

	out := env.mustRun(t, "--json", "account", "list")
	var views []accountJSON
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 2)
	assert.Equal(t, "Alex", views[0].Username)
	assert.True(t, views[0].IsDefault, "first account becomes the default")
	assert.Equal(t, core.OfflineCredentials("Steve").ID, views[1].UUID)
	assert.False(t, views[1].IsDefault)

	env.mustRun(t, "account", "default", "Steve")
	out = env.mustRun(t, "--json", "account", "list")
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	assert.False(t, views[0].IsDefault)
	assert.True(t, views[1].IsDefault)

	env.mustRun(t, "account", "remove", "Alex")
	out = env.mustRun(t, "account", "list")
	assert.NotContains(t, out, "Alex")
	assert.Contains(t, out, "Steve")
}

func TestAccountCmd_Unknown(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "account", "remove", "Nobody")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAccountNotFound))

	_, err = env.run(t, "account", "default", "Nobody")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAccountNotFound))
}

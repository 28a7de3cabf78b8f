package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/DonovanMods/instance-launcher/internal/core"
	"github.com/DonovanMods/instance-launcher/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupLaunchable creates a profile that can be launched with a fake java runtime
func setupLaunchable(t *testing.T, env *testEnv) string {
	t.Helper()
	java := writeFakeJava(t)
	dir := filepath.Join(t.TempDir(), "pack")
	require.NoError(t, os.Mkdir(dir, 0755))
	dir, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)

	env.mustRun(t, "settings", "set-java", "8", java)
	env.mustRun(t, "version", "add", "1.12.2", "--main-class", "net.minecraft.client.main.Main")
	env.mustRun(t, "profile", "create", "Pack", "--version", "1.12.2", "--dir", dir)
	return dir
}

func TestLaunchCmd_RequiresProfile(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "launch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestLaunchCmd_NoAccount(t *testing.T) {
	env := newTestEnv(t)
	setupLaunchable(t, env)

	_, err := env.run(t, "launch", "Pack")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ilm account add")
}

func TestLaunchCmd_RunsGame(t *testing.T) {
	env := newTestEnv(t)
	dir := setupLaunchable(t, env)
	env.mustRun(t, "account", "add", "Steve", "--offline")

	out := env.mustRun(t, "launch", "Pack")

	steve := core.OfflineCredentials("Steve")
	assert.Contains(t, out, "Started Pack as Steve")
	assert.Contains(t, out, "fake-java -Xmx2048M")
	assert.Contains(t, out, "net.minecraft.client.main.Main")
	assert.Contains(t, out, "--uuid "+steve.ID)
	assert.Contains(t, out, "--gameDir "+dir)
	assert.Contains(t, out, "Pack exited")
}

func TestLaunchCmd_UserFlagPlaysOffline(t *testing.T) {
	env := newTestEnv(t)
	setupLaunchable(t, env)

	out := env.mustRun(t, "launch", "Pack", "--user", "Alex")
	assert.Contains(t, out, "--username Alex")
	assert.Contains(t, out, "--accessToken 0")
}

func TestLaunchCmd_AccessTokenFromEnv(t *testing.T) {
	env := newTestEnv(t)
	setupLaunchable(t, env)
	t.Setenv("ILM_USERNAME", "Alex")
	t.Setenv("ILM_ACCESS_TOKEN", "secret-token")

	out := env.mustRun(t, "launch", "Pack")
	assert.Contains(t, out, "--username Alex")
	assert.Contains(t, out, "--accessToken secret-token")
}

func TestLaunchCmd_PropagatesExitCode(t *testing.T) {
	env := newTestEnv(t)
	setupLaunchable(t, env)
	t.Setenv("FAKE_EXIT", "3")

	_, err := env.run(t, "launch", "Pack", "--user", "Alex")
	require.Error(t, err)

	code, ok := domain.ExitCode(err)
	require.True(t, ok)
	assert.Equal(t, 3, code)
}

func TestLaunchCmd_PreLaunchHookFailureAborts(t *testing.T) {
	env := newTestEnv(t)
	dir := setupLaunchable(t, env)
	env.mustRun(t, "profile", "set", "Pack", "--pre-launch", "false", "--post-exit", "touch post-exit-ran")

	out, err := env.run(t, "launch", "Pack", "--user", "Alex")
	require.Error(t, err)
	assert.NotContains(t, out, "fake-java")
	assert.NoFileExists(t, filepath.Join(dir, "post-exit-ran"))
}

func TestLaunchCmd_NoHooks(t *testing.T) {
	env := newTestEnv(t)
	dir := setupLaunchable(t, env)
	env.mustRun(t, "profile", "set", "Pack", "--pre-launch", "false", "--post-exit", "touch post-exit-ran")

	out := env.mustRun(t, "--no-hooks", "launch", "Pack", "--user", "Alex")
	assert.Contains(t, out, "fake-java")
	assert.NoFileExists(t, filepath.Join(dir, "post-exit-ran"))
}

func TestLaunchCmd_RunsHooksInProfileDir(t *testing.T) {
	env := newTestEnv(t)
	dir := setupLaunchable(t, env)
	env.mustRun(t, "profile", "set", "Pack", "--pre-launch", "touch pre-launch-ran", "--post-exit", "touch post-exit-ran")

	env.mustRun(t, "launch", "Pack", "--user", "Alex")
	assert.FileExists(t, filepath.Join(dir, "pre-launch-ran"))
	assert.FileExists(t, filepath.Join(dir, "post-exit-ran"))
}

func TestLaunchCmd_JavaMissing(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "version", "add", "1.18.2", "--java", "17")
	env.mustRun(t, "profile", "create", "Pack", "--version", "1.18.2", "--dir", filepath.Join(t.TempDir(), "pack"))

	_, err := env.run(t, "launch", "Pack", "--user", "Alex")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrJavaNotFound), err.Error())
}

func TestLaunchCmd_UnknownVersion(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "profile", "create", "Pack", "--version", "9.9.9", "--dir", filepath.Join(t.TempDir(), "pack"))

	_, err := env.run(t, "launch", "Pack", "--user", "Alex")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrVersionNotFound), err.Error())
}

func TestLaunchCmd_ProfileJavaOverride(t *testing.T) {
	env := newTestEnv(t)
	setupLaunchable(t, env)

	other := filepath.Join(t.TempDir(), "java-override")
	require.NoError(t, os.WriteFile(other, []byte("#!/bin/sh\necho override-java\n"), 0755))
	env.mustRun(t, "profile", "set", "Pack", "--java", other)

	out := env.mustRun(t, "launch", "Pack", "--user", "Alex")
	assert.Contains(t, out, "override-java")
	assert.NotContains(t, out, "fake-java")
}

package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bridgeguard/internal/game"
)

const cliSecret = "cli-secret"

var zeroSeedHex = strings.Repeat("00", 32)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSignAndVerify(t *testing.T) {
	out, err := run(t, "", "sign", "--secret", cliSecret, zeroSeedHex)
	require.NoError(t, err)
	sig := strings.TrimSpace(out)
	assert.Equal(t, game.SignSeed(make([]byte, 32), []byte(cliSecret)), sig)

	out, err = run(t, "", "verify", "--secret", cliSecret, zeroSeedHex, sig)
	require.NoError(t, err)
	assert.Equal(t, "ok", strings.TrimSpace(out))

	_, err = run(t, "", "verify", "--secret", "other", zeroSeedHex, sig)
	assert.ErrorIs(t, err, errSignatureMismatch)

	_, err = run(t, "", "sign", "--secret", cliSecret, "xyz")
	assert.ErrorIs(t, err, game.ErrMalformedHex)
}

func TestPlatforms(t *testing.T) {
	out, err := run(t, "", "platforms", "-n", "4", zeroSeedHex)
	require.NoError(t, err)

	var payload game.DebugPayload
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Len(t, payload.Platforms, 5)
	assert.Len(t, payload.Draws, 4)
	assert.Equal(t, game.GeneratePlatforms(make([]byte, 32), 4, game.DefaultConfig()), payload.Platforms)
}

func TestTrace(t *testing.T) {
	session := game.SessionData{
		Seed:      zeroSeedHex,
		Signature: game.SignSeed(make([]byte, 32), []byte(cliSecret)),
		Moves:     []game.Move{{StartTime: 1500, Duration: 300, IdleDurationMs: 500}},
	}
	raw, err := json.Marshal(session)
	require.NoError(t, err)

	t.Run("valid signature replays", func(t *testing.T) {
		out, err := run(t, string(raw), "trace", "--secret", cliSecret)
		require.NoError(t, err)

		var report traceReport
		require.NoError(t, json.Unmarshal([]byte(out), &report))
		require.NotNil(t, report.Debug.Trace)
		assert.Len(t, report.Debug.Trace.Steps, 1)
		assert.Len(t, report.Debug.Platforms, 2)
	})

	t.Run("wrong secret is invalid data", func(t *testing.T) {
		out, err := run(t, string(raw), "trace", "--secret", "other")
		require.NoError(t, err)

		var report traceReport
		require.NoError(t, json.Unmarshal([]byte(out), &report))
		assert.True(t, report.Result.IsFraud)
		assert.Equal(t, game.FraudInvalidData, report.Result.FraudReason)
		assert.Nil(t, report.Debug.Trace)
	})

	t.Run("blacklisted", func(t *testing.T) {
		out, err := run(t, string(raw), "trace", "--secret", cliSecret, "--blacklisted")
		require.NoError(t, err)

		var report traceReport
		require.NoError(t, json.Unmarshal([]byte(out), &report))
		assert.Equal(t, game.FraudUserBlackListed, report.Result.FraudReason)
	})

	t.Run("bad challenge rule", func(t *testing.T) {
		_, err := run(t, string(raw), "trace", "--secret", cliSecret, "--challenge", "coins:ge:1")
		assert.ErrorIs(t, err, game.ErrUnknownMetric)
	})

	t.Run("malformed input", func(t *testing.T) {
		_, err := run(t, "{", "trace", "--secret", cliSecret)
		assert.Error(t, err)
	})
}

package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/fraudpulse-be/internal/features"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CONFIG_FILE", "")
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestScoreCommand(t *testing.T) {
	model := filepath.Join("..", "..", "internal", "scoring", "testdata", "logistic.json")
	out, err := run(t, "score", "--model", model,
		"--type", "TRANSFER", "--amount", "100000", "--old-balance-orig", "100000")
	require.NoError(t, err)

	var got scoreResult
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 1, got.PredictedClass)
	assert.Equal(t, "FRAUD", got.Label)
	assert.Equal(t, "test_logistic", got.ModelVersion)
}

func TestScoreCommandRejectsInvalidInput(t *testing.T) {
	model := filepath.Join("..", "..", "internal", "scoring", "testdata", "logistic.json")
	_, err := run(t, "score", "--model", model, "--type", "WIRE")
	assert.ErrorIs(t, err, features.ErrInvalidTransaction)
}

func TestScoreCommandMissingModel(t *testing.T) {
	_, err := run(t, "score", "--model", filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorContains(t, err, "load model")
}

func TestInitDBCommand(t *testing.T) {
	t.Setenv("DATABASE_URL", "sqlite://"+filepath.Join(t.TempDir(), "fraudpulse.db"))
	t.Setenv("BOOTSTRAP_ADMIN_USERNAME", "root")

	out, err := run(t, "init-db")
	require.NoError(t, err)
	assert.Contains(t, out, `admin user "root" created`)

	out, err = run(t, "init-db")
	require.NoError(t, err)
	assert.Contains(t, out, `admin user "root" already exists`)
}

func TestServeRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := run(t, "serve")
	assert.ErrorContains(t, err, "JWT_SECRET is required")
}

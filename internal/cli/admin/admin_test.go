package admin

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kutbudev/cardboard/internal/auth"
	"github.com/kutbudev/cardboard/internal/config"
)

func writeConfig(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "cardboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  driver: sqlite
  path: `+filepath.Join(dir, "cards.db")+`
auth:
  secret: test-secret
log:
  level: error
`), 0644))
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCreateSuperuserAndToken(t *testing.T) {
	cfgPath := writeConfig(t)

	out, err := run(t, "", "--config", cfgPath, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "up to date")

	out, err = run(t, "correct horse\n", "--config", cfgPath, "createsuperuser", "--email", "Admin@Example.COM")
	require.NoError(t, err)
	assert.Contains(t, out, "Admin@example.com (staff: true)")

	out, err = run(t, "", "--config", cfgPath, "token", "admin@EXAMPLE.com")
	require.NoError(t, err)

	var pair auth.Pair
	require.NoError(t, json.Unmarshal([]byte(out), &pair))

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	tokens := auth.NewTokens(cfg.Auth)

	access, err := tokens.Parse(pair.Access, auth.AccessToken)
	require.NoError(t, err)
	refresh, err := tokens.Parse(pair.Refresh, auth.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, access.UserID, refresh.UserID)
}

func TestCreateUserValidation(t *testing.T) {
	cfgPath := writeConfig(t)
	_, err := run(t, "", "--config", cfgPath, "migrate")
	require.NoError(t, err)

	_, err = run(t, "correct horse\n", "--config", cfgPath, "createuser", "--email", "not-an-email")
	assert.EqualError(t, err, "email is not a valid email address")

	_, err = run(t, "short\n", "--config", cfgPath, "createuser", "--email", "ada@example.com")
	assert.EqualError(t, err, "password must be at least 8 characters")

	out, err := run(t, "correct horse\n", "--config", cfgPath, "createuser", "--email", "ada@example.com", "--name", "Ada")
	require.NoError(t, err)
	assert.Contains(t, out, "ada@example.com (staff: false)")

	_, err = run(t, "correct horse\n", "--config", cfgPath, "createuser", "--email", "ada@example.com")
	assert.Error(t, err)
}

func TestSetPassword(t *testing.T) {
	cfgPath := writeConfig(t)
	_, err := run(t, "", "--config", cfgPath, "migrate")
	require.NoError(t, err)
	_, err = run(t, "correct horse\n", "--config", cfgPath, "createuser", "--email", "ada@example.com")
	require.NoError(t, err)

	out, err := run(t, "battery staple\n", "--config", cfgPath, "setpassword", "ada@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Password changed")

	_, err = run(t, "battery staple\n", "--config", cfgPath, "setpassword", "nobody@example.com")
	assert.Error(t, err)
}

func TestTokenUnknownUser(t *testing.T) {
	cfgPath := writeConfig(t)
	_, err := run(t, "", "--config", cfgPath, "migrate")
	require.NoError(t, err)

	_, err = run(t, "", "--config", cfgPath, "token", "nobody@example.com")
	assert.Error(t, err)
}

package cmd

import (
	"bytes"
	"path/filepath"
	"testing"
)

// useTestEnv points configuration at a fresh SQLite file and keeps the host
// environment out of the test.
func useTestEnv(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "voluntier.db")
	for key, value := range map[string]string{
		"ENVIRONMENT":          "test",
		"DATABASE_URL":         "sqlite:" + dbPath,
		"JWT_SECRET":           "cmd-test-secret-cmd-test-secret-cmd",
		"BCRYPT_COST":          "4",
		"ADMIN_USERNAME":       "admin",
		"ADMIN_PASSWORD":       "admin-password",
		"LOG_LEVEL":            "error",
		"TRACING_ENABLED":      "false",
		"STATIC_DIR":           "",
		"SERVER_PORT":          "",
		"CORS_ALLOWED_ORIGINS": "",
	} {
		t.Setenv(key, value)
	}
	return dbPath
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

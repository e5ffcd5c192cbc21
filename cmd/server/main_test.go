package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	contacthandler "id-recon/internal/contact/handler"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("RECON_LOG_LEVEL", "error")
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestIdentifyCommandOnSQLite(t *testing.T) {
	t.Setenv("RECON_DB_DRIVER", "sqlite")
	t.Setenv("RECON_SQLITE_PATH", filepath.Join(t.TempDir(), "recon.db"))

	out, err := runCommand(t, "identify", "--email", "lorraine@hillvalley.edu", "--phone", "123456")
	require.NoError(t, err)
	assert.JSONEq(t, `{"contact":{"primaryContactId":1,"emails":["lorraine@hillvalley.edu"],"phoneNumbers":["123456"],"secondaryContactIds":[]}}`, out)

	out, err = runCommand(t, "identify", "--email", "mcfly@hillvalley.edu", "--phone", "123456")
	require.NoError(t, err)
	assert.JSONEq(t, `{"contact":{"primaryContactId":1,"emails":["lorraine@hillvalley.edu","mcfly@hillvalley.edu"],"phoneNumbers":["123456"],"secondaryContactIds":[2]}}`, out)

	out, err = runCommand(t, "verify")
	require.NoError(t, err)
	assert.Contains(t, out, "linkage ok")
}

func TestIdentifyCommandPrintsTheHTTPResponseShape(t *testing.T) {
	out, err := runCommand(t, "identify", "--phone", "555")
	require.NoError(t, err)

	var resp contacthandler.IdentifyResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, []string{"555"}, resp.Contact.PhoneNumbers)
	assert.JSONEq(t, `{"contact":{"primaryContactId":1,"emails":[],"phoneNumbers":["555"],"secondaryContactIds":[]}}`, out,
		"empty lists print as [] like the HTTP body")
}

func TestIdentifyCommandRequiresAnIdentifier(t *testing.T) {
	_, err := runCommand(t, "identify")
	require.Error(t, err)
}

func TestMigrateCommandOnMemory(t *testing.T) {
	out, err := runCommand(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "driver memory has no schema")
}

func TestUnknownDriverIsRejected(t *testing.T) {
	t.Setenv("RECON_DB_DRIVER", "oracle")
	_, err := runCommand(t, "identify", "--email", "a@x.com")
	require.Error(t, err)
}

package contract

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"user-directory-service/cmd/api/di"
	"user-directory-service/internal/config"
)

const adminToken = "has-the-privilege"

func newService(t *testing.T) *Client {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		App: config.AppConfig{Env: "test", HTTPPort: 3000, ShutdownTimeout: time.Second},
		DB: config.DatabaseConfig{
			Driver:       config.DriverSQLite,
			SQLitePath:   ":memory:",
			MaxOpenConns: 1,
			MaxIdleConns: 1,
			AutoMigrate:  true,
		},
		Auth:   config.AuthConfig{AdminToken: adminToken, BcryptCost: 4},
		Logger: config.LoggerConfig{Level: "warn", SlowQuerySeconds: 1},
	}
	c, err := di.NewContainer(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	srv := httptest.NewServer(c.Router)
	t.Cleanup(func() {
		srv.Close()
		assert.NoError(t, c.Close())
	})
	return NewClient(srv.URL, adminToken, 5*time.Second)
}

func newEnv(t *testing.T) *Env {
	t.Helper()
	ctx := context.Background()
	client := newService(t)
	fixtures := NewFixtures(42)

	existing, err := SeedExistingUser(ctx, client, fixtures)
	require.NoError(t, err)
	return &Env{Client: client, Fixtures: fixtures, Existing: existing}
}

func TestChecksAgainstService(t *testing.T) {
	env := newEnv(t)

	for _, check := range Checks() {
		t.Run(check.ID, func(t *testing.T) {
			assert.NoError(t, check.Run(context.Background(), env))
		})
	}
}

func TestLookUpExistingDetectsMismatch(t *testing.T) {
	env := newEnv(t)
	env.Existing.Fields = Overlay(env.Existing.Fields, Record{"firstName": "Someone Else"})

	err := checkLookUpExisting(context.Background(), env)

	assert.ErrorContains(t, err, "expected body")
}

func TestRejectDuplicateReReadsExistingUser(t *testing.T) {
	env := newEnv(t)
	env.Existing.Fields = Overlay(env.Existing.Fields, Record{"lastName": "Changed Behind Our Back"})

	err := checkRejectDuplicate(context.Background(), env)

	assert.ErrorContains(t, err, "expected body")
}

func TestRejectDuplicateNeedsRegisteredEmail(t *testing.T) {
	env := newEnv(t)
	env.Existing.Fields = Overlay(env.Existing.Fields, env.Fixtures.RandomEmail())

	err := checkRejectDuplicate(context.Background(), env)

	assert.ErrorContains(t, err, "expected status 400, got 201")
}

func TestOverlay(t *testing.T) {
	src := Record{"a": 1, "b": 2}

	got := Overlay(src, Record{"b": 3, "c": 4})

	assert.Equal(t, Record{"a": 1, "b": 3, "c": 4}, got)
	assert.Equal(t, Record{"a": 1, "b": 2}, src)
	assert.Equal(t, Record{"a": 1}, Without(src, "b"))
}

func TestFixtures(t *testing.T) {
	f := NewFixtures(1)

	u := f.NewUser()
	assert.Regexp(t, `^New [0-9a-f]+$`, u["firstName"])
	assert.Regexp(t, `^User [0-9a-f]+$`, u["lastName"])
	assert.Regexp(t, `^new-[0-9a-f]+@email\.com$`, u["email"])
	assert.Regexp(t, `^pass-[0-9a-f]+$`, u["password"])
	assert.Regexp(t, `^First_[0-9a-f]+$`, f.RandomName()["firstName"])
	assert.Regexp(t, `^foo_[0-9a-f]+@bar\.baz$`, f.RandomEmail()["email"])
}

func TestRegexFilters(t *testing.T) {
	var f RegexFilters
	assert.True(t, f.Allows("users/create"))

	require.NoError(t, f.MustMatch.Set("^users/update"))
	require.NoError(t, f.MustNotMatch.Set("wrong"))
	assert.True(t, f.Allows("users/update"))
	assert.False(t, f.Allows("users/update-wrong-credentials"))
	assert.False(t, f.Allows("users/create"))

	assert.ErrorContains(t, f.MustMatch.Set("("), "invalid regex")
}

func TestRun(t *testing.T) {
	color.NoColor = true
	checks := []Check{
		{ID: "ok", Run: func(context.Context, *Env) error { return nil }},
		{ID: "broken", Run: func(context.Context, *Env) error { return errors.New("boom") }},
		{ID: "ignored", Run: func(context.Context, *Env) error { t.Fatal("should be skipped"); return nil }},
	}
	var filters RegexFilters
	require.NoError(t, filters.MustNotMatch.Set("^ignored$"))

	var out bytes.Buffer
	results := Run(context.Background(), &Env{}, checks, filters, &out)
	PrintSummary(&out, results)

	assert.False(t, results.OK())
	require.Len(t, results.Failures(), 1)
	assert.Equal(t, "broken", results.Failures()[0].ID)
	assert.Contains(t, out.String(), "PASS ok")
	assert.Contains(t, out.String(), "FAIL broken")
	assert.Contains(t, out.String(), "boom")
	assert.Contains(t, out.String(), "SKIP ignored")
	assert.Contains(t, out.String(), "1 passed, 1 failed, 1 skipped")
}

package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/media-collect/internal/container"
	"github.com/garyjia/media-collect/internal/domain/entity"
)

func startContainer(t *testing.T) *container.Container {
	t.Helper()

	cfg := container.DefaultConfig()
	cfg.Database.Path = filepath.Join(t.TempDir(), "seed.db")
	cfg.Auth.JWTSecret = "seed-secret-0123456789"
	cfg.Auth.BcryptCost = 4
	cfg.Metrics.Enabled = false

	c, err := container.NewContainer(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestSeed_Idempotent(t *testing.T) {
	ctx := context.Background()
	c := startContainer(t)

	seeded, err := seed(ctx, c)
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = seed(ctx, c)
	require.NoError(t, err)
	assert.False(t, seeded)

	subs, err := c.Services().Submission.ListSubmissions(ctx, entity.SubmissionFilter{})
	require.NoError(t, err)
	assert.Len(t, subs, len(seedSubmissions))

	approved, err := c.Services().Submission.ListSubmissions(ctx, entity.SubmissionFilter{Status: entity.SubmissionStatusApproved})
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, entity.SystemUserID, *approved[0].ReviewedByID)

	collectors, err := c.Services().Collector.ListCollectors(ctx)
	require.NoError(t, err)
	assert.Len(t, collectors, len(seedCollectors))
}

func TestCreateAdmin(t *testing.T) {
	ctx := context.Background()
	c := startContainer(t)

	adminName, adminEmail, adminPassword = "Root", "Root@Example.com", "correct-horse"
	t.Cleanup(func() { adminName, adminEmail, adminPassword = "Administrator", "", "" })

	var out, errOut bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)

	require.NoError(t, createAdmin(ctx, c.Services().User, cmd))
	assert.Contains(t, out.String(), "root@example.com")

	result, err := c.Services().User.Login(ctx, "root@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, result.User.Role)

	adminPassword = "short"
	adminEmail = "other@example.com"
	require.Error(t, createAdmin(ctx, c.Services().User, cmd))
	assert.Contains(t, errOut.String(), "password")
}

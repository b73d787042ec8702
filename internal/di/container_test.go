package di

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libraryhub/library-server/internal/config"
	"github.com/libraryhub/library-server/internal/di/providers"
	"github.com/libraryhub/library-server/internal/domain"
	"github.com/libraryhub/library-server/internal/service"
)

func testFlags(t *testing.T) config.Flags {
	t.Helper()
	dir := t.TempDir()
	return config.Flags{
		EnvFile:  filepath.Join(dir, "missing.env"),
		Env:      "development",
		LogLevel: "error",
		DataPath: dir,
		DBDriver: config.DriverSQLite,
		Port:     "0",
	}
}

func TestContainer_ServicesShareStore(t *testing.T) {
	injector := NewContainer(testFlags(t))
	t.Cleanup(func() { injector.Shutdown() })

	members := do.MustInvoke[*service.MemberService](injector)
	authSvc := do.MustInvoke[*service.AuthService](injector)
	ctx := context.Background()

	_, err := members.Create(ctx, domain.SystemActor, service.CreateMemberRequest{
		Name:     "Admin",
		Email:    "admin@example.com",
		Phone:    "9876543210",
		Role:     string(domain.RoleAdmin),
		Password: "password123",
	})
	require.NoError(t, err)

	res, err := authSvc.Authenticate(ctx, service.LoginRequest{Email: "admin@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
}

func TestContainer_AuthKeyIsStable(t *testing.T) {
	flags := testFlags(t)

	first := NewContainer(flags)
	key1 := do.MustInvoke[providers.AuthKey](first)
	first.Shutdown()

	second := NewContainer(flags)
	key2 := do.MustInvoke[providers.AuthKey](second)
	second.Shutdown()

	assert.Equal(t, key1, key2)
}

func TestContainer_InvalidConfig(t *testing.T) {
	flags := testFlags(t)
	flags.TokenFormat = "saml"

	injector := NewContainer(flags)
	_, err := do.Invoke[*config.Config](injector)
	assert.Error(t, err)
}

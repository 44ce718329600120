package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "fundvault/pkg/domain-errors"
	"fundvault/pkg/requestcontext"
)

func actorCtx(permissions ...string) context.Context {
	return requestcontext.WithActor(context.Background(), requestcontext.Actor{
		ID:          "user-1",
		Name:        "Back Office",
		Role:        "operator",
		Permissions: permissions,
	})
}

func TestRequire(t *testing.T) {
	t.Run("anonymous is unauthorized", func(t *testing.T) {
		err := Require(context.Background(), "bonds", "create")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("exact grant passes", func(t *testing.T) {
		assert.NoError(t, Require(actorCtx("bonds:create"), "bonds", "create"))
	})

	t.Run("module wildcard passes", func(t *testing.T) {
		assert.NoError(t, Require(actorCtx("bonds:*"), "bonds", "archive"))
	})

	t.Run("missing grant is forbidden", func(t *testing.T) {
		err := Require(actorCtx("deposits:create"), "bonds", "create")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("wildcard is scoped to its module", func(t *testing.T) {
		err := Require(actorCtx("deposits:*"), "bonds", "create")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("verb match on other module does not leak", func(t *testing.T) {
		err := Require(actorCtx("savings:create"), "bonds", "create")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

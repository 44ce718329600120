// Package authz enforces role-derived permissions on service operations.
// Permissions are "module:verb" strings resolved at login; a "module:*"
// wildcard grants every verb on the module.
package authz

import (
	"context"

	dErrors "fundvault/pkg/domain-errors"
	"fundvault/pkg/requestcontext"
)

// Require checks that the actor on ctx holds the given permission. It fails
// with Unauthorized for anonymous requests and Forbidden for authenticated
// actors missing the grant.
func Require(ctx context.Context, module, verb string) error {
	actor := requestcontext.ActorFrom(ctx)
	if actor.ID == "" {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if !Granted(actor, module, verb) {
		return dErrors.Newf(dErrors.CodeForbidden, "missing permission %s:%s", module, verb)
	}
	return nil
}

// Granted reports whether the actor holds module:verb, directly or through the
// module wildcard.
func Granted(actor requestcontext.Actor, module, verb string) bool {
	want := module + ":" + verb
	wildcard := module + ":*"
	for _, p := range actor.Permissions {
		if p == want || p == wildcard {
			return true
		}
	}
	return false
}

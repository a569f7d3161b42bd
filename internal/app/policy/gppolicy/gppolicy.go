// internal/app/policy/gppolicy/gppolicy.go
package gppolicy

import (
	"net/http"

	"github.com/vibesslabs/vibess-server/internal/app/system/authz"
	"github.com/vibesslabs/vibess-server/internal/domain/models"
)

// CanManage reports whether the current request user can administer the
// GP (force status changes, remove members):
// - Admins always can
// - Otherwise only the creator
func CanManage(r *http.Request, g *models.GP) bool {
	role, _, uid, ok := authz.UserCtx(r)
	if !ok {
		return false
	}
	if role == "admin" {
		return true
	}
	return g.CreatedBy == uid
}

// CanPost reports whether the current request user can post messages,
// vote, or report in the GP: membership is required, admin does not
// override.
func CanPost(r *http.Request, g *models.GP) bool {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		return false
	}
	return g.HasMember(uid)
}

// CanView reports whether the current request user can read the GP.
// Every signed-in user can view active groups for discovery; terminal
// groups are visible to members, the creator, and admins.
func CanView(r *http.Request, g *models.GP) bool {
	role, _, uid, ok := authz.UserCtx(r)
	if !ok {
		return false
	}
	if g.Status == "active" || role == "admin" {
		return true
	}
	return g.CreatedBy == uid || g.HasMember(uid)
}

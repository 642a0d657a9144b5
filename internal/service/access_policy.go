package service

import (
	"github.com/noah-isme/sma-attendance-api/internal/models"
	appErrors "github.com/noah-isme/sma-attendance-api/pkg/errors"
)

// Action names an account operation subject to the access policy.
type Action string

const (
	ActionToggleStatus Action = "toggle-status"
	ActionDeleteAdmin  Action = "delete-admin"
	ActionEditProfile  Action = "edit-profile"
)

// Authorize decides whether actor may perform action on the account identified by targetID.
// Status changes and deletion are reserved for super admins and never apply to the actor's own account.
func Authorize(actor models.Actor, targetID string, action Action) error {
	switch action {
	case ActionToggleStatus:
		if !actor.IsSuperAdmin() {
			return appErrors.Clone(appErrors.ErrForbidden, "Access Denied. Only Super Admins can manage status.")
		}
		if actor.ID == targetID {
			return appErrors.Clone(appErrors.ErrForbidden, "You cannot disable your own account.")
		}
		return nil
	case ActionDeleteAdmin:
		if !actor.IsSuperAdmin() {
			return appErrors.Clone(appErrors.ErrForbidden, "Access Denied. Only Super Admins can delete users.")
		}
		if actor.ID == targetID {
			return appErrors.Clone(appErrors.ErrForbidden, "You cannot delete your own account.")
		}
		return nil
	case ActionEditProfile:
		if actor.ID == targetID || actor.IsSuperAdmin() {
			return nil
		}
		return appErrors.ErrForbidden
	default:
		return appErrors.ErrForbidden
	}
}

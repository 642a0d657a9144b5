package service

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sma-attendance-api/internal/models"
	appErrors "github.com/noah-isme/sma-attendance-api/pkg/errors"
)

func TestAuthorize(t *testing.T) {
	super := models.Actor{ID: "root", Role: models.RoleSuperAdmin}
	teacher := models.Actor{ID: "t1", Role: models.RoleTeacher}

	cases := []struct {
		name    string
		actor   models.Actor
		target  string
		action  Action
		allowed bool
	}{
		{"super admin toggles other", super, "t1", ActionToggleStatus, true},
		{"super admin toggles self", super, "root", ActionToggleStatus, false},
		{"teacher toggles other", teacher, "t2", ActionToggleStatus, false},
		{"super admin deletes other", super, "t1", ActionDeleteAdmin, true},
		{"super admin deletes self", super, "root", ActionDeleteAdmin, false},
		{"teacher deletes self", teacher, "t1", ActionDeleteAdmin, false},
		{"teacher edits self", teacher, "t1", ActionEditProfile, true},
		{"teacher edits other", teacher, "t2", ActionEditProfile, false},
		{"super admin edits other", super, "t1", ActionEditProfile, true},
		{"unknown action", super, "t1", Action("promote"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Authorize(tc.actor, tc.target, tc.action)
			if tc.allowed {
				assert.NoError(t, err)
				return
			}
			if assert.Error(t, err) {
				assert.Equal(t, http.StatusForbidden, appErrors.FromError(err).Status)
			}
		})
	}
}

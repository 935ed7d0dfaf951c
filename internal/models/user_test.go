package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleCapabilities(t *testing.T) {
	assert.True(t, RoleAdmin.Can(CapCatalogWrite))
	assert.False(t, RoleAdmin.Can(CapRegisterSelf))
	assert.True(t, RoleStudent.Can(CapRegisterSelf))
	assert.False(t, RoleStudent.Can(CapCatalogWrite))
	assert.False(t, UserRole("GUEST").Can(CapStudentsRead))
}

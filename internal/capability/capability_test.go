package capability

import (
	"testing"

	"furniture-service/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestRoleGrants(t *testing.T) {
	tests := []struct {
		role    string
		granted []Capability
		denied  []Capability
	}{
		{
			role:    model.RoleAdmin,
			granted: []Capability{ManageBranches, ManageInventory, ApprovePurchaseOrders, PlaceOrders},
		},
		{
			role:    model.RoleManager,
			granted: []Capability{ManageBranches, ApprovePurchaseOrders, ViewReports},
			denied:  []Capability{PlaceOrders},
		},
		{
			role:    model.RoleSalesStaff,
			granted: []Capability{ViewInventory, ManageOrders},
			denied:  []Capability{ManageInventory, ManageBranches, ApprovePurchaseOrders},
		},
		{
			role:    model.RoleInventoryStaff,
			granted: []Capability{ManageInventory, ReceivePurchaseOrders},
			denied:  []Capability{ManageOrders, ApprovePurchaseOrders, ViewReports},
		},
		{
			role:    model.RoleCustomer,
			granted: []Capability{PlaceOrders},
			denied:  []Capability{ViewInventory, ViewOrders, ManageCatalog},
		},
	}

	for _, tt := range tests {
		set := ForRole(tt.role)
		for _, cap := range tt.granted {
			assert.True(t, set.Has(cap), "%s should hold %s", tt.role, cap)
		}
		for _, cap := range tt.denied {
			assert.False(t, set.Has(cap), "%s should not hold %s", tt.role, cap)
		}
	}
}

func TestUnknownRoleHasNoGrants(t *testing.T) {
	set := ForRole("INTERN")
	assert.False(t, set.Has(ViewInventory))
	assert.False(t, set.Has(PlaceOrders))
}

func TestActorCan(t *testing.T) {
	branchID := uint(3)
	actor := NewActor(42, "staff@example.com", model.RoleInventoryStaff, &branchID)
	assert.True(t, actor.Can(ManageInventory))
	assert.False(t, actor.Can(ManageCatalog))

	customer := NewActor(7, "buyer@example.com", model.RoleCustomer, nil)
	assert.True(t, customer.Can(PlaceOrders))
	assert.False(t, customer.Can(ManageInventory))
}

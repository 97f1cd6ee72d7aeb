// Package capability maps user roles onto the operation capabilities
// the API checks. Every operation declares the capability it requires;
// an actor presents the set granted by its role and the check is a
// plain membership test.
package capability

import "furniture-service/internal/model"

// Capability names one guarded operation family.
type Capability string

const (
	ManageBranches        Capability = "branches:manage"
	ViewInventory         Capability = "inventory:view"
	ManageInventory       Capability = "inventory:manage"
	ManageCatalog         Capability = "catalog:manage"
	ViewOrders            Capability = "orders:view"
	ManageOrders          Capability = "orders:manage"
	PlaceOrders           Capability = "orders:place"
	ManageSuppliers       Capability = "suppliers:manage"
	ManagePurchaseOrders  Capability = "purchase-orders:manage"
	ApprovePurchaseOrders Capability = "purchase-orders:approve"
	ReceivePurchaseOrders Capability = "purchase-orders:receive"
	ViewReports           Capability = "reports:view"
)

// Set is a granted capability set.
type Set map[Capability]struct{}

// NewSet builds a Set from its members.
func NewSet(caps ...Capability) Set {
	s := make(Set, len(caps))
	for _, c := range caps {
		s[c] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s Set) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

var roleGrants = map[string]Set{
	model.RoleAdmin: NewSet(
		ManageBranches, ViewInventory, ManageInventory, ManageCatalog,
		ViewOrders, ManageOrders, PlaceOrders, ManageSuppliers,
		ManagePurchaseOrders, ApprovePurchaseOrders, ReceivePurchaseOrders,
		ViewReports,
	),
	model.RoleManager: NewSet(
		ManageBranches, ViewInventory, ManageInventory, ManageCatalog,
		ViewOrders, ManageOrders, ManageSuppliers,
		ManagePurchaseOrders, ApprovePurchaseOrders, ReceivePurchaseOrders,
		ViewReports,
	),
	model.RoleSalesStaff: NewSet(
		ViewInventory, ViewOrders, ManageOrders, ViewReports,
	),
	model.RoleInventoryStaff: NewSet(
		ViewInventory, ManageInventory,
		ManagePurchaseOrders, ReceivePurchaseOrders,
	),
	model.RoleCustomer: NewSet(
		PlaceOrders,
	),
}

// ForRole returns the capability set granted to a role. Unknown roles
// get an empty set.
func ForRole(role string) Set {
	return roleGrants[role]
}

// Actor is the authenticated caller threaded explicitly through every
// operation.
type Actor struct {
	UserID   uint
	Email    string
	Role     string
	BranchID *uint

	grants Set
}

// NewActor builds an actor with the grants of its role.
func NewActor(userID uint, email, role string, branchID *uint) Actor {
	return Actor{
		UserID:   userID,
		Email:    email,
		Role:     role,
		BranchID: branchID,
		grants:   ForRole(role),
	}
}

// Can reports whether the actor holds a capability.
func (a Actor) Can(c Capability) bool {
	return a.grants.Has(c)
}

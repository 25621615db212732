package domain

import "testing"

func TestCanTransitionMatrix(t *testing.T) {
	allEvents := []string{
		EventSubmitServices,
		EventSendQuotation,
		EventRequestRevision,
		EventAcceptQuotation,
		EventApproveRevision,
		EventRequestChange,
	}

	allowed := map[Role][]string{
		RoleUser:  {EventSubmitServices, EventRequestRevision, EventAcceptQuotation, EventRequestChange},
		RoleAdmin: {EventSendQuotation, EventApproveRevision, EventRequestChange},
	}

	for _, role := range []Role{RoleUser, RoleAdmin, RoleSalesRep, RoleSupportAgent} {
		permitted := map[string]bool{}
		for _, e := range allowed[role] {
			permitted[e] = true
		}
		for _, event := range allEvents {
			got := CanTransition(role, event)
			if got != permitted[event] {
				t.Fatalf("CanTransition(%s, %s) = %v, want %v", role, event, got, permitted[event])
			}
		}
	}
}

func TestCanTransitionDeniesUnknownEvent(t *testing.T) {
	if CanTransition(RoleAdmin, "deleteEverything") {
		t.Fatal("unknown events must be denied, not silently ignored")
	}
}

func TestCanReorder(t *testing.T) {
	for role, want := range map[Role]bool{
		RoleUser:         true,
		RoleAdmin:        true,
		RoleSalesRep:     true,
		RoleSupportAgent: false,
	} {
		if got := CanReorder(role); got != want {
			t.Fatalf("CanReorder(%s) = %v, want %v", role, got, want)
		}
	}
}

func TestRoleCategory(t *testing.T) {
	if RoleUser.Category() != CategoryUser {
		t.Fatal("user role must map to the user category")
	}
	for _, role := range []Role{RoleAdmin, RoleSalesRep, RoleSupportAgent} {
		if role.Category() != CategoryAdmin {
			t.Fatalf("role %s must map to the admin category", role)
		}
	}
}

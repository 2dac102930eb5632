package service

import (
	"context"
)

// staticAuthorizer grants roles from fixed address lists loaded at startup.
// It is the simplest Authorizer; deployments with real role administration
// plug in their own implementation.
type staticAuthorizer struct {
	grants map[Role]map[string]struct{}
}

// NewStaticAuthorizer creates an Authorizer backed by fixed address lists.
func NewStaticAuthorizer(minters, rateAdmins []string) Authorizer {
	grants := map[Role]map[string]struct{}{
		RoleMinter:    {},
		RoleRateAdmin: {},
	}
	for _, addr := range minters {
		grants[RoleMinter][addr] = struct{}{}
	}
	for _, addr := range rateAdmins {
		grants[RoleRateAdmin][addr] = struct{}{}
	}
	return &staticAuthorizer{grants: grants}
}

func (a *staticAuthorizer) HasRole(ctx context.Context, caller string, role Role) (bool, error) {
	members, ok := a.grants[role]
	if !ok {
		return false, nil
	}
	_, ok = members[caller]
	return ok, nil
}

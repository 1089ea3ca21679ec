package domain

// Platform is the source control platform hosting an account (e.g. Github).
type Platform struct {
	Name string
}

// PlatformAccount is an account on a source control platform linked to an organization.
type PlatformAccount struct {
	ID       PlatformAccountID
	Name     string
	Platform Platform
}

// NewPlatformAccount builds a platform account whose id is derived from name and organization.
func NewPlatformAccount(name, platformName string, organizationID OrganizationID) PlatformAccount {
	return PlatformAccount{
		ID:       NewPlatformAccountID(name, organizationID),
		Name:     name,
		Platform: Platform{Name: platformName},
	}
}

// Organization is the root of the organization aggregate and the shape of its read model.
// PlatformAccounts never holds two entries with the same ID.
type Organization struct {
	ID               OrganizationID
	Name             string
	PlatformAccounts []PlatformAccount
}

// HasAccount reports whether an account with the given id is linked.
func (o *Organization) HasAccount(id PlatformAccountID) bool {
	for _, a := range o.PlatformAccounts {
		if a.ID == id {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices with o.
func (o Organization) Clone() Organization {
	out := o
	if o.PlatformAccounts != nil {
		out.PlatformAccounts = make([]PlatformAccount, len(o.PlatformAccounts))
		copy(out.PlatformAccounts, o.PlatformAccounts)
	}
	return out
}

// OrganizationSummary is a row of the paginated organization listing.
type OrganizationSummary struct {
	ID                   OrganizationID
	Name                 string
	PlatformAccountCount int64
}

// PageRequest selects a keyset page of organizations. At most one of Before and After is set.
type PageRequest struct {
	Before *OrganizationID
	After  *OrganizationID
}

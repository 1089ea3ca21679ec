package db

// Organization is a row of "Organization". IDs are the domain u64 ids stored bit for bit in BIGINT.
type Organization struct {
	ID   int64
	Name string
}

type PlatformAccount struct {
	ID             int64
	OrganizationID int64
	Name           string
	PlatformName   string
}

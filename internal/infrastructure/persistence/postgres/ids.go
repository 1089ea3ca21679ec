package postgres

import "github.com/amirhosseinghanipour/porti/internal/domain"

// Domain ids are u64; the columns are BIGINT. Values are reinterpreted bit for bit.

func organizationKey(id domain.OrganizationID) int64 { return int64(id) }

func accountKey(id domain.PlatformAccountID) int64 { return int64(id) }

func organizationID(key int64) domain.OrganizationID { return domain.OrganizationID(uint64(key)) }

func accountID(key int64) domain.PlatformAccountID { return domain.PlatformAccountID(uint64(key)) }

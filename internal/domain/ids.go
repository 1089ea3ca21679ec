package domain

import (
	"encoding/binary"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// OrganizationID is the identity of an organization aggregate.
type OrganizationID uint64

// NewOrganizationID derives the identity of an organization from its name.
// The same name always yields the same id.
func NewOrganizationID(name string) OrganizationID {
	return OrganizationID(xxhash.Sum64String(name))
}

// ParseOrganizationID parses the decimal form produced by String.
func ParseOrganizationID(s string) (OrganizationID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return OrganizationID(v), nil
}

func (id OrganizationID) String() string { return strconv.FormatUint(uint64(id), 10) }

// PlatformAccountID is the identity of a platform account within an organization.
type PlatformAccountID uint64

// NewPlatformAccountID derives the identity of a platform account from its name and owning organization.
func NewPlatformAccountID(name string, organizationID OrganizationID) PlatformAccountID {
	d := xxhash.New()
	_, _ = d.WriteString(name)
	var buf [9]byte
	buf[0] = 0xff // name terminator
	binary.BigEndian.PutUint64(buf[1:], uint64(organizationID))
	_, _ = d.Write(buf[:])
	return PlatformAccountID(d.Sum64())
}

// ParsePlatformAccountID parses the decimal form produced by String.
func ParsePlatformAccountID(s string) (PlatformAccountID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return PlatformAccountID(v), nil
}

func (id PlatformAccountID) String() string { return strconv.FormatUint(uint64(id), 10) }

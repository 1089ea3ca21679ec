package eventstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/amirhosseinghanipour/porti/internal/domain"
)

// DefaultNamespace prefixes stream and event type names.
const DefaultNamespace = "Porti.SourceControl"

const organizationSegment = "/Aggregates/Organization/"

// Versions written by Encode. Older versions remain decodable.
const (
	organizationCreatedVersion    = 1
	platformAccountAddedVersion   = 1
	platformAccountRemovedVersion = 2
)

// ErrUnknownEventType is returned for a type name the codec does not know.
var ErrUnknownEventType = errors.New("unknown event type")

// DecodeError reports a payload that could not be turned into an event.
type DecodeError struct {
	TypeName string
	Cause    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %q: %v", e.TypeName, e.Cause)
}

func (e *DecodeError) Unwrap() error { return e.Cause }

// Codec maps organization events to and from (type name, JSON payload) envelopes.
type Codec struct {
	namespace string
}

// NewCodec returns a codec for namespace; empty means DefaultNamespace.
func NewCodec(namespace string) *Codec {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Codec{namespace: namespace}
}

// StreamPrefix is the common prefix of all organization streams.
func (c *Codec) StreamPrefix() string {
	return c.namespace + organizationSegment
}

// StreamName is the stream holding the events of organization id.
func (c *Codec) StreamName(id domain.OrganizationID) string {
	return c.StreamPrefix() + id.String()
}

func (c *Codec) typeName(variant string, version int) string {
	return fmt.Sprintf("%s%s%s/%d", c.namespace, organizationSegment, variant, version)
}

// Wire shapes. Pointer fields detect missing required values.

type createdV1 struct {
	OrganizationID *uint64 `json:"organization_id"`
	Name           *string `json:"name"`
}

type platformWire struct {
	Name *string `json:"name"`
}

type accountWire struct {
	ID       *uint64       `json:"id"`
	Name     *string       `json:"name,omitempty"`
	Platform *platformWire `json:"platform,omitempty"`
}

type addedV1 struct {
	OrganizationID *uint64      `json:"organization_id"`
	Account        *accountWire `json:"account"`
}

type removedV1 struct {
	OrganizationID *uint64      `json:"organization_id"`
	Account        *accountWire `json:"account"`
}

type removedV2 struct {
	OrganizationID *uint64 `json:"organization_id"`
	AccountID      *uint64 `json:"account_id"`
}

// Encode returns the versioned type name and JSON payload of event.
func (c *Codec) Encode(event domain.OrganizationEvent) (string, []byte, error) {
	var (
		name    string
		payload any
	)
	switch e := event.(type) {
	case domain.OrganizationCreated:
		name = c.typeName(e.EventType(), organizationCreatedVersion)
		payload = createdV1{
			OrganizationID: ptr(uint64(e.OrganizationID)),
			Name:           ptr(e.Name),
		}
	case domain.PlatformAccountAdded:
		name = c.typeName(e.EventType(), platformAccountAddedVersion)
		payload = addedV1{
			OrganizationID: ptr(uint64(e.OrganizationID)),
			Account: &accountWire{
				ID:       ptr(uint64(e.Account.ID)),
				Name:     ptr(e.Account.Name),
				Platform: &platformWire{Name: ptr(e.Account.Platform.Name)},
			},
		}
	case domain.PlatformAccountRemoved:
		name = c.typeName(e.EventType(), platformAccountRemovedVersion)
		payload = removedV2{
			OrganizationID: ptr(uint64(e.OrganizationID)),
			AccountID:      ptr(uint64(e.AccountID)),
		}
	default:
		return "", nil, fmt.Errorf("encode %T: %w", event, ErrUnknownEventType)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", nil, fmt.Errorf("encode %s: %w", name, err)
	}
	return name, data, nil
}

// Decode parses payload according to typeName. It never panics; unknown types,
// malformed JSON and missing required fields are returned as *DecodeError.
func (c *Codec) Decode(payload []byte, typeName string) (domain.OrganizationEvent, error) {
	variant, version, ok := c.splitTypeName(typeName)
	if !ok {
		return nil, &DecodeError{TypeName: typeName, Cause: ErrUnknownEventType}
	}
	event, err := decodeVariant(variant, version, payload)
	if err != nil {
		return nil, &DecodeError{TypeName: typeName, Cause: err}
	}
	return event, nil
}

func (c *Codec) splitTypeName(typeName string) (string, string, bool) {
	rest, ok := strings.CutPrefix(typeName, c.StreamPrefix())
	if !ok {
		return "", "", false
	}
	variant, version, ok := strings.Cut(rest, "/")
	if !ok || variant == "" || version == "" {
		return "", "", false
	}
	return variant, version, true
}

func decodeVariant(variant, version string, payload []byte) (domain.OrganizationEvent, error) {
	switch variant + "/" + version {
	case domain.EventTypeOrganizationCreated + "/1":
		var w createdV1
		if err := json.Unmarshal(payload, &w); err != nil {
			return nil, err
		}
		if w.OrganizationID == nil || w.Name == nil {
			return nil, errMissing("organization_id", "name")
		}
		return domain.OrganizationCreated{
			OrganizationID: domain.OrganizationID(*w.OrganizationID),
			Name:           *w.Name,
		}, nil

	case domain.EventTypePlatformAccountAdded + "/1":
		var w addedV1
		if err := json.Unmarshal(payload, &w); err != nil {
			return nil, err
		}
		if w.OrganizationID == nil || w.Account == nil || w.Account.ID == nil || w.Account.Name == nil ||
			w.Account.Platform == nil || w.Account.Platform.Name == nil {
			return nil, errMissing("organization_id", "account.id", "account.name", "account.platform.name")
		}
		return domain.PlatformAccountAdded{
			OrganizationID: domain.OrganizationID(*w.OrganizationID),
			Account: domain.PlatformAccount{
				ID:       domain.PlatformAccountID(*w.Account.ID),
				Name:     *w.Account.Name,
				Platform: domain.Platform{Name: *w.Account.Platform.Name},
			},
		}, nil

	case domain.EventTypePlatformAccountRemoved + "/1":
		var w removedV1
		if err := json.Unmarshal(payload, &w); err != nil {
			return nil, err
		}
		if w.OrganizationID == nil || w.Account == nil || w.Account.ID == nil {
			return nil, errMissing("organization_id", "account.id")
		}
		return domain.PlatformAccountRemoved{
			OrganizationID: domain.OrganizationID(*w.OrganizationID),
			AccountID:      domain.PlatformAccountID(*w.Account.ID),
		}, nil

	case domain.EventTypePlatformAccountRemoved + "/2":
		var w removedV2
		if err := json.Unmarshal(payload, &w); err != nil {
			return nil, err
		}
		if w.OrganizationID == nil || w.AccountID == nil {
			return nil, errMissing("organization_id", "account_id")
		}
		return domain.PlatformAccountRemoved{
			OrganizationID: domain.OrganizationID(*w.OrganizationID),
			AccountID:      domain.PlatformAccountID(*w.AccountID),
		}, nil
	}
	return nil, ErrUnknownEventType
}

func errMissing(fields ...string) error {
	return fmt.Errorf("missing required field, need %s", strings.Join(fields, ", "))
}

func ptr[T any](v T) *T { return &v }

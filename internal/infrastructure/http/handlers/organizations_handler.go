package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/porti/internal/application/organization"
	"github.com/amirhosseinghanipour/porti/internal/domain"
)

// OrganizationsHandler serves /api/v1/organizations. Ids are decimal strings on the wire.
type OrganizationsHandler struct {
	create        *organization.CreateOrganization
	addAccount    *organization.AddPlatformAccount
	removeAccount *organization.RemovePlatformAccount
	get           *organization.GetOrganization
	list          *organization.ListOrganizations
	log           *organization.GetOrganizationLog
	validate      *validator.Validate
	logger        zerolog.Logger
}

// OrganizationUseCases groups the use cases the handler dispatches to.
type OrganizationUseCases struct {
	Create        *organization.CreateOrganization
	AddAccount    *organization.AddPlatformAccount
	RemoveAccount *organization.RemovePlatformAccount
	Get           *organization.GetOrganization
	List          *organization.ListOrganizations
	Log           *organization.GetOrganizationLog
}

func NewOrganizationsHandler(uc OrganizationUseCases, logger zerolog.Logger) *OrganizationsHandler {
	return &OrganizationsHandler{
		create:        uc.Create,
		addAccount:    uc.AddAccount,
		removeAccount: uc.RemoveAccount,
		get:           uc.Get,
		list:          uc.List,
		log:           uc.Log,
		validate:      validator.New(),
		logger:        logger,
	}
}

type platformJSON struct {
	Name string `json:"name"`
}

type platformAccountJSON struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Platform platformJSON `json:"platform"`
}

type organizationJSON struct {
	ID               string                `json:"id"`
	Name             string                `json:"name"`
	PlatformAccounts []platformAccountJSON `json:"platform_accounts"`
}

func toOrganizationJSON(o *domain.Organization) organizationJSON {
	out := organizationJSON{
		ID:               o.ID.String(),
		Name:             o.Name,
		PlatformAccounts: make([]platformAccountJSON, 0, len(o.PlatformAccounts)),
	}
	for _, a := range o.PlatformAccounts {
		out.PlatformAccounts = append(out.PlatformAccounts, platformAccountJSON{
			ID:       a.ID.String(),
			Name:     a.Name,
			Platform: platformJSON{Name: a.Platform.Name},
		})
	}
	return out
}

// Create handles POST /api/v1/organizations. Body: { "name": "..." }.
func (h *OrganizationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name" validate:"required,max=255"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid body")
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", err.Error())
		return
	}
	name := SanitizeName(body.Name, MaxNameLength)
	if name == "" {
		writeErr(w, http.StatusBadRequest, "", "name is required")
		return
	}
	org, err := h.create.Execute(r.Context(), organization.CreateOrganizationInput{Name: name})
	if err != nil {
		writeDomainErr(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrganizationJSON(org))
}

// Get handles GET /api/v1/organizations/{id} from the read model.
func (h *OrganizationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := organizationIDParam(w, r)
	if !ok {
		return
	}
	org, err := h.get.Execute(r.Context(), id)
	if err != nil {
		writeDomainErr(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrganizationJSON(org))
}

type organizationSummaryJSON struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	PlatformAccountCount int64  `json:"platform_account_count"`
}

type listResponse struct {
	Items    []organizationSummaryJSON `json:"items"`
	Next     *string                   `json:"next"`
	Previous *string                   `json:"previous"`
}

// List handles GET /api/v1/organizations?after=<id> or ?before=<id>.
func (h *OrganizationsHandler) List(w http.ResponseWriter, r *http.Request) {
	var page domain.PageRequest
	q := r.URL.Query()
	if q.Has("after") && q.Has("before") {
		writeErr(w, http.StatusBadRequest, "", "after and before are mutually exclusive")
		return
	}
	for key, dst := range map[string]**domain.OrganizationID{"after": &page.After, "before": &page.Before} {
		if !q.Has(key) {
			continue
		}
		id, err := domain.ParseOrganizationID(q.Get(key))
		if err != nil {
			writeErr(w, http.StatusBadRequest, "", "invalid "+key+" cursor")
			return
		}
		*dst = &id
	}

	res, err := h.list.Execute(r.Context(), page)
	if err != nil {
		writeDomainErr(w, h.logger, err)
		return
	}
	out := listResponse{Items: make([]organizationSummaryJSON, 0, len(res.Items))}
	for _, s := range res.Items {
		out.Items = append(out.Items, organizationSummaryJSON{
			ID:                   s.ID.String(),
			Name:                 s.Name,
			PlatformAccountCount: s.PlatformAccountCount,
		})
	}
	out.Next = cursor(res.Next)
	out.Previous = cursor(res.Previous)
	writeJSON(w, http.StatusOK, out)
}

func cursor(id *domain.OrganizationID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

type eventJSON struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Log handles GET /api/v1/organizations/{id}/log from the event store.
func (h *OrganizationsHandler) Log(w http.ResponseWriter, r *http.Request) {
	id, ok := organizationIDParam(w, r)
	if !ok {
		return
	}
	events, err := h.log.Execute(r.Context(), id)
	if err != nil {
		writeDomainErr(w, h.logger, err)
		return
	}
	out := make([]eventJSON, 0, len(events))
	for _, e := range events {
		out = append(out, toEventJSON(e))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": out})
}

func toEventJSON(e domain.OrganizationEvent) eventJSON {
	var data interface{}
	switch ev := e.(type) {
	case domain.OrganizationCreated:
		data = map[string]string{"organization_id": ev.OrganizationID.String(), "name": ev.Name}
	case domain.PlatformAccountAdded:
		data = map[string]interface{}{
			"organization_id": ev.OrganizationID.String(),
			"account": platformAccountJSON{
				ID:       ev.Account.ID.String(),
				Name:     ev.Account.Name,
				Platform: platformJSON{Name: ev.Account.Platform.Name},
			},
		}
	case domain.PlatformAccountRemoved:
		data = map[string]string{"organization_id": ev.OrganizationID.String(), "account_id": ev.AccountID.String()}
	}
	return eventJSON{Type: e.EventType(), Data: data}
}

// AddPlatformAccount handles POST /api/v1/organizations/{id}/platform-accounts.
// Body: { "name": "...", "platform_name": "..." }.
func (h *OrganizationsHandler) AddPlatformAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := organizationIDParam(w, r)
	if !ok {
		return
	}
	var body struct {
		Name         string `json:"name" validate:"required,max=255"`
		PlatformName string `json:"platform_name" validate:"required,max=64"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid body")
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", err.Error())
		return
	}
	name := SanitizeName(body.Name, MaxNameLength)
	platform := SanitizeName(body.PlatformName, MaxPlatformNameLength)
	if name == "" || platform == "" {
		writeErr(w, http.StatusBadRequest, "", "name and platform_name are required")
		return
	}
	org, err := h.addAccount.Execute(r.Context(), organization.AddPlatformAccountInput{
		OrganizationID: id,
		Name:           name,
		PlatformName:   platform,
	})
	if err != nil {
		writeDomainErr(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrganizationJSON(org))
}

// RemovePlatformAccount handles DELETE /api/v1/organizations/{id}/platform-accounts/{account_id}.
func (h *OrganizationsHandler) RemovePlatformAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := organizationIDParam(w, r)
	if !ok {
		return
	}
	accountID, err := domain.ParsePlatformAccountID(chi.URLParam(r, "account_id"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid account id")
		return
	}
	org, err := h.removeAccount.Execute(r.Context(), organization.RemovePlatformAccountInput{
		OrganizationID: id,
		AccountID:      accountID,
	})
	if err != nil {
		writeDomainErr(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrganizationJSON(org))
}

func organizationIDParam(w http.ResponseWriter, r *http.Request) (domain.OrganizationID, bool) {
	id, err := domain.ParseOrganizationID(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid organization id")
		return 0, false
	}
	return id, true
}

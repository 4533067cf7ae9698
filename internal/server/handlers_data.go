package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/BradleyExton/canpoli-api/internal/repo"
)

// ListRepresentatives returns active MPs with optional province and party
// filters.
func (s *Server) ListRepresentatives(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := pagination(r)
	if !ok {
		respondDetail(w, http.StatusUnprocessableEntity, "Invalid pagination parameters")
		return
	}
	province := queryStr(r, "province")
	party := queryStr(r, "party")

	representatives := repo.NewRepresentatives(s.DB)
	items, err := representatives.List(r.Context(), province, party, limit, offset)
	if err != nil {
		s.internalError(w, err)
		return
	}
	total, err := representatives.Count(r.Context(), province, party)
	if err != nil {
		s.internalError(w, err)
		return
	}

	responses := make([]RepresentativeResponse, 0, len(items))
	for i := range items {
		responses = append(responses, newRepresentativeResponse(&items[i]))
	}
	respondJSON(w, http.StatusOK, ListResponse[RepresentativeResponse]{
		Items: responses, Total: total, Limit: limit, Offset: offset,
	})
}

// LookupRepresentative resolves coordinates to the sitting MP via the
// riding geometry. Postal-code lookup is not offered.
func (s *Server) LookupRepresentative(w http.ResponseWriter, r *http.Request) {
	postalCode := queryStr(r, "postal_code")
	lat, latOK := queryFloat(r, "lat")
	lng, lngOK := queryFloat(r, "lng")
	if !latOK || !lngOK {
		respondDetail(w, http.StatusUnprocessableEntity, "Invalid coordinates")
		return
	}

	hasCoords := lat != nil || lng != nil
	switch {
	case postalCode != nil && hasCoords:
		respondDetail(w, http.StatusUnprocessableEntity, "Provide only one of postal_code or lat+lng")
		return
	case postalCode == nil && !hasCoords:
		respondDetail(w, http.StatusUnprocessableEntity, "Provide either postal_code or lat+lng")
		return
	case hasCoords && (lat == nil || lng == nil):
		respondDetail(w, http.StatusUnprocessableEntity, "Both lat and lng are required for coordinate lookup")
		return
	case postalCode != nil:
		respondDetail(w, http.StatusNotImplemented, "Lookup by postal code not yet implemented")
		return
	}

	if *lat < -90 || *lat > 90 || *lng < -180 || *lng > 180 {
		respondDetail(w, http.StatusUnprocessableEntity, "Coordinates out of range")
		return
	}

	riding, err := repo.NewRidings(s.DB).GetByPoint(r.Context(), *lat, *lng)
	if err != nil {
		s.internalError(w, err)
		return
	}
	if riding == nil {
		respondDetail(w, http.StatusNotFound, "Riding not found for coordinates")
		return
	}

	rep, err := repo.NewRepresentatives(s.DB).GetActiveByRidingID(r.Context(), riding.ID)
	if err != nil {
		s.internalError(w, err)
		return
	}
	if rep == nil {
		respondDetail(w, http.StatusNotFound, "Representative not found")
		return
	}
	respondJSON(w, http.StatusOK, newRepresentativeResponse(rep))
}

// GetRepresentative returns one MP by House of Commons id.
func (s *Server) GetRepresentative(w http.ResponseWriter, r *http.Request) {
	hocID, err := strconv.Atoi(chi.URLParam(r, "hocID"))
	if err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "Invalid representative id")
		return
	}
	rep, repErr := repo.NewRepresentatives(s.DB).GetByHocID(r.Context(), hocID)
	if repErr != nil {
		s.internalError(w, repErr)
		return
	}
	if rep == nil {
		respondDetail(w, http.StatusNotFound, "Representative not found")
		return
	}
	respondJSON(w, http.StatusOK, newRepresentativeResponse(rep))
}

// ListRoles returns an MP's role history.
func (s *Server) ListRoles(w http.ResponseWriter, r *http.Request) {
	hocID, err := strconv.Atoi(chi.URLParam(r, "hocID"))
	if err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "Invalid representative id")
		return
	}
	limit, offset, ok := pagination(r)
	if !ok {
		respondDetail(w, http.StatusUnprocessableEntity, "Invalid pagination parameters")
		return
	}

	rep, err := repo.NewRepresentatives(s.DB).GetByHocID(r.Context(), hocID)
	if err != nil {
		s.internalError(w, err)
		return
	}
	if rep == nil {
		respondDetail(w, http.StatusNotFound, "Representative not found")
		return
	}

	roles := repo.NewRoles(s.DB)
	items, err := roles.ListByRepresentativeID(r.Context(), rep.ID, limit, offset)
	if err != nil {
		s.internalError(w, err)
		return
	}
	total, err := roles.CountByRepresentativeID(r.Context(), rep.ID)
	if err != nil {
		s.internalError(w, err)
		return
	}

	responses := make([]RoleResponse, 0, len(items))
	for _, role := range items {
		responses = append(responses, newRoleResponse(role))
	}
	respondJSON(w, http.StatusOK, ListResponse[RoleResponse]{
		Items: responses, Total: total, Limit: limit, Offset: offset,
	})
}

// ListRidings returns electoral districts with an optional province filter.
func (s *Server) ListRidings(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := pagination(r)
	if !ok {
		respondDetail(w, http.StatusUnprocessableEntity, "Invalid pagination parameters")
		return
	}
	province := queryStr(r, "province")

	ridings := repo.NewRidings(s.DB)
	items, err := ridings.List(r.Context(), province, limit, offset)
	if err != nil {
		s.internalError(w, err)
		return
	}
	total, err := ridings.Count(r.Context(), province)
	if err != nil {
		s.internalError(w, err)
		return
	}

	responses := make([]RidingResponse, 0, len(items))
	for i := range items {
		responses = append(responses, *newRidingResponse(&items[i]))
	}
	respondJSON(w, http.StatusOK, ListResponse[RidingResponse]{
		Items: responses, Total: total, Limit: limit, Offset: offset,
	})
}

// GetRiding returns one electoral district by id.
func (s *Server) GetRiding(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "Invalid riding id")
		return
	}
	riding, ridingErr := repo.NewRidings(s.DB).Get(r.Context(), uint(id))
	if ridingErr != nil {
		s.internalError(w, ridingErr)
		return
	}
	if riding == nil {
		respondDetail(w, http.StatusNotFound, "Riding not found")
		return
	}
	respondJSON(w, http.StatusOK, newRidingResponse(riding))
}

// ListParties returns the party roster.
func (s *Server) ListParties(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := pagination(r)
	if !ok {
		respondDetail(w, http.StatusUnprocessableEntity, "Invalid pagination parameters")
		return
	}

	parties := repo.NewParties(s.DB)
	items, err := parties.List(r.Context(), limit, offset)
	if err != nil {
		s.internalError(w, err)
		return
	}
	total, err := parties.Count(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}

	responses := make([]PartyResponse, 0, len(items))
	for i := range items {
		responses = append(responses, *newPartyResponse(&items[i]))
	}
	respondJSON(w, http.StatusOK, ListResponse[PartyResponse]{
		Items: responses, Total: total, Limit: limit, Offset: offset,
	})
}

// ListStandings returns seat-count snapshots, newest first.
func (s *Server) ListStandings(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := pagination(r)
	if !ok {
		respondDetail(w, http.StatusUnprocessableEntity, "Invalid pagination parameters")
		return
	}
	parliament, parlOK := queryInt(r, "parliament")
	session, sessOK := queryInt(r, "session")
	if !parlOK || !sessOK {
		respondDetail(w, http.StatusUnprocessableEntity, "Invalid session filters")
		return
	}

	standings := repo.NewStandings(s.DB)
	items, err := standings.ListLatest(r.Context(), parliament, session, limit, offset)
	if err != nil {
		s.internalError(w, err)
		return
	}
	total, err := standings.Count(r.Context(), parliament, session)
	if err != nil {
		s.internalError(w, err)
		return
	}

	responses := make([]StandingResponse, 0, len(items))
	for _, standing := range items {
		responses = append(responses, newStandingResponse(standing))
	}
	respondJSON(w, http.StatusOK, ListResponse[StandingResponse]{
		Items: responses, Total: total, Limit: limit, Offset: offset,
	})
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.Log.Error("request failed", "error", err.Error())
	respondDetail(w, http.StatusInternalServerError, "Internal server error")
}

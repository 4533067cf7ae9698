package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/BradleyExton/canpoli-api/internal/repo"
)

// ListBills returns bills, most recently active first.
func (s *Server) ListBills(w http.ResponseWriter, r *http.Request) {
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
	filters := repo.BillFilters{
		Parliament: parliament,
		Session:    session,
		Status:     queryStr(r, "status"),
	}

	bills := repo.NewBills(s.DB)
	items, err := bills.List(r.Context(), filters, limit, offset)
	if err != nil {
		s.internalError(w, err)
		return
	}
	total, err := bills.Count(r.Context(), filters)
	if err != nil {
		s.internalError(w, err)
		return
	}

	responses := make([]BillResponse, 0, len(items))
	for _, bill := range items {
		responses = append(responses, newBillResponse(bill))
	}
	respondJSON(w, http.StatusOK, ListResponse[BillResponse]{
		Items: responses, Total: total, Limit: limit, Offset: offset,
	})
}

// ListVotes returns vote summaries, newest first.
func (s *Server) ListVotes(w http.ResponseWriter, r *http.Request) {
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
	filters := repo.VoteFilters{
		Parliament: parliament,
		Session:    session,
		BillNumber: queryStr(r, "bill_number"),
		Decision:   queryStr(r, "decision"),
	}

	votes := repo.NewVotes(s.DB)
	items, err := votes.List(r.Context(), filters, limit, offset)
	if err != nil {
		s.internalError(w, err)
		return
	}
	total, err := votes.Count(r.Context(), filters)
	if err != nil {
		s.internalError(w, err)
		return
	}

	responses := make([]VoteResponse, 0, len(items))
	for _, vote := range items {
		responses = append(responses, newVoteResponse(vote))
	}
	respondJSON(w, http.StatusOK, ListResponse[VoteResponse]{
		Items: responses, Total: total, Limit: limit, Offset: offset,
	})
}

// GetVote returns a vote with its ballots.
func (s *Server) GetVote(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "Invalid vote id")
		return
	}
	vote, voteErr := repo.NewVotes(s.DB).GetWithMembers(r.Context(), uint(id))
	if voteErr != nil {
		s.internalError(w, voteErr)
		return
	}
	if vote == nil {
		respondDetail(w, http.StatusNotFound, "Vote not found")
		return
	}

	members := make([]VoteMemberResponse, 0, len(vote.Members))
	for _, member := range vote.Members {
		members = append(members, VoteMemberResponse{
			HocID:            member.HocID,
			RepresentativeID: member.RepresentativeID,
			MemberName:       member.MemberName,
			Position:         member.Position,
			PartyName:        member.PartyName,
			RidingName:       member.RidingName,
		})
	}
	respondJSON(w, http.StatusOK, VoteDetailResponse{
		VoteResponse: newVoteResponse(*vote),
		MotionText:   vote.MotionText,
		Members:      members,
	})
}

// ListPetitions returns petitions, most recently presented first.
func (s *Server) ListPetitions(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := pagination(r)
	if !ok {
		respondDetail(w, http.StatusUnprocessableEntity, "Invalid pagination parameters")
		return
	}
	sponsor, sponsorOK := queryInt(r, "sponsor_hoc_id")
	parliament, parlOK := queryInt(r, "parliament")
	session, sessOK := queryInt(r, "session")
	if !sponsorOK || !parlOK || !sessOK {
		respondDetail(w, http.StatusUnprocessableEntity, "Invalid petition filters")
		return
	}
	filters := repo.PetitionFilters{
		Status:       queryStr(r, "status"),
		SponsorHocID: sponsor,
		Parliament:   parliament,
		Session:      session,
	}

	petitions := repo.NewPetitions(s.DB)
	items, err := petitions.List(r.Context(), filters, limit, offset)
	if err != nil {
		s.internalError(w, err)
		return
	}
	total, err := petitions.Count(r.Context(), filters)
	if err != nil {
		s.internalError(w, err)
		return
	}

	responses := make([]PetitionResponse, 0, len(items))
	for _, petition := range items {
		responses = append(responses, newPetitionResponse(petition))
	}
	respondJSON(w, http.StatusOK, ListResponse[PetitionResponse]{
		Items: responses, Total: total, Limit: limit, Offset: offset,
	})
}

// ListDebates returns Hansard documents, newest first.
func (s *Server) ListDebates(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := pagination(r)
	if !ok {
		respondDetail(w, http.StatusUnprocessableEntity, "Invalid pagination parameters")
		return
	}
	parliament, parlOK := queryInt(r, "parliament")
	session, sessOK := queryInt(r, "session")
	sitting, sittingOK := queryInt(r, "sitting")
	if !parlOK || !sessOK || !sittingOK {
		respondDetail(w, http.StatusUnprocessableEntity, "Invalid debate filters")
		return
	}
	filters := repo.DebateFilters{
		Parliament: parliament,
		Session:    session,
		Sitting:    sitting,
		Language:   queryStr(r, "language"),
	}

	debates := repo.NewDebates(s.DB)
	items, err := debates.List(r.Context(), filters, limit, offset)
	if err != nil {
		s.internalError(w, err)
		return
	}
	total, err := debates.Count(r.Context(), filters)
	if err != nil {
		s.internalError(w, err)
		return
	}

	responses := make([]DebateResponse, 0, len(items))
	for _, debate := range items {
		responses = append(responses, newDebateResponse(debate))
	}
	respondJSON(w, http.StatusOK, ListResponse[DebateResponse]{
		Items: responses, Total: total, Limit: limit, Offset: offset,
	})
}

// GetDebate returns a debate with its interventions in sequence order.
func (s *Server) GetDebate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "Invalid debate id")
		return
	}
	debate, debateErr := repo.NewDebates(s.DB).GetWithInterventions(r.Context(), uint(id))
	if debateErr != nil {
		s.internalError(w, debateErr)
		return
	}
	if debate == nil {
		respondDetail(w, http.StatusNotFound, "Debate not found")
		return
	}

	interventions := make([]InterventionResponse, 0, len(debate.Interventions))
	for _, item := range debate.Interventions {
		interventions = append(interventions, InterventionResponse{
			Sequence:           item.Sequence,
			SpeakerName:        item.SpeakerName,
			SpeakerAffiliation: item.SpeakerAffiliation,
			FloorLanguage:      item.FloorLanguage,
			Timestamp:          item.Timestamp,
			OrderOfBusiness:    item.OrderOfBusiness,
			SubjectTitle:       item.SubjectTitle,
			InterventionType:   item.InterventionType,
			Text:               item.Text,
		})
	}
	respondJSON(w, http.StatusOK, DebateDetailResponse{
		DebateResponse: newDebateResponse(*debate),
		Interventions:  interventions,
	})
}

// ListMemberExpenditures returns member disclosure rows.
func (s *Server) ListMemberExpenditures(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := pagination(r)
	if !ok {
		respondDetail(w, http.StatusUnprocessableEntity, "Invalid pagination parameters")
		return
	}
	hocID, hocOK := queryInt(r, "hoc_id")
	if !hocOK {
		respondDetail(w, http.StatusUnprocessableEntity, "Invalid expenditure filters")
		return
	}
	filters := repo.MemberFilters{
		FiscalYear: queryStr(r, "fiscal_year"),
		Category:   queryStr(r, "category"),
		HocID:      hocID,
	}

	expenditures := repo.NewExpenditures(s.DB)
	items, err := expenditures.ListMembers(r.Context(), filters, limit, offset)
	if err != nil {
		s.internalError(w, err)
		return
	}
	total, err := expenditures.CountMembers(r.Context(), filters)
	if err != nil {
		s.internalError(w, err)
		return
	}

	responses := make([]MemberExpenditureResponse, 0, len(items))
	for _, row := range items {
		responses = append(responses, MemberExpenditureResponse{
			ID:          row.ID,
			MemberName:  row.MemberName,
			HocID:       row.HocID,
			Category:    row.Category,
			Amount:      row.Amount,
			PeriodStart: row.PeriodStart,
			PeriodEnd:   row.PeriodEnd,
			FiscalYear:  row.FiscalYear,
		})
	}
	respondJSON(w, http.StatusOK, ListResponse[MemberExpenditureResponse]{
		Items: responses, Total: total, Limit: limit, Offset: offset,
	})
}

// ListOfficerExpenditures returns house-officer disclosure rows.
func (s *Server) ListOfficerExpenditures(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := pagination(r)
	if !ok {
		respondDetail(w, http.StatusUnprocessableEntity, "Invalid pagination parameters")
		return
	}
	filters := repo.OfficerFilters{
		FiscalYear: queryStr(r, "fiscal_year"),
		Category:   queryStr(r, "category"),
	}

	expenditures := repo.NewExpenditures(s.DB)
	items, err := expenditures.ListOfficers(r.Context(), filters, limit, offset)
	if err != nil {
		s.internalError(w, err)
		return
	}
	total, err := expenditures.CountOfficers(r.Context(), filters)
	if err != nil {
		s.internalError(w, err)
		return
	}

	responses := make([]OfficerExpenditureResponse, 0, len(items))
	for _, row := range items {
		responses = append(responses, OfficerExpenditureResponse{
			ID:          row.ID,
			OfficerName: row.OfficerName,
			RoleTitle:   row.RoleTitle,
			Category:    row.Category,
			Amount:      row.Amount,
			PeriodStart: row.PeriodStart,
			PeriodEnd:   row.PeriodEnd,
			FiscalYear:  row.FiscalYear,
		})
	}
	respondJSON(w, http.StatusOK, ListResponse[OfficerExpenditureResponse]{
		Items: responses, Total: total, Limit: limit, Offset: offset,
	})
}

package server

import (
	"time"

	"github.com/BradleyExton/canpoli-api/internal/models"
)

// ListResponse is the uniform paginated envelope for data endpoints.
type ListResponse[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// PartyResponse renders a party.
type PartyResponse struct {
	ID        uint    `json:"id"`
	Name      string  `json:"name"`
	ShortName *string `json:"short_name"`
	Color     *string `json:"color"`
}

func newPartyResponse(party *models.Party) *PartyResponse {
	if party == nil {
		return nil
	}
	return &PartyResponse{ID: party.ID, Name: party.Name, ShortName: party.ShortName, Color: party.Color}
}

// RidingResponse renders an electoral district.
type RidingResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Province  string `json:"province"`
	FedNumber *int   `json:"fed_number"`
}

func newRidingResponse(riding *models.Riding) *RidingResponse {
	if riding == nil {
		return nil
	}
	return &RidingResponse{ID: riding.ID, Name: riding.Name, Province: riding.Province, FedNumber: riding.FedNumber}
}

// RepresentativeResponse renders an MP with party and riding context.
type RepresentativeResponse struct {
	ID         uint            `json:"id"`
	HocID      int             `json:"hoc_id"`
	Name       string          `json:"name"`
	FirstName  *string         `json:"first_name"`
	LastName   *string         `json:"last_name"`
	Honorific  *string         `json:"honorific"`
	Email      *string         `json:"email"`
	Phone      *string         `json:"phone"`
	PhotoURL   *string         `json:"photo_url"`
	ProfileURL *string         `json:"profile_url"`
	IsActive   bool            `json:"is_active"`
	Party      *PartyResponse  `json:"party"`
	Riding     *RidingResponse `json:"riding"`
}

func newRepresentativeResponse(rep *models.Representative) RepresentativeResponse {
	return RepresentativeResponse{
		ID:         rep.ID,
		HocID:      rep.HocID,
		Name:       rep.Name,
		FirstName:  rep.FirstName,
		LastName:   rep.LastName,
		Honorific:  rep.Honorific,
		Email:      rep.Email,
		Phone:      rep.Phone,
		PhotoURL:   rep.PhotoURL,
		ProfileURL: rep.ProfileURL,
		IsActive:   rep.IsActive,
		Party:      newPartyResponse(rep.Party),
		Riding:     newRidingResponse(rep.Riding),
	}
}

// RoleResponse renders one role history entry.
type RoleResponse struct {
	ID           uint       `json:"id"`
	RoleName     string     `json:"role_name"`
	RoleType     string     `json:"role_type"`
	Organization *string    `json:"organization"`
	Parliament   *int       `json:"parliament"`
	Session      *int       `json:"session"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
	IsCurrent    bool       `json:"is_current"`
}

func newRoleResponse(role models.RepresentativeRole) RoleResponse {
	return RoleResponse{
		ID:           role.ID,
		RoleName:     role.RoleName,
		RoleType:     role.RoleType,
		Organization: role.Organization,
		Parliament:   role.Parliament,
		Session:      role.Session,
		StartDate:    role.StartDate,
		EndDate:      role.EndDate,
		IsCurrent:    role.IsCurrent,
	}
}

// StandingResponse renders a seat-count snapshot.
type StandingResponse struct {
	ID         uint       `json:"id"`
	PartyName  string     `json:"party_name"`
	PartyID    *uint      `json:"party_id"`
	SeatCount  int        `json:"seat_count"`
	Parliament *int       `json:"parliament"`
	Session    *int       `json:"session"`
	AsOfDate   *time.Time `json:"as_of_date"`
}

func newStandingResponse(standing models.PartyStanding) StandingResponse {
	return StandingResponse{
		ID:         standing.ID,
		PartyName:  standing.PartyName,
		PartyID:    standing.PartyID,
		SeatCount:  standing.SeatCount,
		Parliament: standing.Parliament,
		Session:    standing.Session,
		AsOfDate:   standing.AsOfDate,
	}
}

// BillResponse renders a bill.
type BillResponse struct {
	ID                 uint       `json:"id"`
	BillNumber         string     `json:"bill_number"`
	LegisinfoID        *int       `json:"legisinfo_id"`
	TitleEn            *string    `json:"title_en"`
	TitleFr            *string    `json:"title_fr"`
	Status             *string    `json:"status"`
	Parliament         *int       `json:"parliament"`
	Session            *int       `json:"session"`
	IntroducedDate     *time.Time `json:"introduced_date"`
	LatestActivityDate *time.Time `json:"latest_activity_date"`
	SponsorName        *string    `json:"sponsor_name"`
}

func newBillResponse(bill models.Bill) BillResponse {
	return BillResponse{
		ID:                 bill.ID,
		BillNumber:         bill.BillNumber,
		LegisinfoID:        bill.LegisinfoID,
		TitleEn:            bill.TitleEn,
		TitleFr:            bill.TitleFr,
		Status:             bill.Status,
		Parliament:         bill.Parliament,
		Session:            bill.Session,
		IntroducedDate:     bill.IntroducedDate,
		LatestActivityDate: bill.LatestActivityDate,
		SponsorName:        bill.SponsorName,
	}
}

// VoteResponse renders a vote summary.
type VoteResponse struct {
	ID         uint       `json:"id"`
	VoteNumber int        `json:"vote_number"`
	Parliament *int       `json:"parliament"`
	Session    *int       `json:"session"`
	VoteDate   *time.Time `json:"vote_date"`
	SubjectEn  *string    `json:"subject_en"`
	Decision   *string    `json:"decision"`
	Yeas       *int       `json:"yeas"`
	Nays       *int       `json:"nays"`
	Paired     *int       `json:"paired"`
	BillNumber *string    `json:"bill_number"`
	Sitting    *int       `json:"sitting"`
}

func newVoteResponse(vote models.Vote) VoteResponse {
	return VoteResponse{
		ID:         vote.ID,
		VoteNumber: vote.VoteNumber,
		Parliament: vote.Parliament,
		Session:    vote.Session,
		VoteDate:   vote.VoteDate,
		SubjectEn:  vote.SubjectEn,
		Decision:   vote.Decision,
		Yeas:       vote.Yeas,
		Nays:       vote.Nays,
		Paired:     vote.Paired,
		BillNumber: vote.BillNumber,
		Sitting:    vote.Sitting,
	}
}

// VoteMemberResponse renders one ballot.
type VoteMemberResponse struct {
	HocID            *int    `json:"hoc_id"`
	RepresentativeID *uint   `json:"representative_id"`
	MemberName       string  `json:"member_name"`
	Position         string  `json:"position"`
	PartyName        *string `json:"party_name"`
	RidingName       *string `json:"riding_name"`
}

// VoteDetailResponse renders a vote with its ballots.
type VoteDetailResponse struct {
	VoteResponse
	MotionText *string              `json:"motion_text"`
	Members    []VoteMemberResponse `json:"members"`
}

// PetitionResponse renders a petition.
type PetitionResponse struct {
	ID               uint       `json:"id"`
	PetitionNumber   string     `json:"petition_number"`
	TitleEn          *string    `json:"title_en"`
	Status           *string    `json:"status"`
	PresentationDate *time.Time `json:"presentation_date"`
	ClosingDate      *time.Time `json:"closing_date"`
	Signatures       *int       `json:"signatures"`
	SponsorHocID     *int       `json:"sponsor_hoc_id"`
	SponsorName      *string    `json:"sponsor_name"`
	Parliament       *int       `json:"parliament"`
	Session          *int       `json:"session"`
}

func newPetitionResponse(petition models.Petition) PetitionResponse {
	return PetitionResponse{
		ID:               petition.ID,
		PetitionNumber:   petition.PetitionNumber,
		TitleEn:          petition.TitleEn,
		Status:           petition.Status,
		PresentationDate: petition.PresentationDate,
		ClosingDate:      petition.ClosingDate,
		Signatures:       petition.Signatures,
		SponsorHocID:     petition.SponsorHocID,
		SponsorName:      petition.SponsorName,
		Parliament:       petition.Parliament,
		Session:          petition.Session,
	}
}

// DebateResponse renders a Hansard document summary.
type DebateResponse struct {
	ID          uint       `json:"id"`
	Parliament  *int       `json:"parliament"`
	Session     *int       `json:"session"`
	Sitting     *int       `json:"sitting"`
	DebateDate  *time.Time `json:"debate_date"`
	Language    *string    `json:"language"`
	Volume      *string    `json:"volume"`
	Number      *string    `json:"number"`
	SpeakerName *string    `json:"speaker_name"`
}

func newDebateResponse(debate models.Debate) DebateResponse {
	return DebateResponse{
		ID:          debate.ID,
		Parliament:  debate.Parliament,
		Session:     debate.Session,
		Sitting:     debate.Sitting,
		DebateDate:  debate.DebateDate,
		Language:    debate.Language,
		Volume:      debate.Volume,
		Number:      debate.Number,
		SpeakerName: debate.SpeakerName,
	}
}

// InterventionResponse renders one speech.
type InterventionResponse struct {
	Sequence           int     `json:"sequence"`
	SpeakerName        *string `json:"speaker_name"`
	SpeakerAffiliation *string `json:"speaker_affiliation"`
	FloorLanguage      *string `json:"floor_language"`
	Timestamp          *string `json:"timestamp"`
	OrderOfBusiness    *string `json:"order_of_business"`
	SubjectTitle       *string `json:"subject_title"`
	InterventionType   *string `json:"intervention_type"`
	Text               *string `json:"text"`
}

// DebateDetailResponse renders a debate with interventions.
type DebateDetailResponse struct {
	DebateResponse
	Interventions []InterventionResponse `json:"interventions"`
}

// MemberExpenditureResponse renders one member spending row.
type MemberExpenditureResponse struct {
	ID          uint       `json:"id"`
	MemberName  string     `json:"member_name"`
	HocID       *int       `json:"hoc_id"`
	Category    string     `json:"category"`
	Amount      float64    `json:"amount"`
	PeriodStart *time.Time `json:"period_start"`
	PeriodEnd   *time.Time `json:"period_end"`
	FiscalYear  *string    `json:"fiscal_year"`
}

// OfficerExpenditureResponse renders one officer spending row.
type OfficerExpenditureResponse struct {
	ID          uint       `json:"id"`
	OfficerName string     `json:"officer_name"`
	RoleTitle   *string    `json:"role_title"`
	Category    string     `json:"category"`
	Amount      float64    `json:"amount"`
	PeriodStart *time.Time `json:"period_start"`
	PeriodEnd   *time.Time `json:"period_end"`
	FiscalYear  *string    `json:"fiscal_year"`
}

// ApiKeyResponse renders the account's key, with a one-shot plaintext
// reveal when available.
type ApiKeyResponse struct {
	ApiKey     *string    `json:"api_key"`
	KeyPrefix  string     `json:"key_prefix"`
	MaskedKey  string     `json:"masked_key"`
	Active     bool       `json:"active"`
	CreatedAt  time.Time  `json:"created_at"`
	RevokedAt  *time.Time `json:"revoked_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
}

// ApiKeyRotateResponse carries the fresh plaintext after rotation.
type ApiKeyRotateResponse struct {
	ApiKey    string    `json:"api_key"`
	KeyPrefix string    `json:"key_prefix"`
	CreatedAt time.Time `json:"created_at"`
}

// UsageResponse reports metered calls for the current billing period.
type UsageResponse struct {
	UsageCount     int64      `json:"usage_count"`
	PeriodStart    *time.Time `json:"period_start"`
	PeriodEnd      *time.Time `json:"period_end"`
	LimitPerMinute int        `json:"limit_per_minute"`
}

// SessionURLResponse carries a provider-hosted redirect URL.
type SessionURLResponse struct {
	URL string `json:"url"`
}

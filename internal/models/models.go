package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role types attached to a representative.
const (
	RoleTypeCaucus                = "caucus"
	RoleTypeParliamentaryPosition = "parliamentary_position"
	RoleTypeCommittee             = "committee"
	RoleTypeAssociation           = "association"
)

// Subscription statuses treated as active.
const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusTrialing = "trialing"
)

// SubscriptionActive reports whether a billing status grants paid access.
func SubscriptionActive(status string) bool {
	return status == SubscriptionStatusActive || status == SubscriptionStatusTrialing
}

// User is created on first successful bearer authentication.
type User struct {
	ID           string `gorm:"type:varchar(36);primaryKey"`
	AuthProvider string `gorm:"size:32;not null"`
	AuthUserID   string `gorm:"size:191;uniqueIndex;not null"`
	Email        *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// BeforeCreate assigns a UUID primary key when none is set.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Billing mirrors the provider subscription state, 1:1 with a user.
type Billing struct {
	UserID               string `gorm:"type:varchar(36);primaryKey"`
	StripeCustomerID     *string `gorm:"size:128;index"`
	StripeSubscriptionID *string `gorm:"size:128"`
	Status               *string `gorm:"size:32"`
	PriceID              *string `gorm:"size:128"`
	CurrentPeriodStart   *time.Time
	CurrentPeriodEnd     *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// ApiKey stores the HMAC hash of an issued key, never the plaintext.
type ApiKey struct {
	ID         string `gorm:"type:varchar(36);primaryKey"`
	UserID     string `gorm:"type:varchar(36);index;not null"`
	KeyPrefix  string `gorm:"size:24;not null"`
	KeyHash    string `gorm:"size:64;uniqueIndex;not null"`
	Active     bool   `gorm:"not null;default:false"`
	RevokedAt  *time.Time
	LastUsedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// BeforeCreate assigns a UUID primary key when none is set.
func (k *ApiKey) BeforeCreate(tx *gorm.DB) error {
	if k.ID == "" {
		k.ID = uuid.NewString()
	}
	return nil
}

// Party is a political party sitting in the House.
type Party struct {
	ID        uint    `gorm:"primaryKey"`
	Name      string  `gorm:"size:100;uniqueIndex;not null"`
	ShortName *string `gorm:"size:20"`
	Color     *string `gorm:"size:7"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Representatives []Representative
}

// Riding is a federal electoral district. Geometry is a PostGIS
// multipolygon; it degrades to an opaque blob on sqlite test databases.
type Riding struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:200;index;index:ix_ridings_name_province,priority:1;not null"`
	Province  string `gorm:"size:50;index;index:ix_ridings_name_province,priority:2;not null"`
	FedNumber *int
	Geom      []byte
	CreatedAt time.Time
	UpdatedAt time.Time

	Representatives []Representative
}

// Representative is an elected member of the House of Commons.
type Representative struct {
	ID         uint    `gorm:"primaryKey"`
	HocID      int     `gorm:"uniqueIndex;not null"`
	FirstName  *string `gorm:"size:100"`
	LastName   *string `gorm:"size:100"`
	Name       string  `gorm:"size:200;index;not null"`
	Honorific  *string `gorm:"size:50"`
	Email      *string `gorm:"size:200"`
	Phone      *string `gorm:"size:50"`
	PhotoURL   *string `gorm:"size:500"`
	ProfileURL *string `gorm:"size:500"`
	IsActive   bool    `gorm:"index;default:true"`
	PartyID    *uint   `gorm:"index"`
	RidingID   *uint   `gorm:"index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Party  *Party
	Riding *Riding
	Roles  []RepresentativeRole
}

// RepresentativeRole is fully replaced on each roles ingestion.
type RepresentativeRole struct {
	ID               uint    `gorm:"primaryKey"`
	RepresentativeID uint    `gorm:"index;not null"`
	RoleName         string  `gorm:"size:200;not null"`
	RoleType         string  `gorm:"size:50;not null"`
	Organization     *string `gorm:"size:200"`
	Parliament       *int
	Session          *int
	StartDate        *time.Time
	EndDate          *time.Time
	IsCurrent        bool `gorm:"index;default:true"`
	SourceURL        *string `gorm:"size:500"`
	SourceHash       *string `gorm:"size:64"`
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Representative *Representative
}

// PartyStanding is a seat-count snapshot keyed by party, session, and date.
type PartyStanding struct {
	ID         uint   `gorm:"primaryKey"`
	PartyID    *uint
	PartyName  string `gorm:"size:100;index;not null"`
	SeatCount  int    `gorm:"not null"`
	AsOfDate   *time.Time
	Parliament *int `gorm:"index:ix_party_standings_parl_session,priority:1"`
	Session    *int `gorm:"index:ix_party_standings_parl_session,priority:2"`
	SourceURL  *string `gorm:"size:500"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Party *Party
}

// Bill is a LEGISinfo bill keyed by (bill_number, parliament, session).
type Bill struct {
	ID                 uint    `gorm:"primaryKey"`
	LegisinfoID        *int
	BillNumber         string  `gorm:"size:20;index;not null"`
	TitleEn            *string `gorm:"size:500"`
	TitleFr            *string `gorm:"size:500"`
	Status             *string `gorm:"size:200"`
	Parliament         *int    `gorm:"index:ix_bills_parl_session,priority:1"`
	Session            *int    `gorm:"index:ix_bills_parl_session,priority:2"`
	IntroducedDate     *time.Time
	LatestActivityDate *time.Time `gorm:"index"`
	SponsorHocID       *int
	SponsorName        *string `gorm:"size:200"`
	SponsorParty       *string `gorm:"size:100"`
	SummaryEn          *string `gorm:"type:text"`
	SummaryFr          *string `gorm:"type:text"`
	SourceURL          *string `gorm:"size:500"`
	SourceHash         *string `gorm:"size:64"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Vote is a recorded division, keyed by (vote_number, parliament, session).
type Vote struct {
	ID         uint `gorm:"primaryKey"`
	VoteNumber int  `gorm:"index:ix_votes_number_parl_session,priority:1;not null"`
	Parliament *int `gorm:"index:ix_votes_number_parl_session,priority:2"`
	Session    *int `gorm:"index:ix_votes_number_parl_session,priority:3"`
	VoteDate   *time.Time `gorm:"index"`
	SubjectEn  *string    `gorm:"type:text"`
	SubjectFr  *string    `gorm:"type:text"`
	Decision   *string    `gorm:"size:100"`
	Yeas       *int
	Nays       *int
	Paired     *int
	BillNumber *string `gorm:"size:20;index"`
	MotionText *string `gorm:"type:text"`
	Sitting    *int
	SourceURL  *string `gorm:"size:500"`
	SourceHash *string `gorm:"size:64"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Members []VoteMember
}

// VoteMember is one member's position on a vote, replaced on re-ingest.
type VoteMember struct {
	ID               uint  `gorm:"primaryKey"`
	VoteID           uint  `gorm:"index;not null"`
	RepresentativeID *uint
	HocID            *int
	MemberName       string  `gorm:"size:200;not null"`
	Position         string  `gorm:"size:20;not null"`
	PartyName        *string `gorm:"size:100"`
	RidingName       *string `gorm:"size:200"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Petition is keyed by its petition number.
type Petition struct {
	ID               uint   `gorm:"primaryKey"`
	PetitionNumber   string `gorm:"size:50;index;not null"`
	TitleEn          *string `gorm:"type:text"`
	TitleFr          *string `gorm:"type:text"`
	Status           *string `gorm:"size:200"`
	PresentationDate *time.Time `gorm:"index"`
	ClosingDate      *time.Time
	Signatures       *int
	SponsorHocID     *int
	SponsorName      *string `gorm:"size:200"`
	Parliament       *int
	Session          *int
	SourceURL        *string `gorm:"size:500"`
	SourceHash       *string `gorm:"size:64"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Debate is Hansard metadata for one sitting in one language.
type Debate struct {
	ID          uint `gorm:"primaryKey"`
	Parliament  *int `gorm:"index:ix_debates_parl_session,priority:1"`
	Session     *int `gorm:"index:ix_debates_parl_session,priority:2"`
	Sitting     *int `gorm:"index"`
	DebateDate  *time.Time `gorm:"index"`
	Language    *string    `gorm:"size:2"`
	Volume      *string    `gorm:"size:50"`
	Number      *string    `gorm:"size:50"`
	SpeakerName *string    `gorm:"size:200"`
	DocumentURL *string    `gorm:"size:500"`
	SourceHash  *string    `gorm:"size:64"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Interventions []DebateIntervention
}

// DebateIntervention is one speech within a debate, sequenced in document
// order and replaced wholesale on re-ingest.
type DebateIntervention struct {
	ID                 uint `gorm:"primaryKey"`
	DebateID           uint `gorm:"index;not null"`
	Sequence           int  `gorm:"index;not null"`
	SpeakerName        *string `gorm:"size:200"`
	SpeakerAffiliation *string `gorm:"size:300"`
	FloorLanguage      *string `gorm:"size:2"`
	Timestamp          *string `gorm:"size:5"`
	OrderOfBusiness    *string `gorm:"size:200"`
	SubjectTitle       *string `gorm:"size:500"`
	InterventionType   *string `gorm:"size:50"`
	Text               *string `gorm:"type:text"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// MemberExpenditure is one (member, category) amount within a period.
type MemberExpenditure struct {
	ID               uint `gorm:"primaryKey"`
	RepresentativeID *uint `gorm:"index"`
	HocID            *int
	MemberName       string  `gorm:"size:200;not null"`
	Category         string  `gorm:"size:50;not null"`
	Amount           float64 `gorm:"type:numeric(14,2);not null"`
	PeriodStart      *time.Time `gorm:"index:ix_member_expenditures_period,priority:1"`
	PeriodEnd        *time.Time `gorm:"index:ix_member_expenditures_period,priority:2"`
	FiscalYear       *string    `gorm:"size:9;index"`
	SourceURL        *string    `gorm:"size:500"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HouseOfficerExpenditure is one (officer, category) amount within a period.
type HouseOfficerExpenditure struct {
	ID          uint    `gorm:"primaryKey"`
	OfficerName string  `gorm:"size:200;not null"`
	RoleTitle   *string `gorm:"size:200"`
	Category    string  `gorm:"size:50;not null"`
	Amount      float64 `gorm:"type:numeric(14,2);not null"`
	PeriodStart *time.Time `gorm:"index:ix_house_officer_expenditures_period,priority:1"`
	PeriodEnd   *time.Time `gorm:"index:ix_house_officer_expenditures_period,priority:2"`
	FiscalYear  *string    `gorm:"size:9;index"`
	SourceURL   *string    `gorm:"size:500"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AutoMigrate creates or updates the schema for every platform entity.
// Production deployments run SQL migrations instead; this keeps test
// databases and development setups in sync with the models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Billing{},
		&ApiKey{},
		&Party{},
		&Riding{},
		&Representative{},
		&RepresentativeRole{},
		&PartyStanding{},
		&Bill{},
		&Vote{},
		&VoteMember{},
		&Petition{},
		&Debate{},
		&DebateIntervention{},
		&MemberExpenditure{},
		&HouseOfficerExpenditure{},
	)
}

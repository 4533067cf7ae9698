package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/BradleyExton/canpoli-api/internal/config"
	"github.com/BradleyExton/canpoli-api/internal/httpclient"
	"github.com/BradleyExton/canpoli-api/internal/models"
	"github.com/BradleyExton/canpoli-api/internal/repo"
)

// fakeTransport serves canned bodies keyed by full request URL; anything
// else is a 404.
type fakeTransport struct {
	mu        sync.Mutex
	responses map[string]string
	hits      map[string]int
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	url := req.URL.String()
	f.mu.Lock()
	if f.hits != nil {
		f.hits[url]++
	}
	f.mu.Unlock()
	body, ok := f.responses[url]
	status := http.StatusOK
	if !ok {
		status = http.StatusNotFound
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		Environment:          config.EnvTest,
		HoCParliament:        45,
		HoCSession:           1,
		HoCMaxConcurrency:    4,
		HoCDebatesMaxSitting: 2,
		HoCDebatesLookahead:  2,
		HoCDebatesMaxMissing: 1,
		HoCDebateLanguages:   []string{"en"},

		HoCEnableMembers:        true,
		HoCEnableRoles:          true,
		HoCEnablePartyStandings: true,
		HoCEnableVotes:          true,
		HoCEnablePetitions:      true,
		HoCEnableDebates:        true,
		HoCEnableExpenditures:   true,
		HoCEnableBills:          true,
	}
}

func newTestService(t *testing.T, db *gorm.DB, responses map[string]string) (*Service, *fakeTransport) {
	t.Helper()
	transport := &fakeTransport{responses: responses, hits: make(map[string]int)}
	pool := httpclient.New(httpclient.Config{Transport: transport, MaxConcurrency: 4})
	return New(db, pool, testConfig(), nil), transport
}

const membersFixture = `<?xml version="1.0"?>
<ArrayOfMemberOfParliament>
  <MemberOfParliament>
    <PersonId>25446</PersonId>
    <PersonOfficialFirstName>Ziad</PersonOfficialFirstName>
    <PersonOfficialLastName>Aboultaif</PersonOfficialLastName>
    <ConstituencyName>Edmonton Manning</ConstituencyName>
    <ConstituencyProvinceTerritoryName>Alberta</ConstituencyProvinceTerritoryName>
    <CaucusShortName>Conservative</CaucusShortName>
  </MemberOfParliament>
  <MemberOfParliament>
    <PersonId>105123</PersonId>
    <PersonOfficialFirstName>Anita</PersonOfficialFirstName>
    <PersonOfficialLastName>Anand</PersonOfficialLastName>
    <ConstituencyName>Oakville East</ConstituencyName>
    <ConstituencyProvinceTerritoryName>Ontario</ConstituencyProvinceTerritoryName>
    <CaucusShortName>Liberal</CaucusShortName>
  </MemberOfParliament>
</ArrayOfMemberOfParliament>`

func TestIngestMembers(t *testing.T) {
	db := setupTestDB(t)
	service, _ := newTestService(t, db, map[string]string{
		"https://www.ourcommons.ca/Members/en/search/XML": membersFixture,
	})

	stats, err := service.IngestMembers(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, stats["created"])
	require.Equal(t, 0, stats["updated"])

	rep, err := repo.NewRepresentatives(db).GetByHocID(context.Background(), 25446)
	require.NoError(t, err)
	require.NotNil(t, rep)
	require.Equal(t, "Ziad Aboultaif", rep.Name)
	require.NotNil(t, rep.Party)
	require.Equal(t, "Conservative", rep.Party.Name)
	require.Equal(t, "CPC", *rep.Party.ShortName)
	require.NotNil(t, rep.Riding)
	require.Equal(t, "Alberta", rep.Riding.Province)

	// A second run is all updates, no duplicates.
	stats, err = service.IngestMembers(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, stats["created"])
	require.Equal(t, 2, stats["updated"])

	var total int64
	require.NoError(t, db.Model(&models.Representative{}).Count(&total).Error)
	require.EqualValues(t, 2, total)
}

const standingsFixture = `<?xml version="1.0"?>
<List>
  <PartyStanding><CaucusShortName>Liberal</CaucusShortName><SeatCount>169</SeatCount></PartyStanding>
  <PartyStanding><CaucusShortName>Vacant</CaucusShortName><SeatCount>2</SeatCount></PartyStanding>
</List>`

func TestIngestPartyStandingsSameDayUpdatesInPlace(t *testing.T) {
	db := setupTestDB(t)
	service, _ := newTestService(t, db, map[string]string{
		"https://www.ourcommons.ca/Members/en/party-standings/XML": standingsFixture,
	})
	day := time.Date(2026, 2, 1, 15, 0, 0, 0, time.UTC)
	service.today = func() time.Time { return day }

	stats, err := service.IngestPartyStandings(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, stats["created"])

	stats, err = service.IngestPartyStandings(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, stats["created"])
	require.Equal(t, 2, stats["updated"])

	var total int64
	require.NoError(t, db.Model(&models.PartyStanding{}).Count(&total).Error)
	require.EqualValues(t, 2, total)

	// The next day accumulates fresh rows.
	service.today = func() time.Time { return day.AddDate(0, 0, 1) }
	stats, err = service.IngestPartyStandings(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, stats["created"])

	require.NoError(t, db.Model(&models.PartyStanding{}).Count(&total).Error)
	require.EqualValues(t, 4, total)

	// Vacant is never linked to a party.
	var vacant models.PartyStanding
	require.NoError(t, db.Where("party_name = ?", "Vacant").First(&vacant).Error)
	require.Nil(t, vacant.PartyID)
}

const rolesFixture = `<?xml version="1.0"?>
<Profile>
  <CaucusMemberRoles>
    <CaucusMemberRole>
      <CaucusShortName>Conservative</CaucusShortName>
      <ParliamentNumber>45</ParliamentNumber>
      <SessionNumber>1</SessionNumber>
      <FromDateTime>2025-05-26T00:00:00</FromDateTime>
      <ToDateTime></ToDateTime>
    </CaucusMemberRole>
  </CaucusMemberRoles>
</Profile>`

func TestIngestRolesReplacesSet(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	reps := repo.NewRepresentatives(db)
	rep, err := reps.UpsertByHocID(ctx, 25446, repo.RepresentativeFields{Name: "Ziad Aboultaif", IsActive: true})
	require.NoError(t, err)

	// A stale role that must disappear after the refresh.
	require.NoError(t, repo.NewRoles(db).Create(ctx, &models.RepresentativeRole{
		RepresentativeID: rep.ID,
		RoleName:         "Stale",
		RoleType:         models.RoleTypeCommittee,
	}))

	service, _ := newTestService(t, db, map[string]string{
		"https://www.ourcommons.ca/members/en/25446/xml": rolesFixture,
	})

	stats, err := service.IngestRoles(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats["representatives"])
	require.Equal(t, 1, stats["roles"])
	require.Equal(t, 0, stats["errors"])

	roles, err := repo.NewRoles(db).ListByRepresentativeID(ctx, rep.ID, 100, 0)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	require.Equal(t, "Conservative", roles[0].RoleName)
	require.Equal(t, models.RoleTypeCaucus, roles[0].RoleType)
}

func TestIngestRolesCountsFailures(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := repo.NewRepresentatives(db).UpsertByHocID(ctx, 999, repo.RepresentativeFields{Name: "Gone", IsActive: true})
	require.NoError(t, err)

	service, _ := newTestService(t, db, map[string]string{})
	stats, err := service.IngestRoles(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats["errors"])
	require.Equal(t, 0, stats["roles"])
}

const votesListFixture = `<html><body><table id="global-votes"><tbody>
<tr>
  <td><a href="/members/en/votes/45/1/12">12</a></td>
  <td></td>
  <td>2nd reading of Bill C-5</td>
  <td>324 / 1 / 0</td>
  <td>Agreed To</td>
  <td>2025-06-16</td>
</tr>
</tbody></table></body></html>`

const voteDetailFixture = `<html><body>
<div class="mip-vote-title-section"><p>Sitting No. 21</p></div>
<div id="mip-vote-desc">2nd reading of Bill C-5</div>
<div class="ce-mip-mp-vote-panel-body"><table><tbody>
<tr>
  <td><a href="/members/en/ziad-aboultaif/25446">Ziad Aboultaif</a> (Edmonton Manning)</td>
  <td>Conservative</td>
  <td>Yea</td>
  <td></td>
</tr>
</tbody></table></div>
</body></html>`

func TestIngestVotesHashShortCircuit(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := repo.NewRepresentatives(db).UpsertByHocID(ctx, 25446, repo.RepresentativeFields{Name: "Ziad Aboultaif", IsActive: true})
	require.NoError(t, err)

	service, _ := newTestService(t, db, map[string]string{
		"https://www.ourcommons.ca/members/en/votes?parl=45&session=1": votesListFixture,
		"https://www.ourcommons.ca/members/en/votes/45/1/12":           voteDetailFixture,
	})

	stats, err := service.IngestVotes(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats["votes"])
	require.Equal(t, 1, stats["members"])
	require.Equal(t, 0, stats["errors"])

	vote, err := repo.NewVotes(db).GetByNaturalKey(ctx, 12, intPtr(45), intPtr(1))
	require.NoError(t, err)
	require.NotNil(t, vote)
	require.Equal(t, 21, *vote.Sitting)

	loaded, err := repo.NewVotes(db).GetWithMembers(ctx, vote.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Members, 1)
	require.NotNil(t, loaded.Members[0].RepresentativeID)

	// An identical upstream payload skips the write entirely.
	stats, err = service.IngestVotes(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, stats["votes"])
	require.Equal(t, 0, stats["members"])

	var total int64
	require.NoError(t, db.Model(&models.VoteMember{}).Count(&total).Error)
	require.EqualValues(t, 1, total)
}

const hansardFixture = `<?xml version="1.0"?>
<Hansard>
  <ExtractedInformation>
    <ExtractedItem Name="ParliamentNumber">45</ExtractedItem>
    <ExtractedItem Name="SessionNumber">1</ExtractedItem>
    <ExtractedItem Name="Date">Monday, June 16, 2025</ExtractedItem>
    <ExtractedItem Name="Volume">152</ExtractedItem>
  </ExtractedInformation>
  <HansardBody>
    <OrderOfBusinessTitle>Government Orders</OrderOfBusinessTitle>
    <Intervention Type="Debate">
      <PersonSpeaking><Affiliation>Hon. Anita Anand (Oakville East, Lib.)</Affiliation></PersonSpeaking>
      <Content><ParaText>First speech.</ParaText></Content>
    </Intervention>
    <Intervention Type="Question">
      <PersonSpeaking><Affiliation>Mr. Ziad Aboultaif (Edmonton Manning, CPC)</Affiliation></PersonSpeaking>
      <Content><ParaText>Second speech.</ParaText></Content>
    </Intervention>
  </HansardBody>
</Hansard>`

func TestIngestDebates(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	service, transport := newTestService(t, db, map[string]string{
		"https://www.ourcommons.ca/Content/House/451/Debates/1/HAN1-E.XML": hansardFixture,
	})

	stats, err := service.IngestDebates(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats["debates"])
	require.Equal(t, 2, stats["interventions"])

	lang := "en"
	debate, err := repo.NewDebates(db).GetByNaturalKey(ctx, intPtr(45), intPtr(1), intPtr(1), &lang)
	require.NoError(t, err)
	require.NotNil(t, debate)

	loaded, err := repo.NewDebates(db).GetWithInterventions(ctx, debate.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Interventions, 2)
	require.Equal(t, 1, loaded.Interventions[0].Sequence)
	require.Equal(t, "Hon. Anita Anand", *loaded.Interventions[0].SpeakerName)

	// Re-running resumes past the stored sitting and writes nothing new.
	stats, err = service.IngestDebates(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, stats["debates"])
	require.Equal(t, 0, stats["interventions"])

	var interventionTotal int64
	require.NoError(t, db.Model(&models.DebateIntervention{}).Count(&interventionTotal).Error)
	require.EqualValues(t, 2, interventionTotal)

	// The incremental scan never re-fetched sitting 1.
	require.Equal(t, 1, transport.hits["https://www.ourcommons.ca/Content/House/451/Debates/1/HAN1-E.XML"])
}

const billsFixture = `[
  {
    "BillNumberFormatted": "C-5",
    "BillId": 13592370,
    "ParliamentNumber": 45,
    "SessionNumber": 1,
    "LongTitleEn": "An Act",
    "CurrentStatusEn": "Royal assent received",
    "LatestActivityDateTime": "2025-06-26T00:00:00",
    "SponsorEn": "Chrystia Freeland"
  }
]`

func TestIngestBills(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	service, _ := newTestService(t, db, map[string]string{
		"https://www.parl.ca/legisinfo/en/bills/json?parlsession=45-1": billsFixture,
	})

	stats, err := service.IngestBills(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats["bills"])

	// Idempotent on replay.
	stats, err = service.IngestBills(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats["bills"])

	var total int64
	require.NoError(t, db.Model(&models.Bill{}).Count(&total).Error)
	require.EqualValues(t, 1, total)
}

const memberDisclosureFixture = `<html><body>
<span id="quarters-dropdown-text">From April 1, 2025 to June 30, 2025</span>
<a class="csv-btn" href="/ProactiveDisclosure/en/members/csv">CSV</a>
</body></html>`

const memberCSVFixture = "Name,Salaries,Travel,Hospitality,Contracts\n" +
	"\"Aboultaif, Ziad\",\"$62,273.54\",\"$18,120.01\",$0.00,\"$9,494.00\"\n"

const officerIndexFixture = `<html><body>
<a href="/Content/Boie/HouseOfficers-2025-Q1.csv">Q1</a>
</body></html>`

const officerCSVFixture = "House Officer Expenditures\n" +
	"From April 1, 2025 to June 30, 2025\n" +
	"Role,Name,Employees' Salaries($),Service Contracts($),Travel($),Hospitality($),Office($)\n" +
	"Speaker,Francis Scarpaleggia,\"120,000.00\",\"3,000.00\",\"8,000.00\",500.00,\"1,200.00\"\n"

func TestIngestExpendituresPeriodReplacement(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := repo.NewRepresentatives(db).UpsertByHocID(ctx, 25446, repo.RepresentativeFields{
		Name:      "Ziad Aboultaif",
		FirstName: strPtr("Ziad"),
		LastName:  strPtr("Aboultaif"),
		IsActive:  true,
	})
	require.NoError(t, err)

	service, _ := newTestService(t, db, map[string]string{
		"https://www.ourcommons.ca/ProactiveDisclosure/en/members":      memberDisclosureFixture,
		"https://www.ourcommons.ca/ProactiveDisclosure/en/members/csv":  memberCSVFixture,
		"https://www.ourcommons.ca/Boie/en/reports-and-disclosure":      officerIndexFixture,
		"https://www.ourcommons.ca/Content/Boie/HouseOfficers-2025-Q1.csv": officerCSVFixture,
	})

	stats, err := service.IngestExpenditures(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, stats["members"])
	require.Equal(t, 5, stats["house_officers"])
	require.Equal(t, 0, stats["errors"])

	// Re-ingesting the same period replaces rather than duplicates.
	stats, err = service.IngestExpenditures(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, stats["members"])

	var memberTotal, officerTotal int64
	require.NoError(t, db.Model(&models.MemberExpenditure{}).Count(&memberTotal).Error)
	require.NoError(t, db.Model(&models.HouseOfficerExpenditure{}).Count(&officerTotal).Error)
	require.EqualValues(t, 4, memberTotal)
	require.EqualValues(t, 5, officerTotal)

	// The CSV name resolved to the seeded representative.
	var expenditure models.MemberExpenditure
	require.NoError(t, db.Where("category = ?", "Salaries").First(&expenditure).Error)
	require.NotNil(t, expenditure.HocID)
	require.Equal(t, 25446, *expenditure.HocID)
	require.Equal(t, "2025-2026", *expenditure.FiscalYear)
}

const petitionsPageFixture = `{"html": "<div>Page: 1 of 1</div><table><tbody><tr class=\"Pub\"><td>1</td><td>2</td><td>3</td><td>Open for signature</td><td>Ziad Aboultaif</td><td>12,345</td><td><a class=\"publicationTitleSearch\" href=\"441-00123\"><span>e-4321</span><span>Climate accountability</span></a></td></tr></tbody></table>"}`

const petitionDetailFixture = `<html><body>
<div id="DetailsMember"><a href="/members/en/ziad-aboultaif(25446)">Ziad Aboultaif</a></div>
<div class="history-section"><dl>
  <dt>Presented to the House of Commons</dt><dd>June 5, 2025</dd>
</dl></div>
</body></html>`

func TestIngestPetitions(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	service, _ := newTestService(t, db, map[string]string{
		"https://www.ourcommons.ca/petitions/en/Petition/SearchAsync": petitionsPageFixture,
		"https://www.ourcommons.ca/petitions/en/Petition/441-00123":   petitionDetailFixture,
	})

	stats, err := service.IngestPetitions(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats["petitions"])
	require.Equal(t, 0, stats["errors"])

	petition, err := repo.NewPetitions(db).GetByNumber(ctx, "e-4321")
	require.NoError(t, err)
	require.NotNil(t, petition)
	require.Equal(t, "Climate accountability", *petition.TitleEn)
	require.Equal(t, 25446, *petition.SponsorHocID)
	require.EqualValues(t, 12345, *petition.Signatures)
	require.NotNil(t, petition.PresentationDate)

	// Replay converges on the same row.
	_, err = service.IngestPetitions(ctx)
	require.NoError(t, err)
	var total int64
	require.NoError(t, db.Model(&models.Petition{}).Count(&total).Error)
	require.EqualValues(t, 1, total)
}

func TestRunIsolatesFailures(t *testing.T) {
	db := setupTestDB(t)
	// No fixtures at all: every pipeline's root fetch fails.
	service, _ := newTestService(t, db, map[string]string{})

	results := service.Run(context.Background())
	require.Len(t, results, 8)

	// Pipelines whose root fetch failed report a pipeline-level error.
	for _, name := range []string{"members", "party_standings", "votes", "petitions", "bills"} {
		require.Contains(t, results[name], "error", name)
	}
	// Roles and debates tolerate missing upstream documents; expenditures
	// contains each half's failure in its error count.
	require.Equal(t, 0, results["roles"]["errors"])
	require.Equal(t, 0, results["debates"]["debates"])
	require.Equal(t, 2, results["expenditures"]["errors"])
}

func intPtr(n int) *int       { return &n }
func strPtr(s string) *string { return &s }

package decode

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const membersXML = `<?xml version="1.0" encoding="utf-8"?>
<ArrayOfMemberOfParliament>
  <MemberOfParliament>
    <PersonId>25446</PersonId>
    <PersonOfficialFirstName>Ziad</PersonOfficialFirstName>
    <PersonOfficialLastName>Aboultaif</PersonOfficialLastName>
    <PersonShortHonorific></PersonShortHonorific>
    <ConstituencyName>Edmonton Manning</ConstituencyName>
    <ConstituencyProvinceTerritoryName>Alberta</ConstituencyProvinceTerritoryName>
    <CaucusShortName>Conservative</CaucusShortName>
  </MemberOfParliament>
  <MemberOfParliament>
    <PersonId>0</PersonId>
    <PersonOfficialFirstName>Skip</PersonOfficialFirstName>
    <PersonOfficialLastName>Me</PersonOfficialLastName>
  </MemberOfParliament>
  <MemberOfParliament>
    <PersonId>105123</PersonId>
    <PersonOfficialFirstName>Anita</PersonOfficialFirstName>
    <PersonOfficialLastName>Anand</PersonOfficialLastName>
    <PersonShortHonorific>Hon.</PersonShortHonorific>
    <ConstituencyName>Oakville East</ConstituencyName>
    <ConstituencyProvinceTerritoryName>Ontario</ConstituencyProvinceTerritoryName>
    <CaucusShortName>Liberal</CaucusShortName>
  </MemberOfParliament>
</ArrayOfMemberOfParliament>`

func TestMembers(t *testing.T) {
	members, err := Members(membersXML)
	require.NoError(t, err)
	require.Len(t, members, 2)

	first := members[0]
	require.Equal(t, 25446, first.HocID)
	require.Equal(t, "Ziad Aboultaif", first.Name)
	require.Equal(t, "Edmonton Manning", first.Riding)
	require.Equal(t, "Alberta", first.Province)
	require.Equal(t, "Conservative", first.Party)
	require.Nil(t, first.Honorific)
	require.Equal(t, "https://www.ourcommons.ca/Members/en/25446/photo", first.PhotoURL)

	second := members[1]
	require.NotNil(t, second.Honorific)
	require.Equal(t, "Hon.", *second.Honorific)
}

func TestMembersMalformed(t *testing.T) {
	_, err := Members("<ArrayOf")
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
}

const rolesXML = `<?xml version="1.0" encoding="utf-8"?>
<Profile>
  <CaucusMemberRoles>
    <CaucusMemberRole>
      <CaucusShortName>Liberal</CaucusShortName>
      <ParliamentNumber>45</ParliamentNumber>
      <SessionNumber>1</SessionNumber>
      <FromDateTime>2025-05-26T00:00:00</FromDateTime>
      <ToDateTime></ToDateTime>
    </CaucusMemberRole>
  </CaucusMemberRoles>
  <CommitteeMemberRoles>
    <CommitteeMemberRole>
      <AffiliationRoleName>Member</AffiliationRoleName>
      <CommitteeName>Standing Committee on Finance</CommitteeName>
      <ParliamentNumber>44</ParliamentNumber>
      <SessionNumber>1</SessionNumber>
      <FromDateTime>2021-12-09T00:00:00</FromDateTime>
      <ToDateTime>2023-09-19T00:00:00</ToDateTime>
    </CommitteeMemberRole>
  </CommitteeMemberRoles>
  <ParliamentaryPositionRoles>
    <ParliamentaryPositionRole>
      <Title>Minister of Transport</Title>
      <ParliamentNumber>45</ParliamentNumber>
      <SessionNumber>1</SessionNumber>
      <FromDateTime>2025-05-26T00:00:00</FromDateTime>
      <ToDateTime></ToDateTime>
    </ParliamentaryPositionRole>
  </ParliamentaryPositionRoles>
  <ParliamentaryAssociationsandInterparliamentaryGroupRoles>
    <ParliamentaryAssociationsandInterparliamentaryGroupRole>
      <AssociationMemberRoleType>Member</AssociationMemberRoleType>
      <Title></Title>
      <Organization>Canada-Europe Parliamentary Association</Organization>
      <ParliamentNumber>44</ParliamentNumber>
      <SessionNumber>1</SessionNumber>
      <FromDateTime>2022-01-01T00:00:00</FromDateTime>
      <ToDateTime>2023-01-01T00:00:00</ToDateTime>
    </ParliamentaryAssociationsandInterparliamentaryGroupRole>
  </ParliamentaryAssociationsandInterparliamentaryGroupRoles>
</Profile>`

func TestRoles(t *testing.T) {
	roles, err := Roles(rolesXML, "https://example.org/mp/1/xml")
	require.NoError(t, err)
	require.Len(t, roles, 4)

	byType := map[string]Role{}
	for _, role := range roles {
		byType[role.RoleType] = role
	}

	caucus := byType["caucus"]
	require.Equal(t, "Liberal", caucus.RoleName)
	require.True(t, caucus.IsCurrent)
	require.Nil(t, caucus.EndDate)
	require.NotNil(t, caucus.Parliament)
	require.Equal(t, 45, *caucus.Parliament)
	require.Equal(t, SourceHash(rolesXML), caucus.SourceHash)

	committee := byType["committee"]
	require.Equal(t, "Member", committee.RoleName)
	require.NotNil(t, committee.Organization)
	require.Equal(t, "Standing Committee on Finance", *committee.Organization)
	require.False(t, committee.IsCurrent)
	require.NotNil(t, committee.EndDate)
	require.Equal(t, time.UTC, committee.EndDate.Location())

	position := byType["parliamentary_position"]
	require.Equal(t, "Minister of Transport", position.RoleName)

	association := byType["association"]
	require.Equal(t, "Member", association.RoleName)
	require.Equal(t, "Canada-Europe Parliamentary Association", *association.Organization)
}

const standingsXML = `<?xml version="1.0"?>
<List>
  <PartyStanding><CaucusShortName>Liberal</CaucusShortName><SeatCount>160</SeatCount></PartyStanding>
  <PartyStanding><CaucusShortName>Conservative</CaucusShortName><SeatCount>119</SeatCount></PartyStanding>
  <PartyStanding><CaucusShortName>Liberal</CaucusShortName><SeatCount>9</SeatCount></PartyStanding>
  <PartyStanding><CaucusShortName>Vacant</CaucusShortName><SeatCount>2</SeatCount></PartyStanding>
</List>`

func TestPartyStandings(t *testing.T) {
	totals, err := PartyStandings(standingsXML)
	require.NoError(t, err)
	require.Equal(t, map[string]int{
		"Liberal":      169,
		"Conservative": 119,
		"Vacant":       2,
	}, totals)
}

const votesListHTML = `<html><body>
<table id="global-votes"><tbody>
<tr>
  <td><a href="/members/en/votes/45/1/12">12</a></td>
  <td>45th Parliament</td>
  <td>2nd reading of Bill C-5, An Act respecting certain measures</td>
  <td>324 / 1 / 0</td>
  <td>Agreed To</td>
  <td>2025-06-16</td>
</tr>
<tr>
  <td><a href="/members/en/votes/45/1/11">11</a></td>
  <td>45th Parliament</td>
  <td>Opposition Motion (Confidence in the government)</td>
  <td>170 / 150</td>
  <td>Negatived</td>
  <td>2025-06-12</td>
</tr>
</tbody></table>
</body></html>`

func TestVotesList(t *testing.T) {
	rows, err := VotesList(votesListHTML)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	first := rows[0]
	require.Equal(t, 12, first.VoteNumber)
	require.NotNil(t, first.BillNumber)
	require.Equal(t, "C-5", *first.BillNumber)
	require.EqualValues(t, 324, *first.Yeas)
	require.EqualValues(t, 1, *first.Nays)
	require.EqualValues(t, 0, *first.Paired)
	require.Equal(t, "Agreed To", *first.Decision)
	require.Equal(t, "https://www.ourcommons.ca/members/en/votes/45/1/12", *first.DetailURL)
	require.Equal(t, time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC), *first.VoteDate)

	second := rows[1]
	require.Nil(t, second.BillNumber)
	require.Nil(t, second.Paired)
}

func TestVotesListMissingTable(t *testing.T) {
	_, err := VotesList("<html><body></body></html>")
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
}

const voteDetailHTML = `<html><body>
<div class="mip-vote-title-section"><p>Sitting No. 21 - Monday, June 16, 2025</p></div>
<div id="mip-vote-desc">2nd reading of Bill C-5</div>
<div id="mip-vote-text-collapsible-text">That the Bill be now read a second time.</div>
<div class="mip-vote-bill-section"><h2>Bill C-5</h2></div>
<div class="ce-mip-mp-vote-panel-body"><table><tbody>
<tr>
  <td><a href="/members/en/ziad-aboultaif(25446)/25446">Ziad Aboultaif</a> (Edmonton Manning)</td>
  <td>Conservative</td>
  <td>Yea</td>
  <td></td>
</tr>
<tr>
  <td>Jane Doe (Nowhere)</td>
  <td>Liberal</td>
  <td></td>
  <td>Paired</td>
</tr>
<tr>
  <td>John Roe</td>
  <td>NDP</td>
  <td></td>
  <td></td>
</tr>
</tbody></table></div>
</body></html>`

func TestParseVoteDetail(t *testing.T) {
	detail, ballots, err := ParseVoteDetail(voteDetailHTML)
	require.NoError(t, err)

	require.Equal(t, "2nd reading of Bill C-5", *detail.SubjectEn)
	require.Equal(t, "That the Bill be now read a second time.", *detail.MotionText)
	require.Equal(t, "C-5", *detail.BillNumber)
	require.Equal(t, 21, *detail.Sitting)

	require.Len(t, ballots, 3)
	require.Equal(t, 25446, *ballots[0].HocID)
	require.Equal(t, "Ziad Aboultaif", ballots[0].MemberName)
	require.Equal(t, "Yea", ballots[0].Position)
	require.Equal(t, "Edmonton Manning", *ballots[0].RidingName)
	require.Equal(t, "Conservative", *ballots[0].PartyName)

	require.Equal(t, "Paired", ballots[1].Position)
	require.Equal(t, "Absent", ballots[2].Position)
	require.Nil(t, ballots[2].HocID)
}

const petitionsFragment = `<div>Page: 1 of 3</div>
<table><tbody>
<tr class="Pub">
  <td>1</td><td>2</td><td>3</td>
  <td>Open for signature</td>
  <td>Elizabeth May</td>
  <td>12,345</td>
  <td extra="x"><a class="publicationTitleSearch" href="441-00123"><span>e-4321</span><span>Climate accountability</span></a></td>
</tr>
</tbody></table>`

func TestPetitionSearchHTML(t *testing.T) {
	html, err := PetitionSearchHTML(`{"html": "<b>fragment</b>"}`)
	require.NoError(t, err)
	require.Equal(t, "<b>fragment</b>", html)

	_, err = PetitionSearchHTML("not json")
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
}

func TestExtractTotalPages(t *testing.T) {
	require.Equal(t, 3, ExtractTotalPages(petitionsFragment))
	require.Equal(t, 0, ExtractTotalPages("<div></div>"))
}

func TestPetitionRows(t *testing.T) {
	rows, err := PetitionRows(petitionsFragment)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	require.Equal(t, "e-4321", row.PetitionNumber)
	require.Equal(t, "Climate accountability", *row.TitleEn)
	require.Equal(t, "Open for signature", *row.Status)
	require.Equal(t, "Elizabeth May", *row.SponsorName)
	require.EqualValues(t, 12345, *row.Signatures)
	require.Equal(t, "https://www.ourcommons.ca/petitions/en/Petition/441-00123", *row.DetailURL)
}

const petitionDetailHTML = `<html><body>
<div id="DetailsMember"><a href="/members/en/elizabeth-may(2897)">Elizabeth May</a></div>
<div class="history-section">
  <dl>
    <dt>Presented to the House of Commons</dt>
    <dd>June 5, 2025</dd>
    <dt>Closed for signature</dt>
    <dd>May 1, 2025, 3:04 p.m. (EDT)</dd>
  </dl>
</div>
</body></html>`

func TestParsePetitionDetail(t *testing.T) {
	detail, err := ParsePetitionDetail(petitionDetailHTML)
	require.NoError(t, err)

	require.Equal(t, 2897, *detail.SponsorHocID)
	require.Equal(t, "Elizabeth May", *detail.SponsorName)
	require.Equal(t, time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC), *detail.PresentationDate)
	require.Equal(t, time.Date(2025, 5, 1, 15, 4, 0, 0, time.UTC), *detail.ClosingDate)
	require.Equal(t, SourceHash(petitionDetailHTML), detail.SourceHash)
}

const hansardXML = `<?xml version="1.0" encoding="utf-8"?>
<Hansard>
  <ExtractedInformation>
    <ExtractedItem Name="ParliamentNumber">45</ExtractedItem>
    <ExtractedItem Name="SessionNumber">1</ExtractedItem>
    <ExtractedItem Name="Volume">152</ExtractedItem>
    <ExtractedItem Name="Number">021</ExtractedItem>
    <ExtractedItem Name="Date">Monday, June 16, 2025</ExtractedItem>
    <ExtractedItem Name="SpeakerName">The Honourable Francis Scarpaleggia</ExtractedItem>
  </ExtractedInformation>
  <HansardBody>
    <OrderOfBusiness>
      <OrderOfBusinessTitle>Government Orders</OrderOfBusinessTitle>
      <SubjectOfBusiness>
        <SubjectOfBusinessTitle>Free Trade in Canada Act</SubjectOfBusinessTitle>
        <Timestamp Hr="11" Mn="5"/>
        <Intervention Type="Debate">
          <PersonSpeaking><Affiliation>Hon. Chrystia Freeland (Minister of Transport, Lib.)</Affiliation></PersonSpeaking>
          <Content>
            <FloorLanguage language="EN"/>
            <ParaText>Mr. Speaker, I rise today <Sup>1</Sup>to speak.</ParaText>
            <ParaText>This bill matters.</ParaText>
          </Content>
        </Intervention>
        <Timestamp Hr="11" Mn="20"/>
        <Intervention Type="Question">
          <PersonSpeaking><Affiliation>Mr. Ziad Aboultaif (Edmonton Manning, CPC)</Affiliation></PersonSpeaking>
          <Content>
            <FloorLanguage language="FR"/>
            <ParaText>Monsieur le Président, une question.</ParaText>
          </Content>
        </Intervention>
      </SubjectOfBusiness>
    </OrderOfBusiness>
  </HansardBody>
</Hansard>`

func TestHansard(t *testing.T) {
	meta, interventions, err := Hansard(hansardXML, "en")
	require.NoError(t, err)

	require.Equal(t, 45, *meta.Parliament)
	require.Equal(t, 1, *meta.Session)
	require.Equal(t, "152", *meta.Volume)
	require.Equal(t, "021", *meta.Number)
	require.Equal(t, "en", meta.Language)
	require.Equal(t, time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC), *meta.DebateDate)
	require.Equal(t, SourceHash(hansardXML), meta.SourceHash)

	require.Len(t, interventions, 2)

	first := interventions[0]
	require.Equal(t, "Hon. Chrystia Freeland", *first.SpeakerName)
	require.Equal(t, "Hon. Chrystia Freeland (Minister of Transport, Lib.)", *first.SpeakerAffiliation)
	require.Equal(t, "Government Orders", *first.OrderOfBusiness)
	require.Equal(t, "Free Trade in Canada Act", *first.SubjectTitle)
	require.Equal(t, "11:05", *first.Timestamp)
	require.Equal(t, "Debate", *first.InterventionType)
	require.Equal(t, "Mr. Speaker, I rise today 1to speak.\n\nThis bill matters.", *first.Text)

	second := interventions[1]
	require.Equal(t, "Mr. Ziad Aboultaif", *second.SpeakerName)
	require.Equal(t, "fr", *second.FloorLanguage)
	require.Equal(t, "11:20", *second.Timestamp)
}

const billsJSON = `[
  {
    "BillNumberFormatted": "C-5",
    "BillId": 13592370,
    "ParliamentNumber": 45,
    "SessionNumber": 1,
    "LongTitleEn": "An Act to enact the Free Trade and Labour Mobility in Canada Act",
    "LongTitleFr": "Loi édictant la Loi sur le libre-échange",
    "CurrentStatusEn": "Royal assent received",
    "PassedHouseFirstReadingDateTime": "2025-06-06T00:00:00",
    "LatestActivityDateTime": "2025-06-26T00:00:00",
    "SponsorEn": "Chrystia Freeland"
  },
  {"BillNumberFormatted": "", "BillId": 1},
  {
    "BillNumberFormatted": "S-2",
    "ParliamentNumber": 45,
    "SessionNumber": 1,
    "ShortTitleEn": "An Act short title",
    "PassedSenateFirstReadingDateTime": "2025-05-27T00:00:00"
  }
]`

func TestBills(t *testing.T) {
	bills, err := Bills(billsJSON)
	require.NoError(t, err)
	require.Len(t, bills, 2)

	first := bills[0]
	require.Equal(t, "C-5", first.BillNumber)
	require.Equal(t, 45, *first.Parliament)
	require.Equal(t, 13592370, *first.LegisinfoID)
	require.Equal(t, "Royal assent received", *first.Status)
	require.Equal(t, time.Date(2025, 6, 6, 0, 0, 0, 0, time.UTC), *first.IntroducedDate)
	require.Equal(t, "Chrystia Freeland", *first.SponsorName)
	require.Len(t, first.SourceHash, 64)

	second := bills[1]
	require.Equal(t, "S-2", second.BillNumber)
	require.Equal(t, "An Act short title", *second.TitleEn)
	require.Equal(t, time.Date(2025, 5, 27, 0, 0, 0, 0, time.UTC), *second.IntroducedDate)
}

func TestBillsHashStable(t *testing.T) {
	a, err := Bills(`[{"BillNumberFormatted": "C-1", "A": 1, "B": 2}]`)
	require.NoError(t, err)
	b, err := Bills(`[{"B": 2, "BillNumberFormatted": "C-1", "A": 1}]`)
	require.NoError(t, err)
	require.Equal(t, a[0].SourceHash, b[0].SourceHash)
}

const memberCSV = "\ufeffName,Constituency,Caucus,Salaries,Travel,Hospitality,Contracts\n" +
	"\"Aboultaif, Ziad\",Edmonton Manning,Conservative,\"$62,273.54\",\"$18,120.01\",$0.00,\"$9,494.00\"\n" +
	"\"May, Elizabeth\",Saanich—Gulf Islands,Green Party,\"$61,000.00\",-,,\"$1.25\"\n" +
	",,,,,,\n"

func TestMemberExpenditures(t *testing.T) {
	rows, err := MemberExpenditures(memberCSV)
	require.NoError(t, err)
	require.Len(t, rows, 8)

	require.Equal(t, "Aboultaif, Ziad", rows[0].MemberName)
	require.Equal(t, "Salaries", rows[0].Category)
	require.InDelta(t, 62273.54, rows[0].Amount, 0.001)

	byCategory := map[string]float64{}
	for _, row := range rows[4:] {
		byCategory[row.Category] = row.Amount
	}
	require.InDelta(t, 0, byCategory["Travel"], 0.001)
	require.InDelta(t, 0, byCategory["Hospitality"], 0.001)
	require.InDelta(t, 1.25, byCategory["Contracts"], 0.001)
}

const officerCSV = "House Officer Expenditures\n" +
	"From April 1, 2025 to June 30, 2025\n" +
	"Role,Name,Employees' Salaries($),Service Contracts($),Travel($),Hospitality($),Office($)\n" +
	"Speaker,Francis Scarpaleggia,\"120,000.00\",\"3,000.00\",\"8,000.00\",500.00,\"1,200.00\"\n" +
	",,,,,,\n"

func TestOfficerExpenditures(t *testing.T) {
	rows, start, end, err := OfficerExpenditures(officerCSV)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	require.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), *start)
	require.Equal(t, time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC), *end)

	require.Equal(t, "Francis Scarpaleggia", rows[0].OfficerName)
	require.Equal(t, "Speaker", *rows[0].RoleTitle)
	require.Equal(t, "Employees' Salaries", rows[0].Category)
	require.InDelta(t, 120000, rows[0].Amount, 0.001)
}

func TestMemberDisclosure(t *testing.T) {
	html := `<html><body>
	  <span id="quarters-dropdown-text">From April 1, 2025 to June 30, 2025</span>
	  <a class="csv-btn" href="/ProactiveDisclosure/en/members/2025/2/csv">CSV</a>
	</body></html>`
	href, period, err := MemberDisclosure(html)
	require.NoError(t, err)
	require.Equal(t, "/ProactiveDisclosure/en/members/2025/2/csv", href)
	require.Contains(t, period, "From April 1, 2025")

	_, _, err = MemberDisclosure("<html></html>")
	require.Error(t, err)
}

func TestOfficerCSVLinks(t *testing.T) {
	html := `<html><body>
	  <a href="/Content/Boie/HouseOfficers-2025-Q1.csv">Q1</a>
	  <a href="/Content/Boie/Members-2025-Q1.csv">Members</a>
	  <a href="/Content/Boie/HouseOfficers-2025-Q2.csv">Q2</a>
	  <a href="/about">About</a>
	</body></html>`
	links, err := OfficerCSVLinks(html)
	require.NoError(t, err)
	require.Equal(t, []string{
		"/Content/Boie/HouseOfficers-2025-Q1.csv",
		"/Content/Boie/HouseOfficers-2025-Q2.csv",
	}, links)
}

func TestParseDateLayouts(t *testing.T) {
	expected := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	for _, value := range []string{"Monday, June 16, 2025", "June 16, 2025", "2025-06-16"} {
		parsed := ParseDate(value)
		require.NotNil(t, parsed, value)
		require.Equal(t, expected, *parsed, value)
	}
	require.Nil(t, ParseDate("16/06/2025"))
	require.Nil(t, ParseDate(""))
}

func TestParseDateTimeCoercesUTC(t *testing.T) {
	parsed := ParseDateTime("2025-06-16T14:30:00")
	require.NotNil(t, parsed)
	require.Equal(t, time.Date(2025, 6, 16, 14, 30, 0, 0, time.UTC), *parsed)

	withZone := ParseDateTime("2025-06-16T14:30:00-04:00")
	require.NotNil(t, withZone)
	require.Equal(t, time.Date(2025, 6, 16, 18, 30, 0, 0, time.UTC), *withZone)

	ampm := ParseDateTime("June 16, 2025 at 2:30 p.m. (EDT)")
	require.NotNil(t, ampm)
	require.Equal(t, time.Date(2025, 6, 16, 14, 30, 0, 0, time.UTC), *ampm)
}

func TestFiscalYear(t *testing.T) {
	april := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	march := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	require.Equal(t, "2025-2026", *FiscalYear(&april))
	require.Equal(t, "2024-2025", *FiscalYear(&march))
	require.Nil(t, FiscalYear(nil))
}

func TestParseAmount(t *testing.T) {
	require.InDelta(t, 62273.54, ParseAmount("$62,273.54"), 0.001)
	require.InDelta(t, 0, ParseAmount("-"), 0.001)
	require.InDelta(t, 0, ParseAmount(""), 0.001)
	require.InDelta(t, 0, ParseAmount("n/a"), 0.001)
}

func TestExtractBillNumber(t *testing.T) {
	number := ExtractBillNumber("2nd reading of Bill C-5, An Act")
	require.NotNil(t, number)
	require.Equal(t, "C-5", *number)
	require.Nil(t, ExtractBillNumber("Opposition Motion"))
}

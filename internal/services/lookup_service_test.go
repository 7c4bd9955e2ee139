package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/blacklisthub/blacklisthub-backend/internal/apperrors"
	"github.com/blacklisthub/blacklisthub-backend/internal/models"
	"github.com/blacklisthub/blacklisthub-backend/internal/repositories/memory"
)

type lookupServiceSuite struct {
	serviceSuite
}

func TestLookupService(t *testing.T) {
	suite.Run(t, new(lookupServiceSuite))
}

func person(value, reasonCode string, risk models.RiskLevel) models.Submission {
	return models.Submission{
		Type:       models.EntityPerson,
		Value:      value,
		ReasonCode: reasonCode,
		RiskLevel:  risk,
		Reason:     "reported",
		Source:     "user_report",
	}
}

func (s *lookupServiceSuite) TestExpiredRecordIsNotAHit() {
	sub := person("X", "fraud.payment", models.RiskHigh)
	expires := s.clock.Now().Add(24 * time.Hour)
	sub.ExpiresAt = &expires
	s.published(sub)

	s.clock.Advance(48 * time.Hour)
	res, err := s.lookup.Lookup(s.ctx, models.EntityPerson, "X")
	s.Require().NoError(err)
	s.False(res.Hit)
	s.Empty(res.RiskLevel)
}

func (s *lookupServiceSuite) TestDraftIsNotAHit() {
	s.submit(person("X", "fraud.payment", models.RiskHigh), models.RoleReporter)

	res, err := s.lookup.Lookup(s.ctx, models.EntityPerson, "X")
	s.Require().NoError(err)
	s.False(res.Hit)
}

func (s *lookupServiceSuite) TestHitAggregatesActiveRecords() {
	s.published(person("X", "fraud.payment", models.RiskMedium))
	s.clock.Advance(time.Minute)
	other := person("X", "credit.default", models.RiskHigh)
	other.Source = "partner_feed"
	s.published(other)
	s.clock.Advance(time.Minute)
	s.submit(person("X", "abuse.spam", models.RiskLow), models.RoleReporter)

	res, err := s.lookup.Lookup(s.ctx, models.EntityPerson, " X ")
	s.Require().NoError(err)
	s.True(res.Hit)
	s.Equal("X", res.Value)
	s.Equal(models.RiskHigh, res.RiskLevel)
	s.Equal(2, res.SourcesCount)
	s.Equal(models.StatusDraft, res.Status)
	s.Require().NotNil(res.UpdatedAt)
	s.Equal(s.clock.Now(), *res.UpdatedAt)

	miss, err := s.lookup.Lookup(s.ctx, models.EntityCompany, "X")
	s.Require().NoError(err)
	s.False(miss.Hit)
}

func (s *lookupServiceSuite) TestLookupValidation() {
	_, err := s.lookup.Lookup(s.ctx, models.EntityType("car"), "X")
	s.ErrorIs(err, apperrors.ErrValidation)
	_, err = s.lookup.Lookup(s.ctx, models.EntityPerson, "  ")
	s.ErrorIs(err, apperrors.ErrValidation)
	_, err = s.lookup.EnhancedLookup(s.ctx, models.EntityPerson, "", true)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *lookupServiceSuite) TestEnhancedLookupMatchesSubstring() {
	s.published(person("Zhang San", "fraud.payment", models.RiskHigh))

	res, err := s.lookup.EnhancedLookup(s.ctx, models.EntityPerson, "zhang", false)
	s.Require().NoError(err)
	s.True(res.Hit)
	s.Nil(res.Records)
	s.Nil(res.Summary)
}

func (s *lookupServiceSuite) TestDetailedLookupMasksRecords() {
	s.published(person("Zhang San", "fraud.payment", models.RiskHigh))
	s.clock.Advance(time.Minute)

	sensitive := person("Zhang Si", "fraud.identity", models.RiskLow)
	sensitive.Sensitive = true
	s.published(sensitive)
	s.clock.Advance(time.Minute)

	private := person("Zhang Wu", "fraud.identity", models.RiskMedium)
	private.Visibility = models.VisibilityPrivate
	s.published(private)
	s.clock.Advance(time.Minute)

	s.submit(person("Zhang Liu", "abuse.spam", models.RiskLow), models.RoleReporter)

	lapsing := person("Zhang Qi", "abuse.spam", models.RiskLow)
	expires := s.clock.Now().Add(time.Hour)
	lapsing.ExpiresAt = &expires
	s.published(lapsing)
	s.clock.Advance(2 * time.Hour)

	res, err := s.lookup.EnhancedLookup(s.ctx, models.EntityPerson, "ZHANG", true)
	s.Require().NoError(err)
	s.True(res.Hit)

	s.Require().NotNil(res.Summary)
	s.Equal(5, res.Summary.TotalRecords)
	s.Equal(3, res.Summary.ActiveRecords)
	s.Equal(map[models.RiskLevel]int{models.RiskLow: 3, models.RiskMedium: 1, models.RiskHigh: 1}, res.Summary.RiskDistribution)
	s.Require().NotNil(res.Summary.LatestActivity)

	s.Require().Len(res.Records, 3)
	byValue := map[string]models.RecordDigest{}
	for _, d := range res.Records {
		byValue[d.Value] = d
	}
	s.NotContains(byValue, "Zhang Wu")
	s.NotContains(byValue, "Zhang Liu")
	s.Equal(redactedReason, byValue["Zhang Si"].Reason)
	s.Equal("reported", byValue["Zhang San"].Reason)
	s.True(byValue["Zhang San"].Active)
	s.Equal(models.StatusPublished, byValue["Zhang Qi"].Status)
	s.False(byValue["Zhang Qi"].Active)
}

func (s *lookupServiceSuite) TestDetailedLookupCapsDigests() {
	codes := []string{"fraud.payment", "fraud.identity", "fraud.investment", "abuse.spam", "abuse.harassment", "security.phishing", "security.malware"}
	for _, code := range codes {
		s.published(person("Li", code, models.RiskLow))
	}

	res, err := s.lookup.EnhancedLookup(s.ctx, models.EntityPerson, "li", true)
	s.Require().NoError(err)
	s.Len(res.Records, detailedRecordLimit)
	s.Equal(len(codes), res.Summary.TotalRecords)
}

func (s *lookupServiceSuite) TestRankOffenders() {
	s.published(person("A", "fraud.payment", models.RiskLow))
	s.published(person("A", "credit.default", models.RiskHigh))
	s.clock.Advance(time.Minute)
	s.published(person("B", "fraud.payment", models.RiskMedium))
	private := person("C", "fraud.payment", models.RiskHigh)
	private.Visibility = models.VisibilityPrivate
	s.published(private)
	s.submit(person("D", "fraud.payment", models.RiskHigh), models.RoleReporter)

	page, err := s.lookup.RankOffenders(s.ctx, OffenderParams{Page: 1, PageSize: 10})
	s.Require().NoError(err)
	s.EqualValues(2, page.Total)
	s.Require().Len(page.Items, 2)
	s.Equal("A", page.Items[0].Value)
	s.Equal(2, page.Items[0].Count)
	s.Equal(models.RiskHigh, page.Items[0].RiskLevel)

	recent, err := s.lookup.RankOffenders(s.ctx, OffenderParams{Sort: "recent", Page: 1, PageSize: 10})
	s.Require().NoError(err)
	s.Equal("B", recent.Items[0].Value)

	s.clock.Advance(8 * 24 * time.Hour)
	week, err := s.lookup.RankOffenders(s.ctx, OffenderParams{Range: "week", Page: 1, PageSize: 10})
	s.Require().NoError(err)
	s.Zero(week.Total)
}

func (s *lookupServiceSuite) TestRankOffendersValidation() {
	for name, p := range map[string]OffenderParams{
		"sort":      {Sort: "loudest", Page: 1, PageSize: 10},
		"range":     {Range: "year", Page: 1, PageSize: 10},
		"type":      {Type: "car", Page: 1, PageSize: 10},
		"risk":      {RiskLevel: "extreme", Page: 1, PageSize: 10},
		"page":      {Page: 0, PageSize: 10},
		"page size": {Page: 1, PageSize: 500},
	} {
		_, err := s.lookup.RankOffenders(s.ctx, p)
		s.ErrorIs(err, apperrors.ErrValidation, name)
	}
}

func (s *lookupServiceSuite) TestRankings() {
	s.submit(person("A", "fraud.payment", models.RiskLow), models.RoleReporter)
	s.submit(person("B", "fraud.payment", models.RiskLow), models.RoleReporter)
	s.published(person("C", "abuse.spam", models.RiskLow))

	rankings, err := s.lookup.Rankings(s.ctx, 0)
	s.Require().NoError(err)
	s.Require().Len(rankings.Contributors, 1)
	s.Equal(models.ContributorRow{Operator: "reporter_user", Total: 3, Published: 1}, rankings.Contributors[0])
	s.Equal([]models.ReasonCodeRow{{ReasonCode: "fraud.payment", Count: 2}, {ReasonCode: "abuse.spam", Count: 1}}, rankings.ReasonCodes)

	_, err = s.lookup.Rankings(s.ctx, maxRankingLimit+1)
	s.ErrorIs(err, apperrors.ErrValidation)
}

// recordingCache is an in-process LookupCache with per-key generations that
// remembers the last TTL it stored with
type recordingCache struct {
	mu      sync.Mutex
	entries map[string]*models.LookupResult
	gens    map[string]int64
	lastTTL time.Duration
	dropped int
}

func newRecordingCache() *recordingCache {
	return &recordingCache{entries: map[string]*models.LookupResult{}, gens: map[string]int64{}}
}

func (c *recordingCache) Get(_ context.Context, t models.EntityType, v string) (*models.LookupResult, int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := string(t) + ":" + v
	res, ok := c.entries[key]
	return res, c.gens[key], ok
}

func (c *recordingCache) Set(_ context.Context, res *models.LookupResult, gen int64, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := string(res.Type) + ":" + res.Value
	if c.gens[key] != gen {
		c.dropped++
		return
	}
	c.entries[key] = res
	c.lastTTL = ttl
}

func (c *recordingCache) Invalidate(_ context.Context, t models.EntityType, v string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := string(t) + ":" + v
	c.gens[key]++
	delete(c.entries, key)
}

// racingRepo runs onRead once, right after the first lookup read returns
type racingRepo struct {
	*memory.BlacklistRepository
	onRead func()
}

func (r *racingRepo) FindByTypeValue(ctx context.Context, t models.EntityType, v string, fuzzy bool, limit int) ([]*models.BlacklistRecord, error) {
	records, err := r.BlacklistRepository.FindByTypeValue(ctx, t, v, fuzzy, limit)
	if hook := r.onRead; hook != nil {
		r.onRead = nil
		hook()
	}
	return records, err
}

func TestLookupDoesNotCacheAnswerOverlappingAWrite(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)}
	repo := &racingRepo{BlacklistRepository: memory.NewBlacklistRepository()}
	c := newRecordingCache()
	blacklist := NewBlacklistService(repo, nil, BlacklistOptions{Logger: discardLogger(), Cache: c, Clock: clock.Now})
	lookup := NewLookupService(repo, c, nil, discardLogger(), clock.Now)

	res, err := blacklist.Submit(ctx, person("X", "fraud.payment", models.RiskHigh), actor(models.RoleAdmin))
	require.NoError(t, err)

	published := models.StatusPublished
	repo.onRead = func() {
		_, err := blacklist.ApplyUpdate(ctx, res.Doc.ID, &models.UpdateRequest{Status: &published}, actor(models.RoleAdmin))
		require.NoError(t, err)
	}
	stale, err := lookup.Lookup(ctx, models.EntityPerson, "X")
	require.NoError(t, err)
	assert.False(t, stale.Hit)
	assert.Equal(t, 1, c.dropped)
	_, _, cached := c.Get(ctx, models.EntityPerson, "X")
	assert.False(t, cached)

	fresh, err := lookup.Lookup(ctx, models.EntityPerson, "X")
	require.NoError(t, err)
	assert.True(t, fresh.Hit)
	cachedHit, _, cached := c.Get(ctx, models.EntityPerson, "X")
	require.True(t, cached)
	assert.True(t, cachedHit.Hit)
}

func TestLookupCacheIsInvalidatedByWrites(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)}
	repo := memory.NewBlacklistRepository()
	c := newRecordingCache()
	blacklist := NewBlacklistService(repo, nil, BlacklistOptions{Logger: discardLogger(), Cache: c, Clock: clock.Now})
	lookup := NewLookupService(repo, c, nil, discardLogger(), clock.Now)

	sub := person("X", "fraud.payment", models.RiskHigh)
	expires := clock.Now().Add(2 * time.Hour)
	sub.ExpiresAt = &expires
	res, err := blacklist.Submit(ctx, sub, actor(models.RoleAdmin))
	require.NoError(t, err)

	miss, err := lookup.Lookup(ctx, models.EntityPerson, "X")
	require.NoError(t, err)
	assert.False(t, miss.Hit)
	_, _, cached := c.Get(ctx, models.EntityPerson, "X")
	assert.True(t, cached)

	published := models.StatusPublished
	_, err = blacklist.ApplyUpdate(ctx, res.Doc.ID, &models.UpdateRequest{Status: &published}, actor(models.RoleAdmin))
	require.NoError(t, err)
	_, _, cached = c.Get(ctx, models.EntityPerson, "X")
	assert.False(t, cached)

	hit, err := lookup.Lookup(ctx, models.EntityPerson, "X")
	require.NoError(t, err)
	assert.True(t, hit.Hit)
	assert.Equal(t, 2*time.Hour, c.lastTTL)
}

func TestValidForUsesEarliestActiveExpiry(t *testing.T) {
	now := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)
	in := func(d time.Duration) *time.Time {
		at := now.Add(d)
		return &at
	}
	records := []*models.BlacklistRecord{
		{Status: models.StatusPublished, ExpiresAt: in(5 * time.Hour)},
		{Status: models.StatusPublished, ExpiresAt: in(3 * time.Hour)},
		{Status: models.StatusPending, ExpiresAt: in(time.Hour)},
		{Status: models.StatusPublished, ExpiresAt: in(-time.Hour)},
		{Status: models.StatusPublished},
	}

	assert.Equal(t, 3*time.Hour, validFor(records, now))
	assert.Zero(t, validFor(nil, now))
}

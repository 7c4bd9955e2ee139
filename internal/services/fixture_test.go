package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/blacklisthub/blacklisthub-backend/internal/models"
	"github.com/blacklisthub/blacklisthub-backend/internal/repositories/memory"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func actor(role models.Role) *models.Actor {
	return &models.Actor{UID: "uid-" + string(role), Username: string(role) + "_user", Role: role}
}

// serviceSuite wires the services over fresh in-memory stores for every test
type serviceSuite struct {
	suite.Suite
	ctx       context.Context
	clock     *fakeClock
	repo      *memory.BlacklistRepository
	taxonomy  *TaxonomyService
	blacklist *BlacklistService
	lookup    *LookupService
}

func (s *serviceSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = &fakeClock{now: time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)}
	s.repo = memory.NewBlacklistRepository()
	s.taxonomy = NewTaxonomyService(memory.NewTaxonomyRepository(), discardLogger())
	s.Require().NoError(s.taxonomy.SeedDefaults(s.ctx))
	s.blacklist = NewBlacklistService(s.repo, s.taxonomy, BlacklistOptions{
		DefaultExpiry: 30 * 24 * time.Hour,
		Logger:        discardLogger(),
		Clock:         s.clock.Now,
	})
	s.lookup = NewLookupService(s.repo, nil, nil, discardLogger(), s.clock.Now)
}

func spam(risk models.RiskLevel, reason, source string) models.Submission {
	return models.Submission{
		Type:       models.EntityEmail,
		Value:      "a@b.com",
		ReasonCode: "abuse.spam",
		RiskLevel:  risk,
		Reason:     reason,
		Source:     source,
	}
}

func (s *serviceSuite) submit(sub models.Submission, role models.Role) *models.SubmitResult {
	res, err := s.blacklist.Submit(s.ctx, sub, actor(role))
	s.Require().NoError(err)
	return res
}

// published stores a record and walks it to published as an admin
func (s *serviceSuite) published(sub models.Submission) *models.BlacklistRecord {
	res := s.submit(sub, models.RoleReporter)
	status := models.StatusPublished
	rec, err := s.blacklist.ApplyUpdate(s.ctx, res.Doc.ID, &models.UpdateRequest{Status: &status}, actor(models.RoleAdmin))
	s.Require().NoError(err)
	return rec
}

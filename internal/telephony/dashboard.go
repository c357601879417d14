package telephony

import (
	"context"

	"pbx-api/internal/cdr"
	"pbx-api/internal/models"
)

// DashboardStats summarises today's calls, this month's volume and the
// number of registered extensions.
func (s *Service) DashboardStats(ctx context.Context) (models.DashboardStats, error) {
	now := s.Now()

	today, err := s.cdr.Summarize(ctx, cdr.StartOfDay(now))
	if err != nil {
		return models.DashboardStats{}, err
	}

	month, err := s.cdr.CountSince(ctx, cdr.StartOfMonth(now))
	if err != nil {
		return models.DashboardStats{}, err
	}

	active, err := s.ActiveExtensions(ctx)
	if err != nil {
		return models.DashboardStats{}, err
	}

	return models.DashboardStats{
		CallsToday:       today.Total,
		CallsThisMonth:   month,
		AvgDuration:      cdr.Round1(today.AvgDuration),
		AnswerRate:       today.AnswerRate(),
		ActiveExtensions: active,
	}, nil
}

// AdvancedDashboard adds the per-disposition split, daily trend and the
// busiest callers and destinations for the given period.
func (s *Service) AdvancedDashboard(ctx context.Context, period cdr.Period) (models.AdvancedDashboard, error) {
	general, err := s.DashboardStats(ctx)
	if err != nil {
		return models.AdvancedDashboard{}, err
	}

	since := period.Since(s.Now())

	status, err := s.cdr.StatusBreakdown(ctx, since)
	if err != nil {
		return models.AdvancedDashboard{}, err
	}

	trends, err := s.cdr.DailyTrends(ctx, since)
	if err != nil {
		return models.AdvancedDashboard{}, err
	}

	agents, err := s.cdr.TopSources(ctx, since, TopPartiesLimit)
	if err != nil {
		return models.AdvancedDashboard{}, err
	}

	destinations, err := s.cdr.TopDestinations(ctx, since, TopPartiesLimit)
	if err != nil {
		return models.AdvancedDashboard{}, err
	}

	return models.AdvancedDashboard{
		General:                 general,
		CallStatus:              status,
		DailyTrends:             trends,
		TopAgents:               agents,
		DestinationDistribution: destinations,
	}, nil
}

package ratelimit

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	SetClientIP(ip string)
	Expand(s string) string
	GetLastResponseStatus() int
	GetLastResponseHeader(key string) string
}

func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &ratelimitSteps{tc: tc}
	ctx.Step(`^requests come from IP "([^"]*)"$`, steps.requestsComeFromIP)
	ctx.Step(`^I send (\d+) identify requests$`, steps.sendIdentifyRequests)
	ctx.Step(`^at least one request should have been rate limited$`, steps.someRequestRateLimited)
	ctx.Step(`^the rate limit headers should be present$`, steps.headersPresent)
}

type ratelimitSteps struct {
	tc      TestContext
	limited int
}

func (s *ratelimitSteps) requestsComeFromIP(ctx context.Context, ip string) error {
	s.limited = 0
	s.tc.SetClientIP(s.tc.Expand(ip))
	return nil
}

func (s *ratelimitSteps) sendIdentifyRequests(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		body := map[string]any{"email": s.tc.Expand(fmt.Sprintf("burst-%d-{run}@example.com", i))}
		if err := s.tc.POST("/identify", body); err != nil {
			return err
		}
		if s.tc.GetLastResponseStatus() == 429 {
			s.limited++
			if s.tc.GetLastResponseHeader("Retry-After") == "" {
				return fmt.Errorf("429 response without Retry-After")
			}
		}
	}
	return nil
}

func (s *ratelimitSteps) someRequestRateLimited(ctx context.Context) error {
	if s.limited == 0 {
		return fmt.Errorf("no request was rate limited")
	}
	return nil
}

func (s *ratelimitSteps) headersPresent(ctx context.Context) error {
	for _, h := range []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"} {
		if s.tc.GetLastResponseHeader(h) == "" {
			return fmt.Errorf("header %s missing", h)
		}
	}
	return nil
}

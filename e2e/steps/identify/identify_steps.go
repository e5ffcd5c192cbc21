package identify

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	GetResponseField(field string) (any, error)
	Expand(s string) string
	Remember(name string, v any)
	Recall(name string) (any, bool)
}

func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &identifySteps{tc: tc}
	ctx.Step(`^I identify with email "([^"]*)" and phone "([^"]*)"$`, steps.identifyWithEmailAndPhone)
	ctx.Step(`^I identify with email "([^"]*)" only$`, steps.identifyWithEmailOnly)
	ctx.Step(`^I identify with phone "([^"]*)" only$`, steps.identifyWithPhoneOnly)
	ctx.Step(`^I identify with body '([^']*)'$`, steps.identifyWithBody)
	ctx.Step(`^I remember the primary contact id as "([^"]*)"$`, steps.rememberPrimary)
	ctx.Step(`^the primary contact id should be "([^"]*)"$`, steps.primaryShouldBe)
	ctx.Step(`^the consolidated emails should be "([^"]*)"$`, steps.emailsShouldBe)
	ctx.Step(`^the consolidated phone numbers should be "([^"]*)"$`, steps.phonesShouldBe)
	ctx.Step(`^the identity should have (\d+) secondary contacts?$`, steps.secondaryCountShouldBe)
}

type identifySteps struct {
	tc TestContext
}

func (s *identifySteps) identifyWithEmailAndPhone(ctx context.Context, email, phone string) error {
	return s.tc.POST("/identify", map[string]any{
		"email":       s.tc.Expand(email),
		"phoneNumber": s.tc.Expand(phone),
	})
}

func (s *identifySteps) identifyWithEmailOnly(ctx context.Context, email string) error {
	return s.tc.POST("/identify", map[string]any{"email": s.tc.Expand(email), "phoneNumber": nil})
}

func (s *identifySteps) identifyWithPhoneOnly(ctx context.Context, phone string) error {
	return s.tc.POST("/identify", map[string]any{"email": nil, "phoneNumber": s.tc.Expand(phone)})
}

func (s *identifySteps) identifyWithBody(ctx context.Context, body string) error {
	return s.tc.POST("/identify", s.tc.Expand(body))
}

func (s *identifySteps) rememberPrimary(ctx context.Context, name string) error {
	id, err := s.tc.GetResponseField("contact.primaryContactId")
	if err != nil {
		return err
	}
	s.tc.Remember(name, id)
	return nil
}

func (s *identifySteps) primaryShouldBe(ctx context.Context, name string) error {
	want, ok := s.tc.Recall(name)
	if !ok {
		return fmt.Errorf("no primary remembered as %q", name)
	}
	got, err := s.tc.GetResponseField("contact.primaryContactId")
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("expected primary %v (%s), got %v", want, name, got)
	}
	return nil
}

func (s *identifySteps) emailsShouldBe(ctx context.Context, csv string) error {
	return s.listShouldBe("contact.emails", csv)
}

func (s *identifySteps) phonesShouldBe(ctx context.Context, csv string) error {
	return s.listShouldBe("contact.phoneNumbers", csv)
}

func (s *identifySteps) listShouldBe(field, csv string) error {
	raw, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	items, ok := raw.([]any)
	if !ok {
		return fmt.Errorf("field %s is not a list", field)
	}
	got := make([]string, len(items))
	for i, it := range items {
		got[i] = fmt.Sprint(it)
	}
	var want []string
	for _, w := range strings.Split(csv, ",") {
		if w = strings.TrimSpace(w); w != "" {
			want = append(want, s.tc.Expand(w))
		}
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		return fmt.Errorf("field %s: expected %v, got %v", field, want, got)
	}
	return nil
}

func (s *identifySteps) secondaryCountShouldBe(ctx context.Context, n int) error {
	raw, err := s.tc.GetResponseField("contact.secondaryContactIds")
	if err != nil {
		return err
	}
	items, ok := raw.([]any)
	if !ok {
		return fmt.Errorf("secondaryContactIds is not a list")
	}
	if len(items) != n {
		return fmt.Errorf("expected %d secondary contacts, got %d", n, len(items))
	}
	return nil
}

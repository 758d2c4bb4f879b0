package records

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/cucumber/godog"
)

// TestContext is the part of the scenario context these steps need.
type TestContext interface {
	Do(method, path, user string, body any) error
	LastStatus() int
	LastBody() []byte
	RememberID() error
	LastID() int64
	NationalIDFor(user string) string
}

// RegisterSteps registers donation and item search steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &recordsSteps{tc: tc}

	ctx.Step(`^"([^"]*)" donates (\d+) "([^"]*)"$`, steps.donate)
	ctx.Step(`^"([^"]*)" donates (\d+) "([^"]*)" on behalf of "([^"]*)"$`, steps.donateOnBehalf)
	ctx.Step(`^"([^"]*)" deletes that donation$`, steps.deleteDonation)
	ctx.Step(`^"([^"]*)" searches items for "([^"]*)"$`, steps.searchItems)
}

type recordsSteps struct {
	tc TestContext
}

func (s *recordsSteps) donationBody(nationalID string, quantity int, item string) map[string]any {
	return map[string]any{
		"national_id": nationalID,
		"name":        "Doador de Teste",
		"phone":       "51999990000",
		"whatsapp":    "51999990000",
		"address": map[string]any{
			"street":      "Rua dos Andradas",
			"number":      "1001",
			"postal_code": "90020-007",
			"district":    "Centro Histórico",
			"city":        "Porto Alegre",
			"state":       "RS",
		},
		"can_deliver":     true,
		"available_until": time.Now().AddDate(0, 0, 7).Format("2006-01-02"),
		"items": []map[string]any{
			{"name": item, "quantity": quantity},
		},
	}
}

func (s *recordsSteps) donate(ctx context.Context, user string, quantity int, item string) error {
	return s.donateOnBehalf(ctx, user, quantity, item, user)
}

func (s *recordsSteps) donateOnBehalf(ctx context.Context, user string, quantity int, item, owner string) error {
	if err := s.tc.Do("POST", "/donations", user, s.donationBody(s.tc.NationalIDFor(owner), quantity, item)); err != nil {
		return err
	}
	if s.tc.LastStatus() == 201 {
		return s.tc.RememberID()
	}
	return nil
}

func (s *recordsSteps) deleteDonation(ctx context.Context, user string) error {
	if s.tc.LastID() == 0 {
		return fmt.Errorf("no donation was created in this scenario")
	}
	return s.tc.Do("DELETE", fmt.Sprintf("/donations/%d", s.tc.LastID()), user, nil)
}

func (s *recordsSteps) searchItems(ctx context.Context, user, q string) error {
	return s.tc.Do("GET", "/items/search?q="+url.QueryEscape(q), user, nil)
}

package e2e

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/cucumber/godog"
)

// RegisterSteps registers all step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Background steps
	ctx.Step(`^the onboarding service is running$`, tc.onboardingServiceIsRunning)

	// Applicant steps
	ctx.Step(`^I register as "([^"]*)" with email "([^"]*)" from "([^"]*)"$`, tc.register)
	ctx.Step(`^I submit a "([^"]*)" document$`, tc.submitDocument)
	ctx.Step(`^I submit a "([^"]*)" document that will be rejected$`, tc.submitRejectedDocument)
	ctx.Step(`^I have verified my identity$`, tc.haveVerifiedIdentity)
	ctx.Step(`^I check whether "([^"]*)" is available$`, tc.checkName)
	ctx.Step(`^I select the "([^"]*)" plan$`, tc.selectPlan)
	ctx.Step(`^I incorporate "([^"]*)" as "([^"]*)" with key "([^"]*)"$`, tc.incorporate)
	ctx.Step(`^I abandon my session$`, tc.abandon)
	ctx.Step(`^I fetch my session$`, tc.fetchSession)
	ctx.Step(`^I fetch my session without a token$`, tc.fetchSessionWithoutToken)

	// Assertion steps
	ctx.Step(`^the response status should be (\d+)$`, tc.responseStatusShouldBe)
	ctx.Step(`^the response should contain "([^"]*)"$`, tc.responseShouldContain)
	ctx.Step(`^the response field "([^"]*)" should equal "([^"]*)"$`, tc.responseFieldShouldEqual)
	ctx.Step(`^the document attempt should be (\d+)$`, tc.documentAttemptShouldBe)
	ctx.Step(`^my session should be at step "([^"]*)" with kyc level "([^"]*)"$`, tc.sessionShouldBeAt)
}

func (tc *TestContext) onboardingServiceIsRunning(ctx context.Context) error {
	if err := tc.GET("/v1/plans", nil); err != nil {
		return err
	}
	return tc.responseStatusShouldBe(ctx, 200)
}

func (tc *TestContext) register(ctx context.Context, name, email, country string) error {
	err := tc.POST("/v1/applicants", map[string]interface{}{
		"full_name": name,
		"email":     email,
		"country":   country,
	})
	if err != nil {
		return err
	}
	if tc.GetLastResponseStatus() != 201 {
		return nil
	}

	var resp struct {
		SessionID   string `json:"session_id"`
		ResumeToken string `json:"resume_token"`
	}
	if err := json.Unmarshal(tc.LastResponseBody, &resp); err != nil {
		return fmt.Errorf("failed to parse registration response: %w", err)
	}
	if resp.SessionID == "" || resp.ResumeToken == "" {
		return fmt.Errorf("registration response lacks session_id or resume_token: %s", tc.LastResponseBody)
	}
	tc.SessionID, tc.ResumeToken = resp.SessionID, resp.ResumeToken
	return nil
}

func (tc *TestContext) postDocument(kind, payload string) error {
	return tc.POSTWithHeaders(tc.sessionPath("/documents"), map[string]interface{}{
		"kind":    kind,
		"payload": base64.StdEncoding.EncodeToString([]byte(payload)),
	}, tc.authHeaders())
}

func (tc *TestContext) submitDocument(ctx context.Context, kind string) error {
	return tc.postDocument(kind, "scan of "+kind)
}

// submitRejectedDocument relies on the mock provider refusing payloads that mention "reject".
func (tc *TestContext) submitRejectedDocument(ctx context.Context, kind string) error {
	return tc.postDocument(kind, "please reject this "+kind)
}

func (tc *TestContext) haveVerifiedIdentity(ctx context.Context) error {
	for _, kind := range []string{"photo_id", "selfie"} {
		if err := tc.submitDocument(ctx, kind); err != nil {
			return err
		}
		if err := tc.responseStatusShouldBe(ctx, 200); err != nil {
			return fmt.Errorf("%s: %w", kind, err)
		}
	}
	return nil
}

func (tc *TestContext) checkName(ctx context.Context, name string) error {
	return tc.POST("/v1/entity-names/check", map[string]interface{}{"name": name})
}

func (tc *TestContext) selectPlan(ctx context.Context, plan string) error {
	return tc.POSTWithHeaders(tc.sessionPath("/plan"), map[string]interface{}{"plan_id": plan}, tc.authHeaders())
}

func (tc *TestContext) incorporate(ctx context.Context, name, legalType, key string) error {
	headers := tc.authHeaders()
	headers["Idempotency-Key"] = key
	return tc.POSTWithHeaders(tc.sessionPath("/entities"), map[string]interface{}{
		"name":       name,
		"legal_type": legalType,
	}, headers)
}

func (tc *TestContext) abandon(ctx context.Context) error {
	return tc.POSTWithHeaders(tc.sessionPath("/abandon"), map[string]interface{}{}, tc.authHeaders())
}

func (tc *TestContext) fetchSession(ctx context.Context) error {
	return tc.GET(tc.sessionPath(""), tc.authHeaders())
}

func (tc *TestContext) fetchSessionWithoutToken(ctx context.Context) error {
	return tc.GET(tc.sessionPath(""), nil)
}

func (tc *TestContext) responseStatusShouldBe(ctx context.Context, expected int) error {
	if actual := tc.GetLastResponseStatus(); actual != expected {
		return fmt.Errorf("expected status %d, got %d: %s", expected, actual, tc.LastResponseBody)
	}
	return nil
}

func (tc *TestContext) responseShouldContain(ctx context.Context, text string) error {
	if !tc.ResponseContains(text) {
		return fmt.Errorf("response does not contain %q: %s", text, tc.LastResponseBody)
	}
	return nil
}

func (tc *TestContext) responseFieldShouldEqual(ctx context.Context, field, expected string) error {
	value, err := tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if actual := fmt.Sprint(value); actual != expected {
		return fmt.Errorf("expected %s to be %q, got %q", field, expected, actual)
	}
	return nil
}

func (tc *TestContext) sessionShouldBeAt(ctx context.Context, step, level string) error {
	if err := tc.fetchSession(ctx); err != nil {
		return err
	}
	if err := tc.responseStatusShouldBe(ctx, 200); err != nil {
		return err
	}
	if err := tc.responseFieldShouldEqual(ctx, "current_step", step); err != nil {
		return err
	}
	return tc.responseFieldShouldEqual(ctx, "kyc_level", level)
}

func (tc *TestContext) documentAttemptShouldBe(ctx context.Context, expected int) error {
	var resp struct {
		Document struct {
			Attempt int `json:"attempt"`
		} `json:"document"`
	}
	if err := json.Unmarshal(tc.LastResponseBody, &resp); err != nil {
		return fmt.Errorf("failed to parse document response: %w", err)
	}
	if resp.Document.Attempt != expected {
		return fmt.Errorf("expected attempt %d, got %d", expected, resp.Document.Attempt)
	}
	return nil
}

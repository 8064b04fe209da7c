package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cucumber/godog"

	"orgfees/internal/auth"
	"orgfees/internal/core"
	"orgfees/internal/services"
	"orgfees/internal/store/memory"
)

const unknownObjectID = "60f1d1f6c9d9b6a5c8b5e7d9"

type paymentFeature struct {
	store      *memory.Store
	server     *Server
	issuer     *auth.Issuer
	cookie     *http.Cookie
	categories map[string]string
	response   *httptest.ResponseRecorder
	envelope   envelopeBody
}

func (f *paymentFeature) reset() {
	if f.server != nil {
		_ = f.server.Shutdown(context.Background())
	}
	f.store = memory.New()
	f.issuer = auth.NewIssuer(testSecret, time.Hour)
	f.server = NewServer(Options{RateLimitPerMinute: 1000, DefaultPageSize: 50, MaxPageSize: 200}, Dependencies{
		Transactions: services.NewTransactionService(f.store, nil, time.UTC),
		Directory:    services.NewDirectoryService(f.store),
		Auth:         auth.NewService(f.store, f.issuer),
		Issuer:       f.issuer,
		Store:        f.store,
	})
	f.cookie = nil
	f.categories = map[string]string{"unknown": unknownObjectID}
	f.response = nil
	f.envelope = envelopeBody{}
}

func (f *paymentFeature) aSignedInStaffMember() error {
	token, expires, err := f.issuer.Issue(core.User{ID: core.NewID(), Email: "staff@example.com", Role: core.RoleStaff})
	if err != nil {
		return err
	}
	f.cookie = auth.SessionCookie(token, expires, false)
	return nil
}

func (f *paymentFeature) iAmNotSignedIn() error {
	f.cookie = nil
	return nil
}

func (f *paymentFeature) anOrganizationWithACategoryCosting(orgName, categoryName string, fee int) error {
	ctx := context.Background()
	dir := services.NewDirectoryService(f.store)
	org, err := dir.CreateOrganization(ctx, core.OrganizationInput{Name: orgName})
	if err != nil {
		return err
	}
	category, err := dir.CreateCategory(ctx, core.CategoryInput{
		Name:           categoryName,
		Fee:            fmt.Sprint(fee),
		OrganizationID: org.ID.Hex(),
	})
	if err != nil {
		return err
	}
	f.categories[categoryName] = category.ID.Hex()
	return nil
}

func (f *paymentFeature) aStudentEnrolledIn(studentID, course string) error {
	_, err := services.NewDirectoryService(f.store).CreateStudent(context.Background(), core.StudentInput{
		StudentID: studentID,
		Firstname: "Ana",
		Lastname:  "Reyes",
		Course:    course,
		Gender:    "female",
	})
	return err
}

func (f *paymentFeature) iSubmitAPayment(amount, category, studentID string) error {
	categoryID, ok := f.categories[category]
	if !ok {
		return fmt.Errorf("unknown category alias %q", category)
	}
	body := fmt.Sprintf(`{"amount":%s,"categoryID":%q,"studentID":%q}`, amount, categoryID, studentID)

	req := httptest.NewRequest(http.MethodPost, "/transaction", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if f.cookie != nil {
		req.AddCookie(f.cookie)
	}
	f.response = httptest.NewRecorder()
	f.server.Handler.ServeHTTP(f.response, req)

	f.envelope = envelopeBody{}
	return json.Unmarshal(f.response.Body.Bytes(), &f.envelope)
}

func (f *paymentFeature) theResponseStatusIs(status int) error {
	if f.response.Code != status {
		return fmt.Errorf("status = %d, want %d (body %s)", f.response.Code, status, f.response.Body.String())
	}
	return nil
}

func (f *paymentFeature) theResponseSucceeds() error {
	if !f.envelope.Success {
		return fmt.Errorf("expected success, got message %q", f.envelope.Message)
	}
	return nil
}

func (f *paymentFeature) theResponseFailsWith(reason string) error {
	if f.envelope.Success {
		return fmt.Errorf("expected failure %q, got success", reason)
	}
	if f.envelope.Message != reason {
		return fmt.Errorf("message = %q, want %q", f.envelope.Message, reason)
	}
	return nil
}

func (f *paymentFeature) theStoredPaymentHasStatus(status string) error {
	items, _, err := f.store.ListTransactions(context.Background(), core.TransactionQuery{})
	if err != nil {
		return err
	}
	if len(items) != 1 || string(items[0].Status) != status {
		return fmt.Errorf("stored payments %+v, want one with status %q", items, status)
	}
	return nil
}

func (f *paymentFeature) paymentsAreStored(want int) error {
	_, total, err := f.store.ListTransactions(context.Background(), core.TransactionQuery{})
	if err != nil {
		return err
	}
	if total != want {
		return fmt.Errorf("stored payments = %d, want %d", total, want)
	}
	return nil
}

func initializePaymentScenario(ctx *godog.ScenarioContext) {
	f := &paymentFeature{}

	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		f.reset()
		return ctx, nil
	})
	ctx.After(func(ctx context.Context, _ *godog.Scenario, err error) (context.Context, error) {
		_ = f.server.Shutdown(context.Background())
		return ctx, err
	})

	ctx.Step(`^a signed-in staff member$`, f.aSignedInStaffMember)
	ctx.Step(`^I am not signed in$`, f.iAmNotSignedIn)
	ctx.Step(`^an organization "([^"]*)" with a category "([^"]*)" costing (\d+)$`, f.anOrganizationWithACategoryCosting)
	ctx.Step(`^a student "([^"]*)" enrolled in "([^"]*)"$`, f.aStudentEnrolledIn)

	ctx.Step(`^I submit a payment of (-?\d+(?:\.\d+)?) for category "([^"]*)" and student "([^"]*)"$`, f.iSubmitAPayment)

	ctx.Step(`^the response status is (\d+)$`, f.theResponseStatusIs)
	ctx.Step(`^the response succeeds$`, f.theResponseSucceeds)
	ctx.Step(`^the response fails with "([^"]*)"$`, f.theResponseFailsWith)
	ctx.Step(`^the stored payment has status "([^"]*)"$`, f.theStoredPaymentHasStatus)
	ctx.Step(`^(\d+) payments? (?:is|are) stored$`, f.paymentsAreStored)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializePaymentScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"../../features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

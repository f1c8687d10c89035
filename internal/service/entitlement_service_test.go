package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Slydexx/esthetica-app/internal/config"
	"github.com/Slydexx/esthetica-app/internal/models"
	"github.com/Slydexx/esthetica-app/internal/repository"
)

// fakeEntitlementStore mirrors the ledger's check-then-decrement contract in
// memory: an empty slot rejects the spend and leaves the row untouched.
type fakeEntitlementStore struct {
	rows map[string]models.Entitlement
}

func newFakeEntitlementStore() *fakeEntitlementStore {
	return &fakeEntitlementStore{rows: map[string]models.Entitlement{}}
}

func (f *fakeEntitlementStore) Get(_ context.Context, userID string) (models.Entitlement, error) {
	ent, ok := f.rows[userID]
	if !ok {
		return models.Entitlement{}, repository.ErrEntitlementNotFound
	}
	return ent, nil
}

func (f *fakeEntitlementStore) Create(_ context.Context, userID string) error {
	if _, ok := f.rows[userID]; !ok {
		f.rows[userID] = models.Entitlement{UserID: userID, Credits: models.DefaultCredits()}
	}
	return nil
}

func (f *fakeEntitlementStore) ConsumeCredit(_ context.Context, userID string, slotIndex int) ([models.EnhancementSlots]int, error) {
	ent, ok := f.rows[userID]
	if !ok {
		return [models.EnhancementSlots]int{}, repository.ErrEntitlementNotFound
	}
	if ent.Credits[slotIndex] <= 0 {
		return [models.EnhancementSlots]int{}, repository.ErrNoCredits
	}
	ent.Credits[slotIndex]--
	f.rows[userID] = ent
	return ent.Credits, nil
}

func (f *fakeEntitlementStore) Upgrade(_ context.Context, userID string, plan models.PlanType) (models.Entitlement, error) {
	ent := models.Entitlement{
		UserID:  userID,
		Premium: true,
		Plan:    &plan,
		Credits: models.PremiumCredits(),
	}
	f.rows[userID] = ent
	return ent, nil
}

func storeBackedService(store EntitlementStore) *EntitlementService {
	return NewEntitlementService(store, &config.AppConfig{}, zerolog.Nop())
}

func demoService() *EntitlementService {
	cfg := &config.AppConfig{
		Demo: config.DemoConfig{Enabled: true, Email: "demo@example.com"},
	}
	return NewEntitlementService(nil, cfg, zerolog.Nop())
}

func TestCurrentStateAnonymousIsNil(t *testing.T) {
	svc := demoService()

	state, err := svc.CurrentState(context.Background(), nil)
	if err != nil {
		t.Fatalf("CurrentState: %v", err)
	}
	if state != nil {
		t.Errorf("state = %+v, want nil", state)
	}
}

func TestDemoAccountIsComputedNotStored(t *testing.T) {
	svc := demoService()
	user := models.User{ID: "u1", Email: "Demo@Example.COM"}

	// The repository is nil: any store access would panic, which is the
	// point. The demo entitlement never touches it.
	state, err := svc.CurrentState(context.Background(), &user)
	if err != nil {
		t.Fatalf("CurrentState: %v", err)
	}
	if state == nil || !state.Premium {
		t.Fatalf("state = %+v, want premium", state)
	}
	if state.Plan == nil || *state.Plan != models.PlanPro {
		t.Errorf("plan = %v, want pro", state.Plan)
	}
	for i, c := range state.Credits {
		if c != 999 {
			t.Errorf("credit[%d] = %d, want 999", i, c)
		}
	}

	credits, err := svc.ConsumeCredit(context.Background(), user, 2)
	if err != nil {
		t.Fatalf("ConsumeCredit: %v", err)
	}
	if credits != [models.EnhancementSlots]int{999, 999, 999, 999} {
		t.Errorf("credits = %v", credits)
	}

	ent, err := svc.Upgrade(context.Background(), user, models.PlanSingle)
	if err != nil {
		t.Fatalf("Upgrade: %v", err)
	}
	if !ent.Premium {
		t.Error("demo upgrade should stay premium")
	}
}

func TestConsumeCreditSpendsOnlyTheRequestedSlot(t *testing.T) {
	store := newFakeEntitlementStore()
	store.rows["u1"] = models.Entitlement{
		UserID:  "u1",
		Credits: [models.EnhancementSlots]int{1, 0, 2, 2},
	}
	svc := storeBackedService(store)
	user := models.User{ID: "u1", Email: "user@example.com"}

	credits, err := svc.ConsumeCredit(context.Background(), user, 0)
	if err != nil {
		t.Fatalf("ConsumeCredit: %v", err)
	}
	if credits != [models.EnhancementSlots]int{0, 0, 2, 2} {
		t.Errorf("credits = %v, want [0 0 2 2]", credits)
	}
}

func TestConsumeCreditEmptySlotRejectedWithoutMutation(t *testing.T) {
	store := newFakeEntitlementStore()
	store.rows["u1"] = models.Entitlement{
		UserID:  "u1",
		Credits: [models.EnhancementSlots]int{1, 0, 2, 2},
	}
	svc := storeBackedService(store)
	user := models.User{ID: "u1", Email: "user@example.com"}

	_, err := svc.ConsumeCredit(context.Background(), user, 1)
	if !errors.Is(err, repository.ErrNoCredits) {
		t.Fatalf("err = %v, want ErrNoCredits", err)
	}

	state, err := svc.CurrentState(context.Background(), &user)
	if err != nil {
		t.Fatalf("CurrentState: %v", err)
	}
	if state.Credits != [models.EnhancementSlots]int{1, 0, 2, 2} {
		t.Errorf("credits = %v, want the balance untouched", state.Credits)
	}
}

func TestCurrentStateBackfillsMissingRow(t *testing.T) {
	svc := storeBackedService(newFakeEntitlementStore())
	user := models.User{ID: "u1", Email: "user@example.com"}

	state, err := svc.CurrentState(context.Background(), &user)
	if err != nil {
		t.Fatalf("CurrentState: %v", err)
	}
	if state.Premium {
		t.Error("backfilled row should not be premium")
	}
	if state.Credits != models.DefaultCredits() {
		t.Errorf("credits = %v, want the default balance", state.Credits)
	}
}

func TestUpgradeResetsCreditsIdempotently(t *testing.T) {
	store := newFakeEntitlementStore()
	store.rows["u1"] = models.Entitlement{
		UserID:  "u1",
		Credits: [models.EnhancementSlots]int{0, 0, 0, 1},
	}
	svc := storeBackedService(store)
	user := models.User{ID: "u1", Email: "user@example.com"}

	for i := 0; i < 2; i++ {
		ent, err := svc.Upgrade(context.Background(), user, models.PlanPro)
		if err != nil {
			t.Fatalf("Upgrade #%d: %v", i+1, err)
		}
		if !ent.Premium {
			t.Fatal("upgraded account should be premium")
		}
		if ent.Credits != models.PremiumCredits() {
			t.Errorf("credits = %v, want the premium refill", ent.Credits)
		}
	}
}

func TestDemoGateRespectsDisabledFlag(t *testing.T) {
	cfg := &config.AppConfig{
		Demo: config.DemoConfig{Enabled: false, Email: "demo@example.com"},
	}
	svc := NewEntitlementService(nil, cfg, zerolog.Nop())

	if svc.isDemo("demo@example.com") {
		t.Error("disabled gate still matches the demo email")
	}
}

func TestDemoGateRequiresConfiguredEmail(t *testing.T) {
	cfg := &config.AppConfig{
		Demo: config.DemoConfig{Enabled: true},
	}
	svc := NewEntitlementService(nil, cfg, zerolog.Nop())

	if svc.isDemo("") {
		t.Error("empty email matched empty configured email")
	}
}

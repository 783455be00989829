package handlers

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"sublimarket/internal/models"
)

func productionTestOrder(items int) *models.Order {
	o := &models.Order{
		OrderNumber: "ORD-20260828-PROD01",
		Status:      models.OrderApproved,
	}
	for i := 0; i < items; i++ {
		o.Items = append(o.Items, models.OrderItem{
			Quantity:         1,
			Status:           models.ItemPending,
			ProductionStages: newProductionStages(),
		})
	}
	return o
}

func TestFirstStageStartsProduction(t *testing.T) {
	o := productionTestOrder(1)
	actor := primitive.NewObjectID()

	if err := applyProductionStage(o, "sourcing", &actor, "", "", time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if o.Status != models.OrderInProduction {
		t.Fatalf("expected auto-transition to in_production, got %s", o.Status)
	}
	if len(o.StatusHistory) != 1 {
		t.Fatalf("expected one history entry, got %d", len(o.StatusHistory))
	}
	if o.Items[0].ProductionProgress != 1.0/6.0 {
		t.Fatalf("expected progress 1/6, got %v", o.Items[0].ProductionProgress)
	}
	if o.Items[0].Status != models.ItemInProduction {
		t.Fatalf("expected item in_production, got %s", o.Items[0].Status)
	}
}

func TestStageCompletionIsIdempotent(t *testing.T) {
	o := productionTestOrder(1)
	actor := primitive.NewObjectID()
	now := time.Now()

	if err := applyProductionStage(o, "printing", &actor, "first run", "", now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	firstProgress := o.Items[0].ProductionProgress
	firstCompletedAt := *o.Items[0].ProductionStages["printing"].CompletedAt

	if err := applyProductionStage(o, "printing", &actor, "second run", "", now.Add(time.Hour)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if o.Items[0].ProductionProgress < firstProgress {
		t.Fatalf("progress went backwards: %v -> %v", firstProgress, o.Items[0].ProductionProgress)
	}
	if got := *o.Items[0].ProductionStages["printing"].CompletedAt; !got.Equal(firstCompletedAt) {
		t.Fatal("re-marking a completed stage must keep the original completion record")
	}
	if o.Items[0].ProductionStages["printing"].Notes != "first run" {
		t.Fatal("re-marking a completed stage must keep the original notes")
	}
}

func TestAllStagesCompleteMakesOrderReady(t *testing.T) {
	o := productionTestOrder(2)
	actor := primitive.NewObjectID()
	now := time.Now()

	for _, stage := range models.StageNames {
		if err := applyProductionStage(o, stage, &actor, "", "", now); err != nil {
			t.Fatalf("stage %s: unexpected error: %v", stage, err)
		}
	}

	if o.Status != models.OrderReadyForDelivery {
		t.Fatalf("expected ready_for_delivery, never anything past it, got %s", o.Status)
	}
	for i, item := range o.Items {
		if item.Status != models.ItemReady {
			t.Fatalf("item %d: expected ready, got %s", i, item.Status)
		}
		if item.ProductionProgress != 1 {
			t.Fatalf("item %d: expected progress 1, got %v", i, item.ProductionProgress)
		}
	}

	// History: approved -> in_production -> ready_for_delivery.
	if len(o.StatusHistory) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(o.StatusHistory))
	}
	if last := o.StatusHistory[len(o.StatusHistory)-1]; last.New != models.OrderReadyForDelivery {
		t.Fatalf("last transition should be ready_for_delivery, got %s", last.New)
	}
}

func TestUnknownStageRejected(t *testing.T) {
	o := productionTestOrder(1)
	err := applyProductionStage(o, "polishing", nil, "", "", time.Now())
	if err == nil {
		t.Fatal("expected error for unknown stage")
	}
	oe, ok := err.(orderError)
	if !ok || oe.Code != CodeInvalidStage {
		t.Fatalf("expected INVALID_STAGE, got %+v", err)
	}
}

func TestStageUpdateRejectedOutsideProduction(t *testing.T) {
	for _, status := range []string{
		models.OrderPendingApproval, models.OrderQuoted,
		models.OrderDelivered, models.OrderCancelled,
	} {
		o := productionTestOrder(1)
		o.Status = status
		err := applyProductionStage(o, "sourcing", nil, "", "", time.Now())
		if err == nil {
			t.Fatalf("expected rejection for status %s", status)
		}
	}
}

func TestProductionPhotoAppendedWithPendingApproval(t *testing.T) {
	o := productionTestOrder(1)
	actor := primitive.NewObjectID()

	if err := applyProductionStage(o, "sublimating", &actor, "", "https://cdn.example.test/p1.jpg", time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(o.ProductionPhotos) != 1 {
		t.Fatalf("expected one production photo, got %d", len(o.ProductionPhotos))
	}
	if o.ProductionPhotos[0].Approval != "pending" {
		t.Fatalf("expected pending approval, got %s", o.ProductionPhotos[0].Approval)
	}
}

func TestStatusTransitionTable(t *testing.T) {
	allowed := [][2]string{
		{models.OrderPendingApproval, models.OrderQuoted},
		{models.OrderQuoted, models.OrderApproved},
		{models.OrderReadyForDelivery, models.OrderDelivered},
		{models.OrderDelivered, models.OrderCompleted},
	}
	for _, pair := range allowed {
		if !statusTransitionAllowed(pair[0], pair[1]) {
			t.Fatalf("expected %s -> %s to be allowed", pair[0], pair[1])
		}
	}

	forbidden := [][2]string{
		{models.OrderReadyForDelivery, models.OrderCompleted}, // must pass through delivered
		{models.OrderDelivered, models.OrderInProduction},
		{models.OrderCancelled, models.OrderApproved},
		{models.OrderPendingApproval, models.OrderDelivered},
	}
	for _, pair := range forbidden {
		if statusTransitionAllowed(pair[0], pair[1]) {
			t.Fatalf("expected %s -> %s to be rejected", pair[0], pair[1])
		}
	}
}

package handlers

import (
	"testing"
	"time"

	"sublimarket/internal/models"
)

func deliveryRequest(phone string) createOrderRequest {
	return createOrderRequest{
		DeliveryType: models.DeliveryTypeDelivery,
		Address: &orderAddressRequest{
			Department:   "San Salvador",
			Municipality: "San Salvador",
			Street:       "Calle Los Sisimiles #12",
			Phone:        phone,
		},
	}
}

func meetupRequest(date time.Time) createOrderRequest {
	return createOrderRequest{
		DeliveryType: models.DeliveryTypeMeetup,
		Meetup: &orderMeetupRequest{
			Location: "Metrocentro, San Salvador",
			Date:     date,
		},
	}
}

func TestBuildDeliveryDetailsAcceptsValidAddress(t *testing.T) {
	delivery, meetup, err := buildDeliveryDetails(deliveryRequest("7777-1234"), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	if meetup != nil {
		t.Fatal("expected no meetup details for delivery type")
	}
	if delivery == nil || delivery.Department != "San Salvador" {
		t.Fatalf("delivery details not built: %+v", delivery)
	}
}

func TestBuildDeliveryDetailsPhoneFormats(t *testing.T) {
	valid := []string{"7777-1234", "77771234", "2250-0001", "6000-0000"}
	for _, phone := range valid {
		if _, _, err := buildDeliveryDetails(deliveryRequest(phone), time.Now()); err != nil {
			t.Fatalf("expected phone %q to be accepted, got %+v", phone, err)
		}
	}

	invalid := []string{"1234-5678", "777-1234", "7777-12345", "abc", ""}
	for _, phone := range invalid {
		_, _, err := buildDeliveryDetails(deliveryRequest(phone), time.Now())
		if err == nil {
			t.Fatalf("expected phone %q to be rejected", phone)
		}
		if err.Code != CodeInvalidPhone {
			t.Fatalf("expected INVALID_PHONE for %q, got %s", phone, err.Code)
		}
	}
}

func TestBuildDeliveryDetailsMissingAddressFields(t *testing.T) {
	req := deliveryRequest("7777-1234")
	req.Address.Street = "  "

	_, _, err := buildDeliveryDetails(req, time.Now())
	if err == nil || err.Code != CodeInvalidAddress {
		t.Fatalf("expected INVALID_ADDRESS, got %+v", err)
	}
}

func TestBuildDeliveryDetailsMeetupWindow(t *testing.T) {
	now := time.Now()

	// now+1h must be rejected, now+25h accepted.
	_, _, err := buildDeliveryDetails(meetupRequest(now.Add(time.Hour)), now)
	if err == nil || err.Code != CodeInvalidMeetupDate {
		t.Fatalf("expected INVALID_MEETUP_DATE for now+1h, got %+v", err)
	}

	_, meetup, err := buildDeliveryDetails(meetupRequest(now.Add(25*time.Hour)), now)
	if err != nil {
		t.Fatalf("expected now+25h to be accepted, got %+v", err)
	}
	if meetup == nil || meetup.Location == "" {
		t.Fatalf("meetup details not built: %+v", meetup)
	}
}

func TestBuildDeliveryDetailsMeetupBoundary(t *testing.T) {
	now := time.Now()

	if _, _, err := buildDeliveryDetails(meetupRequest(now.Add(24*time.Hour-time.Minute)), now); err == nil {
		t.Fatal("expected 23h59m to be rejected")
	}
	if _, _, err := buildDeliveryDetails(meetupRequest(now.Add(24*time.Hour+time.Minute)), now); err != nil {
		t.Fatalf("expected 24h01m to be accepted, got %+v", err)
	}
}

func TestNewProductionStagesCoversAllSix(t *testing.T) {
	stages := newProductionStages()
	if len(stages) != 6 {
		t.Fatalf("expected 6 stages, got %d", len(stages))
	}
	for _, name := range models.StageNames {
		stage, ok := stages[name]
		if !ok {
			t.Fatalf("missing stage %q", name)
		}
		if stage.Completed {
			t.Fatalf("stage %q must start incomplete", name)
		}
	}
}

func TestCardBrand(t *testing.T) {
	cases := map[string]string{
		"4111111111111111": "visa",
		"5500000000000004": "mastercard",
		"340000000000009":  "amex",
		"6011000000000004": "card",
	}
	for number, want := range cases {
		if got := cardBrand(number); got != want {
			t.Fatalf("cardBrand(%s) = %s, want %s", number, got, want)
		}
	}
}

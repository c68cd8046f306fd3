package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rohanjoshi-dev/bitekart-backend/api/middleware"
	checkoutsvc "github.com/rohanjoshi-dev/bitekart-backend/internal/checkout"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/db/models"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/enums"
	pkgerrors "github.com/rohanjoshi-dev/bitekart-backend/pkg/errors"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/razorpay"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/types"
)

type stubCheckoutService struct {
	checkout func(ctx context.Context, input checkoutsvc.Input) (*checkoutsvc.Result, error)
}

func (s *stubCheckoutService) Checkout(ctx context.Context, input checkoutsvc.Input) (*checkoutsvc.Result, error) {
	return s.checkout(ctx, input)
}

func checkoutRequestBody(t *testing.T, mode string) *strings.Reader {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"delivery_address": "12 MG Road, Pune",
		"payment_mode":     mode,
		"distance_km":      2.5,
	})
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return strings.NewReader(string(raw))
}

func asCustomer(r *http.Request, userID int64) *http.Request {
	ctx := middleware.WithIdentity(r.Context(), userID, enums.RoleCustomer, nil)
	return r.WithContext(ctx)
}

func TestCheckoutCODReturnsCreatedWithoutIntent(t *testing.T) {
	svc := &stubCheckoutService{
		checkout: func(ctx context.Context, input checkoutsvc.Input) (*checkoutsvc.Result, error) {
			if input.UserID != 9 {
				t.Fatalf("expected user 9, got %d", input.UserID)
			}
			if input.PaymentMode != enums.PaymentModeCOD {
				t.Fatalf("expected cod mode, got %s", input.PaymentMode)
			}
			return &checkoutsvc.Result{Order: &models.Order{
				ID:            101,
				Status:        enums.OrderStatusPlaced,
				PaymentMode:   enums.PaymentModeCOD,
				PaymentStatus: enums.PaymentStatusCOD,
				TotalPaise:    45000,
			}}, nil
		},
	}

	r := httptest.NewRequest(http.MethodPost, "/api/v1/orders", checkoutRequestBody(t, "cod"))
	w := httptest.NewRecorder()
	Checkout(svc, nil)(w, asCustomer(r, 9))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", w.Code, w.Body.String())
	}

	var body types.SuccessEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	payload := body.Data.(map[string]any)
	if payload["payment_required"] != false {
		t.Fatalf("cod checkout must not require payment: %v", payload)
	}
	if _, ok := payload["payment_details"]; ok {
		t.Fatalf("cod checkout must omit payment details: %v", payload)
	}
}

func TestCheckoutOnlineIncludesGatewayIntent(t *testing.T) {
	svc := &stubCheckoutService{
		checkout: func(ctx context.Context, input checkoutsvc.Input) (*checkoutsvc.Result, error) {
			return &checkoutsvc.Result{
				Order: &models.Order{
					ID:            102,
					Status:        enums.OrderStatusPending,
					PaymentMode:   enums.PaymentModeOnline,
					PaymentStatus: enums.PaymentStatusPending,
					TotalPaise:    80000,
				},
				Intent: &razorpay.OrderIntent{
					GatewayOrderID: "order_razor123",
					AmountPaise:    80000,
					Currency:       "INR",
					KeyID:          "rzp_test_key",
				},
			}, nil
		},
	}

	r := httptest.NewRequest(http.MethodPost, "/api/v1/orders", checkoutRequestBody(t, "online"))
	w := httptest.NewRecorder()
	Checkout(svc, nil)(w, asCustomer(r, 9))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", w.Code, w.Body.String())
	}

	var body types.SuccessEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	payload := body.Data.(map[string]any)
	if payload["payment_required"] != true {
		t.Fatalf("online checkout must require payment: %v", payload)
	}
	details := payload["payment_details"].(map[string]any)
	if details["gateway_order_id"] != "order_razor123" {
		t.Fatalf("unexpected intent payload %v", details)
	}
}

func TestCheckoutRejectsUnknownPaymentMode(t *testing.T) {
	svc := &stubCheckoutService{
		checkout: func(ctx context.Context, input checkoutsvc.Input) (*checkoutsvc.Result, error) {
			t.Fatal("service must not be called for an invalid mode")
			return nil, nil
		},
	}

	r := httptest.NewRequest(http.MethodPost, "/api/v1/orders", checkoutRequestBody(t, "cheque"))
	w := httptest.NewRecorder()
	Checkout(svc, nil)(w, asCustomer(r, 9))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", w.Code, w.Body.String())
	}
}

func TestCheckoutPropagatesServiceErrors(t *testing.T) {
	svc := &stubCheckoutService{
		checkout: func(ctx context.Context, input checkoutsvc.Input) (*checkoutsvc.Result, error) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
		},
	}

	r := httptest.NewRequest(http.MethodPost, "/api/v1/orders", checkoutRequestBody(t, "cod"))
	w := httptest.NewRecorder()
	Checkout(svc, nil)(w, asCustomer(r, 9))

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d body=%s", w.Code, w.Body.String())
	}
}

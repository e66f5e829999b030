package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/go-chi/chi"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	apperrors "github.com/veedsify/mightyshare-api/internal"
	"github.com/veedsify/mightyshare-api/internal/auth"
	"github.com/veedsify/mightyshare-api/internal/transport"
)

// stubService returns canned responses so the handler tests only exercise
// transport concerns.
type stubService struct {
	openResponse   *InitiatePaymentResponse
	openErr        error
	verifyResult   *SettlementResult
	verifyErr      error
	callbackResult *CallbackResponse
	callbackErr    error

	verifiedOrderID string
	topupCalled     bool
}

func (s *stubService) OpenPayment(ctx context.Context, userID int64, dto *InitiatePaymentDTO) (*InitiatePaymentResponse, error) {
	return s.openResponse, s.openErr
}

func (s *stubService) VerifyAndSettle(ctx context.Context, orderID string, userID int64) (*SettlementResult, error) {
	s.verifiedOrderID = orderID
	return s.verifyResult, s.verifyErr
}

func (s *stubService) VerifyAndSettleTopup(ctx context.Context, orderID string, userID int64) (*SettlementResult, error) {
	s.verifiedOrderID = orderID
	s.topupCalled = true
	return s.verifyResult, s.verifyErr
}

func (s *stubService) SettleFromCallback(ctx context.Context, dto *CallbackDTO) (*CallbackResponse, error) {
	return s.callbackResult, s.callbackErr
}

func (s *stubService) GetPayment(orderID string, userID int64) (*Payment, error) {
	return nil, apperrors.ErrPaymentNotFound
}

var _ = ginkgo.Describe("Payment Handlers", func() {
	var (
		stub    *stubService
		handler *Handler
		webhook *WebhookHandler
		router  *chi.Mux
	)

	authed := func(req *http.Request) *http.Request {
		return req.WithContext(auth.ContextWithUser(req.Context(), &auth.User{ID: 1, Email: "member@example.com"}))
	}

	ginkgo.BeforeEach(func() {
		stub = &stubService{}
		base := transport.NewBaseHandler(discardLogger())
		handler = NewHandler(base, stub)
		webhook = NewWebhookHandler(base, stub)

		router = chi.NewRouter()
		router.Post("/payments", handler.InitiatePayment)
		router.Get("/payments/{orderID}", handler.GetPayment)
		router.Get("/payments/{orderID}/verify", handler.VerifyPayment)
		router.Get("/payments/{orderID}/verify-topup", handler.VerifyTopup)
		router.Post("/payments/callback", webhook.HandleCallback)
	})

	ginkgo.Describe("InitiatePayment", func() {
		ginkgo.It("should return the opened payment", func() {
			stub.openResponse = &InitiatePaymentResponse{
				OrderID:  "ORD1234",
				Amount:   5000,
				Currency: "NGN",
				Status:   StatusPending,
			}

			body, _ := json.Marshal(map[string]interface{}{
				"amount": 5000, "email": "member@example.com", "phone": "+2348011111111",
				"first_name": "Ada", "last_name": "Obi",
			})
			req := authed(httptest.NewRequest(http.MethodPost, "/payments", bytes.NewReader(body)))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))
			var resp InitiatePaymentResponse
			gomega.Expect(json.NewDecoder(w.Body).Decode(&resp)).To(gomega.Succeed())
			gomega.Expect(resp.OrderID).To(gomega.Equal("ORD1234"))
		})

		ginkgo.It("should reject an unauthenticated request", func() {
			req := httptest.NewRequest(http.MethodPost, "/payments", bytes.NewReader([]byte(`{}`)))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusUnauthorized))
		})

		ginkgo.It("should reject a malformed body", func() {
			req := authed(httptest.NewRequest(http.MethodPost, "/payments", bytes.NewReader([]byte(`{not json`))))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusUnprocessableEntity))
		})
	})

	ginkgo.Describe("VerifyPayment", func() {
		ginkgo.It("should pass the order id through and return the settlement", func() {
			now := time.Now().UTC()
			stub.verifyResult = &SettlementResult{
				OrderID:        "ORD1234",
				Status:         StatusSuccessful,
				VerifiedAmount: 5000,
				CreditedAmount: 2500,
				FeeDeducted:    2500,
				VerifiedAt:     &now,
			}

			req := authed(httptest.NewRequest(http.MethodGet, "/payments/ORD1234/verify", nil))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(stub.verifiedOrderID).To(gomega.Equal("ORD1234"))
			gomega.Expect(stub.topupCalled).To(gomega.BeFalse())
		})

		ginkgo.It("should route topup verification to the topup path", func() {
			stub.verifyResult = &SettlementResult{OrderID: "ORD1234", Status: StatusSuccessful}

			req := authed(httptest.NewRequest(http.MethodGet, "/payments/ORD1234/verify-topup", nil))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(stub.topupCalled).To(gomega.BeTrue())
		})

		ginkgo.It("should map an unknown order to 404", func() {
			stub.verifyErr = apperrors.ErrPaymentNotFound

			req := authed(httptest.NewRequest(http.MethodGet, "/payments/ORDNOPE/verify", nil))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusNotFound))
		})
	})

	ginkgo.Describe("HandleCallback", func() {
		ginkgo.It("should acknowledge a settled callback with the user snapshot", func() {
			stub.callbackResult = &CallbackResponse{
				Success: true,
				User:    CallbackUser{ID: 1, Email: "member@example.com"},
			}

			body, _ := json.Marshal(map[string]interface{}{
				"transaction_status": "successful",
				"amount_paid":        5000,
				"customer":           map[string]string{"phone": "+2348011111111"},
			})
			req := httptest.NewRequest(http.MethodPost, "/payments/callback", bytes.NewReader(body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))
			var resp CallbackResponse
			gomega.Expect(json.NewDecoder(w.Body).Decode(&resp)).To(gomega.Succeed())
			gomega.Expect(resp.Success).To(gomega.BeTrue())
			gomega.Expect(resp.User.ID).To(gomega.Equal(int64(1)))
		})

		ginkgo.It("should surface a settlement failure", func() {
			stub.callbackErr = apperrors.ErrUserNotFound

			body, _ := json.Marshal(map[string]interface{}{
				"transaction_status": "successful",
				"amount_paid":        5000,
				"customer":           map[string]string{"phone": "+2348099999999"},
			})
			req := httptest.NewRequest(http.MethodPost, "/payments/callback", bytes.NewReader(body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusNotFound))
		})
	})
})

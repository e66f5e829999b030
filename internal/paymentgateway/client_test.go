package paymentgateway

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	gatewaytypes "github.com/veedsify/mightyshare-api/internal/core/datamodel/paymentgateway"
)

func TestPaymentGateway(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "PaymentGateway Suite")
}

var _ = Describe("Client", func() {
	var (
		server  *httptest.Server
		client  *Client
		handler http.HandlerFunc
	)

	newTestClient := func(baseURL string) *Client {
		return NewClient(Config{
			BaseURL:    baseURL,
			APIKey:     "test-key",
			BusinessID: "biz-1",
		}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	}

	BeforeEach(func() {
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handler(w, r)
		}))
		client = newTestClient(server.URL)
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("IsConfigured", func() {
		It("should be false when any credential is missing", func() {
			c := NewClient(Config{BaseURL: "https://api.example.com"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
			Expect(c.IsConfigured()).To(BeFalse())
		})

		It("should default the currency to NGN", func() {
			Expect(client.Currency()).To(Equal("NGN"))
		})
	})

	Describe("CreateVirtualAccount", func() {
		customer := gatewaytypes.Customer{
			Email:     "member@example.com",
			Phone:     "+2348011111111",
			FirstName: "Ada",
			LastName:  "Obi",
		}

		It("should send credentials and unwrap the envelope", func() {
			var gotAuth string
			var gotReq gatewaytypes.VirtualAccountRequest
			handler = func(w http.ResponseWriter, r *http.Request) {
				gotAuth = r.Header.Get("Authorization")
				Expect(r.Method).To(Equal(http.MethodPost))
				Expect(r.URL.Path).To(Equal("/virtualAccount"))
				Expect(json.NewDecoder(r.Body).Decode(&gotReq)).To(Succeed())

				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"status":true,"message":"ok","data":{"accountNumber":"9012345678","bankName":"Test Bank","accountName":"Ada Obi"}}`))
			}

			va, err := client.CreateVirtualAccount(context.Background(), "ORD1234", 5000, "weekly thrift", customer)

			Expect(err).NotTo(HaveOccurred())
			Expect(gotAuth).To(Equal("Bearer test-key"))
			Expect(gotReq.BusinessID).To(Equal("biz-1"))
			Expect(gotReq.OrderID).To(Equal("ORD1234"))
			Expect(gotReq.Amount).To(Equal(int64(5000)))
			Expect(va.AccountNumber).To(Equal("9012345678"))
			// the order id is stamped on even when the provider omits it
			Expect(va.OrderID).To(Equal("ORD1234"))
		})

		It("should turn a false-status envelope into a GatewayError", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"status":false,"message":"insufficient merchant balance"}`))
			}

			_, err := client.CreateVirtualAccount(context.Background(), "ORD1234", 5000, "", customer)

			var gwErr *gatewaytypes.GatewayError
			Expect(err).To(BeAssignableToTypeOf(gwErr))
			Expect(err.Error()).To(ContainSubstring("insufficient merchant balance"))
		})

		It("should turn a non-2xx response into a GatewayError with the status code", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			}

			_, err := client.CreateVirtualAccount(context.Background(), "ORD1234", 5000, "", customer)

			gwErr, ok := err.(*gatewaytypes.GatewayError)
			Expect(ok).To(BeTrue())
			Expect(gwErr.StatusCode).To(Equal(http.StatusBadGateway))
		})

		It("should reject a zero amount before any network call", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				Fail("no request expected")
			}

			_, err := client.CreateVirtualAccount(context.Background(), "ORD1234", 0, "", customer)
			Expect(err).To(HaveOccurred())
		})

		It("should return ErrNotConfigured without credentials", func() {
			c := NewClient(Config{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

			_, err := c.CreateVirtualAccount(context.Background(), "ORD1234", 5000, "", customer)
			Expect(err).To(Equal(ErrNotConfigured))
		})
	})

	Describe("GetTransaction", func() {
		It("should normalize the provider status", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/transactions/TX-1"))
				w.Write([]byte(`{"status":true,"data":{"status":"success","amount":5000,"transactionId":"TX-1","reference":"REF-1"}}`))
			}

			tx, err := client.GetTransaction(context.Background(), "TX-1")

			Expect(err).NotTo(HaveOccurred())
			Expect(tx.Status).To(Equal(gatewaytypes.TxStatusCompleted))
			Expect(tx.Amount).To(Equal(int64(5000)))
			Expect(tx.Reference).To(Equal("REF-1"))
		})

		It("should map an unrecognized status to unknown", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"status":true,"data":{"status":"weird","amount":5000,"transactionId":"TX-1"}}`))
			}

			tx, err := client.GetTransaction(context.Background(), "TX-1")

			Expect(err).NotTo(HaveOccurred())
			Expect(tx.Status).To(Equal(gatewaytypes.TxStatusUnknown))
		})

		It("should reject an empty transaction id", func() {
			_, err := client.GetTransaction(context.Background(), "")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("VerifyCheckout", func() {
		It("should read the bare data wrapper", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/checkout/verify/REF-9"))
				w.Write([]byte(`{"data":{"status":"success","amount":2500,"transactionId":"TX-9","reference":"REF-9"}}`))
			}

			tx, err := client.VerifyCheckout(context.Background(), "REF-9")

			Expect(err).NotTo(HaveOccurred())
			Expect(tx.Status).To(Equal(gatewaytypes.TxStatusCompleted))
			Expect(tx.Amount).To(Equal(int64(2500)))
		})
	})
})

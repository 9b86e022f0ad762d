package saweria

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"comicku.id/economy/internal/common"
)

const profileHTML = `<html><body>
<script id="__NEXT_DATA__" type="application/json">{"props":{"pageProps":{"data":{"id":"creator-123"}}}}</script>
</body></html>`

func newTestClient(t *testing.T, frontend, backend http.Handler) *Client {
	t.Helper()
	fe := httptest.NewServer(frontend)
	be := httptest.NewServer(backend)
	t.Cleanup(fe.Close)
	t.Cleanup(be.Close)
	return NewClient("comicku", fe.URL, be.URL, 2*time.Second)
}

func TestExtractNextData(t *testing.T) {
	blob, err := extractNextData(profileHTML)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"props":{"pageProps":{"data":{"id":"creator-123"}}}}`
	if blob != want {
		t.Errorf("blob = %q, want %q", blob, want)
	}

	if _, err := extractNextData("<html>no data</html>"); !errors.Is(err, common.ErrGateway) {
		t.Errorf("missing marker err = %v, want ErrGateway", err)
	}
	if _, err := extractNextData(`<script id="__NEXT_DATA__">unterminated`); !errors.Is(err, common.ErrGateway) {
		t.Errorf("unterminated tag err = %v, want ErrGateway", err)
	}
}

func TestCreateDonation(t *testing.T) {
	frontend := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/comicku" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, profileHTML)
	})
	backend := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/donations/creator-123" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"data":{"id":"don-42","qr_string":"00020101qris"}}`)
	})

	client := newTestClient(t, frontend, backend)
	intent, err := client.CreateDonation(context.Background(), 25000, "Budi", "budi@example.com", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if intent.Reference != "don-42" {
		t.Errorf("Reference = %q, want don-42", intent.Reference)
	}
	if intent.QRString != "00020101qris" {
		t.Errorf("QRString = %q", intent.QRString)
	}
}

func TestCreateDonationBelowMinimum(t *testing.T) {
	client := NewClient("comicku", "http://unused", "http://unused", time.Second)

	_, err := client.CreateDonation(context.Background(), 500, "", "", "")
	if !errors.Is(err, common.ErrAmountTooSmall) {
		t.Fatalf("err = %v, want ErrAmountTooSmall", err)
	}
}

func TestCreateDonationProviderError(t *testing.T) {
	frontend := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, profileHTML)
	})
	backend := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"message":"donation amount too large"}`)
	})

	client := newTestClient(t, frontend, backend)
	_, err := client.CreateDonation(context.Background(), 25000, "", "", "")
	if !errors.Is(err, common.ErrGateway) {
		t.Fatalf("err = %v, want ErrGateway", err)
	}
	// The provider message must be carried in the wrapped error.
	if !strings.Contains(err.Error(), "donation amount too large") {
		t.Errorf("err = %q, want it to contain the provider message", err.Error())
	}
}

func TestCreateDonationUnknownCreator(t *testing.T) {
	frontend := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>not next.js</html>`)
	})
	backend := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	client := newTestClient(t, frontend, backend)
	_, err := client.CreateDonation(context.Background(), 25000, "", "", "")
	if !errors.Is(err, common.ErrGateway) {
		t.Fatalf("err = %v, want ErrGateway", err)
	}
}

func TestCreatorIDResolvedOnce(t *testing.T) {
	profileHits := 0
	frontend := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		profileHits++
		fmt.Fprint(w, profileHTML)
	})
	backend := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"id":"don-1","qr_string":"q"}}`)
	})

	client := newTestClient(t, frontend, backend)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := client.CreateDonation(ctx, 25000, "", "", ""); err != nil {
			t.Fatalf("donation %d: %v", i, err)
		}
	}
	if profileHits != 1 {
		t.Errorf("profile fetched %d times, want 1 (cached)", profileHits)
	}
}

func TestCheckStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantPaid bool
		wantErr  bool
	}{
		{"pending keeps qr_string", http.StatusOK, `{"data":{"qr_string":"00020101qris"}}`, false, false},
		{"paid clears qr_string", http.StatusOK, `{"data":{"qr_string":""}}`, true, false},
		{"null qr_string reads unpaid", http.StatusOK, `{"data":{"qr_string":null}}`, false, false},
		{"unknown reference", http.StatusNotFound, ``, false, false},
		{"provider error", http.StatusInternalServerError, ``, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})
			client := newTestClient(t, http.NotFoundHandler(), backend)

			paid, err := client.CheckStatus(context.Background(), "don-42")
			if tt.wantErr {
				if !errors.Is(err, common.ErrGateway) {
					t.Fatalf("err = %v, want ErrGateway", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if paid != tt.wantPaid {
				t.Errorf("paid = %v, want %v", paid, tt.wantPaid)
			}
		})
	}
}

package stellar

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/stellar/go/clients/horizonclient"
)

// HorizonAccounts loads account sequence numbers from a Horizon server
type HorizonAccounts struct {
	client horizonclient.ClientInterface
}

// NewHorizonAccounts creates an account loader for the Horizon server at url
func NewHorizonAccounts(url string) *HorizonAccounts {
	return &HorizonAccounts{
		client: &horizonclient.Client{
			HorizonURL: url,
			HTTP:       &http.Client{Timeout: 10 * time.Second},
		},
	}
}

// SequenceNumber returns the current sequence number of address
func (h *HorizonAccounts) SequenceNumber(ctx context.Context, address string) (int64, error) {
	account, err := h.client.AccountDetail(horizonclient.AccountRequest{AccountID: address})
	if err != nil {
		return 0, fmt.Errorf("loading account %s: %w", address, err)
	}

	return account.GetSequenceNumber()
}

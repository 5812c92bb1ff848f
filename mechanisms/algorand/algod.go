package algorand

import (
	"context"

	"github.com/algorand/go-algorand-sdk/v2/client/v2/algod"
	"github.com/algorand/go-algorand-sdk/v2/client/v2/common/models"
)

// AlgodClient is the subset of algod's HTTP API this provider depends on,
// narrowed to keep verify/settle testable without a live node.
type AlgodClient interface {
	// CurrentRound returns the chain's current round.
	CurrentRound(ctx context.Context) (uint64, error)

	// SendRawTransaction submits the concatenated msgpack-encoded signed
	// group and returns the first transaction's id.
	SendRawTransaction(ctx context.Context, signedGroup []byte) (string, error)

	// PendingTransactionInfo polls a submitted transaction's status.
	PendingTransactionInfo(ctx context.Context, txID string) (confirmedRound uint64, poolError string, err error)
}

// realAlgodClient adapts *algod.Client to AlgodClient.
type realAlgodClient struct {
	client *algod.Client
}

// NewAlgodClient builds an AlgodClient backed by a live algod node.
func NewAlgodClient(address, token string) (AlgodClient, error) {
	client, err := algod.MakeClient(address, token)
	if err != nil {
		return nil, err
	}
	return &realAlgodClient{client: client}, nil
}

func (c *realAlgodClient) CurrentRound(ctx context.Context) (uint64, error) {
	status, err := c.client.Status().Do(ctx)
	if err != nil {
		return 0, err
	}
	return status.LastRound, nil
}

func (c *realAlgodClient) SendRawTransaction(ctx context.Context, signedGroup []byte) (string, error) {
	return c.client.SendRawTransaction(signedGroup).Do(ctx)
}

func (c *realAlgodClient) PendingTransactionInfo(ctx context.Context, txID string) (uint64, string, error) {
	var info models.PendingTransactionInfoResponse
	var err error
	info, _, err = c.client.PendingTransactionInformation(txID).Do(ctx)
	if err != nil {
		return 0, "", err
	}
	return info.ConfirmedRound, info.PoolError, nil
}

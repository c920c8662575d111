package sniping

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap/zaptest"
)

func TestMintCheckerIsRenounced(t *testing.T) {
	authority := newKey()

	tests := []struct {
		name string
		data []byte
		err  error
		want bool
	}{
		{name: "renounced", data: mintData(0, solana.PublicKey{}), want: true},
		{name: "authority set", data: mintData(1, authority), want: false},
		{name: "option 2", data: mintData(2, authority), want: false},
		{name: "option max uint32", data: mintData(0xFFFFFFFF, authority), want: false},
		{name: "fetch error", err: errors.New("rpc unavailable"), want: false},
		{name: "short data", data: make([]byte, 10), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(MockClient)
			mint := newKey()
			client.On("GetAccountData", mock.Anything, mint).Return(tt.data, tt.err)

			checker := NewMintChecker(client, zaptest.NewLogger(t))
			assert.Equal(t, tt.want, checker.IsRenounced(context.Background(), mint))
			client.AssertExpectations(t)
		})
	}
}

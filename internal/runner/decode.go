package runner

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
)

var (
	errNoSignature = errors.New("transaction update missing signature")
	errNoMessage   = errors.New("transaction update missing message")
)

// matchTransaction extracts the base58 signature from a transaction update
// and reports whether the watched account appears among its account keys.
// Malformed updates return an error; callers drop the message and continue.
func matchTransaction(info *pb.SubscribeUpdateTransactionInfo, account string) (string, bool, error) {
	if info == nil || len(info.Signature) == 0 {
		return "", false, errNoSignature
	}
	msg := info.GetTransaction().GetMessage()
	if msg == nil {
		return "", false, errNoMessage
	}
	for _, key := range msg.GetAccountKeys() {
		if solana.PublicKeyFromBytes(key).String() == account {
			return solana.SignatureFromBytes(info.Signature).String(), true, nil
		}
	}
	return "", false, nil
}

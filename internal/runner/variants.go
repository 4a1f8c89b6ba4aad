package runner

import (
	"context"

	"github.com/gagliardetto/solana-go"
	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"

	"github.com/iamrekas/geyserbench/internal/domain"
	"github.com/iamrekas/geyserbench/internal/dualstream"
	"github.com/iamrekas/geyserbench/internal/report"
)

// filterKey names the single filter slot in every subscription request.
const filterKey = "account"

func (r *Runner) commitment() *pb.CommitmentLevel {
	c := r.opts.Commitment
	return &c
}

// transactionsHandler: server-side transaction filter on the watched account.
type transactionsHandler struct {
	r *Runner
}

func (h *transactionsHandler) logName() string { return h.r.opts.Endpoint.Name }

func (h *transactionsHandler) request() *pb.SubscribeRequest {
	return &pb.SubscribeRequest{
		Transactions: map[string]*pb.SubscribeRequestFilterTransactions{
			filterKey: {AccountInclude: []string{h.r.opts.Account}},
		},
		Commitment: h.r.commitment(),
	}
}

func (h *transactionsHandler) onUpdate(ctx context.Context, u *pb.SubscribeUpdate) (bool, error) {
	txu := u.GetTransaction()
	if txu == nil {
		return false, nil
	}
	r := h.r
	sig, ok, err := matchTransaction(txu.GetTransaction(), r.opts.Account)
	if err != nil {
		r.opts.Logger.Printf("[%s] drop transaction update for slot %d: %v",
			r.opts.Endpoint.Name, txu.GetSlot(), err)
		return false, nil
	}
	if !ok {
		return false, nil
	}
	ts := domain.Now()
	r.txCount++
	r.opts.Logger.Printf("[%.3f] [%s] slot %d signature %s",
		ts, r.opts.Endpoint.Name, txu.GetSlot(), sig)
	return r.observe(ctx, r.opts.Endpoint.Name, sig, ts)
}

func (h *transactionsHandler) onExit() {}

// dualHandler: transaction and account-update streams on one subscription,
// measuring the lead/lag between the two observation channels of the same
// source on top of the cross-endpoint race.
type dualHandler struct {
	r     *Runner
	local *dualstream.Local
}

func (h *dualHandler) logName() string { return h.r.opts.Endpoint.Name + "_dual_stream" }

func (h *dualHandler) request() *pb.SubscribeRequest {
	return &pb.SubscribeRequest{
		Transactions: map[string]*pb.SubscribeRequestFilterTransactions{
			filterKey: {AccountInclude: []string{h.r.opts.Account}},
		},
		// Account updates are not filterable by mentioned transaction, so
		// subscribe broadly and join on the carried transaction signature.
		Accounts: map[string]*pb.SubscribeRequestFilterAccounts{
			filterKey: {},
		},
		Commitment: h.r.commitment(),
	}
}

func (h *dualHandler) onUpdate(ctx context.Context, u *pb.SubscribeUpdate) (bool, error) {
	if txu := u.GetTransaction(); txu != nil {
		return h.onTransaction(ctx, txu)
	}
	if au := u.GetAccount(); au != nil {
		return false, h.onAccount(au)
	}
	return false, nil
}

func (h *dualHandler) onTransaction(ctx context.Context, txu *pb.SubscribeUpdateTransaction) (bool, error) {
	r := h.r
	name := r.opts.Endpoint.Name

	sig, ok, err := matchTransaction(txu.GetTransaction(), r.opts.Account)
	if err != nil {
		r.opts.Logger.Printf("[%s] drop transaction update for slot %d: %v", name, txu.GetSlot(), err)
		return false, nil
	}
	if !ok {
		return false, nil
	}

	ts := domain.Now()
	r.txCount++
	rec := h.local.ObserveTransaction(sig, name, ts)
	if r.opts.Global != nil {
		r.opts.Global.MergeTransaction(sig, name, ts)
	}
	if rec.AccountTime != 0 {
		r.opts.Logger.Printf("[%s] dual stream matched: tx %.3f, account %.3f, diff %.3fms - %s",
			name, ts, rec.AccountTime, domain.DeltaMs(rec.AccountTime, ts), sig)
	}
	return r.observe(ctx, name+"_TX", sig, ts)
}

func (h *dualHandler) onAccount(au *pb.SubscribeUpdateAccount) error {
	r := h.r
	name := r.opts.Endpoint.Name

	info := au.GetAccount()
	if info == nil {
		return nil
	}
	// Only account writes that carry their transaction signature can join
	// the race; the rest are unmatchable and dropped.
	sigBytes := info.GetTxnSignature()
	if len(sigBytes) == 0 {
		return nil
	}

	ts := domain.Now()
	sig := solana.SignatureFromBytes(sigBytes).String()
	r.acctCount++

	rec := h.local.ObserveAccount(sig, name, ts)
	if r.opts.Global != nil {
		r.opts.Global.MergeAccount(sig, name, ts)
	}

	if err := r.logf.WriteEntry(ts, name+"_ACCT", sig); err != nil {
		return err
	}

	if rec.TransactionTime != 0 {
		r.opts.Logger.Printf("[%s] dual stream matched: account %.3f, tx %.3f, diff %.3fms - %s",
			name, ts, rec.TransactionTime, domain.DeltaMs(ts, rec.TransactionTime), sig)
	}
	return nil
}

func (h *dualHandler) onExit() {
	report.SummarizeLocal(h.r.opts.Logger, h.r.opts.Endpoint.Name, h.local.Snapshot())
}

// blocksHandler: bundled transport. The subscription carries no server-side
// account filter; every transaction in every block is scanned client-side for
// the watched account.
type blocksHandler struct {
	r *Runner
}

func (h *blocksHandler) logName() string { return h.r.opts.Endpoint.Name }

func (h *blocksHandler) request() *pb.SubscribeRequest {
	includeTransactions := true
	return &pb.SubscribeRequest{
		Blocks: map[string]*pb.SubscribeRequestFilterBlocks{
			filterKey: {IncludeTransactions: &includeTransactions},
		},
		Commitment: h.r.commitment(),
	}
}

func (h *blocksHandler) onUpdate(ctx context.Context, u *pb.SubscribeUpdate) (bool, error) {
	block := u.GetBlock()
	if block == nil {
		return false, nil
	}
	r := h.r
	name := r.opts.Endpoint.Name

	for _, info := range block.GetTransactions() {
		sig, ok, err := matchTransaction(info, r.opts.Account)
		if err != nil {
			r.opts.Logger.Printf("[%s] drop bundled transaction in slot %d: %v",
				name, block.GetSlot(), err)
			continue
		}
		if !ok {
			continue
		}
		ts := domain.Now()
		r.txCount++
		r.opts.Logger.Printf("[%.3f] [%s] slot %d signature %s", ts, name, block.GetSlot(), sig)
		stop, err := r.observe(ctx, name, sig, ts)
		if err != nil {
			return false, err
		}
		if stop {
			return true, nil
		}
	}
	return false, nil
}

func (h *blocksHandler) onExit() {}

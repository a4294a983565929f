// Package ledger submits property transactions to the rental agreement
// contract and waits for them to be mined.
package ledger

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/lsiproject/propertyhub/internal/config"
	"github.com/lsiproject/propertyhub/internal/domain"
)

var tracer = otel.Tracer("ledger")

const contractABI = `[
	{"type":"function","name":"updateProperty","stateMutability":"nonpayable","outputs":[],"inputs":[
		{"name":"propertyId","type":"uint256"},
		{"name":"rentAmount","type":"uint256"},
		{"name":"securityDeposit","type":"uint256"},
		{"name":"isAvailable","type":"bool"}]},
	{"type":"function","name":"delistProperty","stateMutability":"nonpayable","outputs":[],"inputs":[
		{"name":"propertyId","type":"uint256"}]}
]`

const (
	methodUpdate = "updateProperty"
	methodDelist = "delistProperty"
)

type transactor interface {
	Transact(opts *bind.TransactOpts, method string, params ...any) (*types.Transaction, error)
}

type waitFunc func(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)

// EthLedger signs with a single service key. Transactions are serialized so
// nonces are assigned in order.
type EthLedger struct {
	mu       sync.Mutex
	contract transactor
	auth     *bind.TransactOpts
	wait     waitFunc
}

func ParseABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(contractABI))
}

// Dial connects to the RPC endpoint and binds the contract. The returned
// close function releases the connection.
func Dial(ctx context.Context, conf config.Ledger) (*EthLedger, func(), error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(conf.PrivateKey, "0x"))
	if err != nil {
		return nil, nil, errors.Wrap(err, "invalid ledger private key")
	}

	client, err := ethclient.DialContext(ctx, conf.RPCURL)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to dial ledger rpc")
	}

	chainID := big.NewInt(conf.ChainID)
	if conf.ChainID == 0 {
		chainID, err = client.ChainID(ctx)
		if err != nil {
			client.Close()
			return nil, nil, errors.Wrap(err, "failed to read chain id")
		}
	}

	parsed, err := ParseABI()
	if err != nil {
		client.Close()
		return nil, nil, err
	}

	address := common.HexToAddress(conf.ContractAddress)
	contract := bind.NewBoundContract(address, parsed, client, client, client)

	l, err := newEthLedger(contract, key, chainID, conf.GasLimit, func(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
		return bind.WaitMined(ctx, client, tx)
	})
	if err != nil {
		client.Close()
		return nil, nil, err
	}

	slog.Info(
		"Ledger connected",
		slog.String("contract", address.Hex()),
		slog.String("chainId", chainID.String()),
		slog.String("sender", l.auth.From.Hex()),
		slog.String("module", "ledger"),
	)

	return l, client.Close, nil
}

func newEthLedger(contract transactor, key *ecdsa.PrivateKey, chainID *big.Int, gasLimit uint64, wait waitFunc) (*EthLedger, error) {
	auth, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create transactor")
	}
	auth.GasLimit = gasLimit
	return &EthLedger{
		contract: contract,
		auth:     auth,
		wait:     wait,
	}, nil
}

func (l *EthLedger) UpdateProperty(ctx context.Context, update domain.LedgerUpdate) error {
	ctx, span := tracer.Start(ctx, "Ledger.UpdateProperty", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.Int64("OnChainId", update.OnChainID))

	err := l.submit(ctx, methodUpdate,
		big.NewInt(update.OnChainID),
		orZero(update.RentAmount),
		orZero(update.SecurityDeposit),
		update.IsAvailable,
	)
	if err != nil {
		span.RecordError(err)
	}
	return err
}

func (l *EthLedger) DelistProperty(ctx context.Context, onChainID int64) error {
	ctx, span := tracer.Start(ctx, "Ledger.DelistProperty", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.Int64("OnChainId", onChainID))

	err := l.submit(ctx, methodDelist, big.NewInt(onChainID))
	if err != nil {
		span.RecordError(err)
	}
	return err
}

func (l *EthLedger) submit(ctx context.Context, method string, params ...any) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	opts := *l.auth
	opts.Context = ctx

	tx, err := l.contract.Transact(&opts, method, params...)
	if err != nil {
		return errors.Wrapf(err, "%s: submit", method)
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("TxHash", tx.Hash().Hex()))

	receipt, err := l.wait(ctx, tx)
	if err != nil {
		return errors.Wrapf(err, "%s: wait for %s", method, tx.Hash().Hex())
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("%s: transaction %s reverted", method, tx.Hash().Hex())
	}

	slog.InfoContext(
		ctx, "Ledger transaction mined",
		slog.String("method", method),
		slog.String("tx", tx.Hash().Hex()),
		slog.Uint64("block", receipt.BlockNumber.Uint64()),
		slog.String("module", "ledger"),
	)
	return nil
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

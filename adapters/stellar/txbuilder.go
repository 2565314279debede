package stellar

import (
	"context"
	"fmt"

	"github.com/layer-3/remitwise/core"
	"github.com/layer-3/remitwise/ports"
	"github.com/rs/zerolog"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/strkey"
	"github.com/stellar/go/txnbuild"
	"github.com/stellar/go/xdr"
)

// DefaultTxTimeout is how long, in seconds, a built transaction stays valid
const DefaultTxTimeout = 300

// AccountLoader returns the current sequence number of an account
type AccountLoader interface {
	SequenceNumber(ctx context.Context, address string) (int64, error)
}

// TxBuilderConfig configures the transaction builder
type TxBuilderConfig struct {
	NetworkPassphrase string
	Contracts         map[core.Contract]string // contract name -> C... contract id
	Timeout           int64

	// ServerSigner co-signs every transaction when set (custodial mode)
	ServerSigner *keypair.Full
}

// TxBuilder wraps contract invocations into unsigned Soroban transactions
type TxBuilder struct {
	cfg      TxBuilderConfig
	accounts AccountLoader
	logger   zerolog.Logger
}

// NewTxBuilder creates a new transaction builder
func NewTxBuilder(cfg TxBuilderConfig, accounts AccountLoader, logger zerolog.Logger) ports.ContractInvoker {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTxTimeout
	}
	return &TxBuilder{
		cfg:      cfg,
		accounts: accounts,
		logger:   logger.With().Str("component", "txbuilder").Logger(),
	}
}

// BuildInvocation returns the base64 XDR envelope of a transaction with a
// single InvokeHostFunction operation calling inv.Function.
func (b *TxBuilder) BuildInvocation(ctx context.Context, inv core.Invocation) (string, error) {
	contractID := b.cfg.Contracts[inv.Contract]
	if contractID == "" {
		return "", fmt.Errorf("%s: %w", inv.Contract, core.ErrContractNotConfigured)
	}

	contract, err := contractAddress(contractID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", inv.Contract, err)
	}

	args := make([]xdr.ScVal, 0, len(inv.Args))
	for i, arg := range inv.Args {
		val, err := toScVal(arg)
		if err != nil {
			return "", fmt.Errorf("argument %d of %s: %w", i, inv.Function, err)
		}
		args = append(args, val)
	}

	sequence, err := b.accounts.SequenceNumber(ctx, inv.Source)
	if err != nil {
		// Unfunded or unreachable: the wallet re-sequences before submitting
		b.logger.Warn().Err(err).Str("address", inv.Source).Msg("falling back to sequence 0")
		sequence = 0
	}

	op := &txnbuild.InvokeHostFunction{
		HostFunction: xdr.HostFunction{
			Type: xdr.HostFunctionTypeHostFunctionTypeInvokeContract,
			InvokeContract: &xdr.InvokeContractArgs{
				ContractAddress: contract,
				FunctionName:    xdr.ScSymbol(inv.Function),
				Args:            args,
			},
		},
	}

	tx, err := txnbuild.NewTransaction(txnbuild.TransactionParams{
		SourceAccount:        &txnbuild.SimpleAccount{AccountID: inv.Source, Sequence: sequence},
		IncrementSequenceNum: true,
		BaseFee:              txnbuild.MinBaseFee,
		Operations:           []txnbuild.Operation{op},
		Preconditions:        txnbuild.Preconditions{TimeBounds: txnbuild.NewTimeout(b.cfg.Timeout)},
	})
	if err != nil {
		return "", fmt.Errorf("building transaction: %w", err)
	}

	if b.cfg.ServerSigner != nil {
		tx, err = tx.Sign(b.cfg.NetworkPassphrase, b.cfg.ServerSigner)
		if err != nil {
			return "", fmt.Errorf("co-signing transaction: %w", err)
		}
	}

	envelope, err := tx.Base64()
	if err != nil {
		return "", fmt.Errorf("encoding transaction: %w", err)
	}

	return envelope, nil
}

func contractAddress(contractID string) (xdr.ScAddress, error) {
	raw, err := strkey.Decode(strkey.VersionByteContract, contractID)
	if err != nil {
		return xdr.ScAddress{}, fmt.Errorf("invalid contract id: %w", err)
	}

	var id xdr.Hash
	copy(id[:], raw)

	return xdr.ScAddress{
		Type:       xdr.ScAddressTypeScAddressTypeContract,
		ContractId: &id,
	}, nil
}

func accountAddress(address string) (xdr.ScAddress, error) {
	var account xdr.AccountId
	if err := account.SetAddress(address); err != nil {
		return xdr.ScAddress{}, fmt.Errorf("%w: %v", core.ErrInvalidAddress, err)
	}

	return xdr.ScAddress{
		Type:      xdr.ScAddressTypeScAddressTypeAccount,
		AccountId: &account,
	}, nil
}

func toScVal(arg core.Arg) (xdr.ScVal, error) {
	switch arg.Kind {
	case core.ArgString:
		s := xdr.ScString(arg.Str)
		return xdr.ScVal{Type: xdr.ScValTypeScvString, Str: &s}, nil

	case core.ArgAddress:
		addr, err := accountAddress(arg.Str)
		if err != nil {
			return xdr.ScVal{}, err
		}
		return xdr.ScVal{Type: xdr.ScValTypeScvAddress, Address: &addr}, nil

	case core.ArgI128:
		hi := xdr.Int64(0)
		if arg.Int < 0 {
			hi = -1
		}
		parts := xdr.Int128Parts{Hi: hi, Lo: xdr.Uint64(uint64(arg.Int))}
		return xdr.ScVal{Type: xdr.ScValTypeScvI128, I128: &parts}, nil

	case core.ArgU32:
		if arg.Uint > uint64(^uint32(0)) {
			return xdr.ScVal{}, fmt.Errorf("value %d overflows u32", arg.Uint)
		}
		v := xdr.Uint32(arg.Uint)
		return xdr.ScVal{Type: xdr.ScValTypeScvU32, U32: &v}, nil

	case core.ArgU64:
		v := xdr.Uint64(arg.Uint)
		return xdr.ScVal{Type: xdr.ScValTypeScvU64, U64: &v}, nil

	case core.ArgBool:
		b := arg.Bool
		return xdr.ScVal{Type: xdr.ScValTypeScvBool, B: &b}, nil

	default:
		return xdr.ScVal{}, fmt.Errorf("unsupported argument kind %d", arg.Kind)
	}
}

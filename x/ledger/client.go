package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"

	"github.com/lemma-network/lemma/x/faults"
	"github.com/lemma-network/lemma/x/ledger/contracts"
)

const defaultReceiptPollInterval = 2 * time.Second

// EthClient is the subset of ethclient.Client used by the ledger client.
type EthClient interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Client is a typed wrapper around the challenge ledger contract. Reads are
// eth_call against the latest block; writes are signed by the caller's Signer
// and return once the transaction is mined.
type Client struct {
	cfg      Config
	eth      EthClient
	contract *contracts.ChallengeLedgerBinding
	log      zerolog.Logger
	metrics  *Metrics

	maxFeeCap *big.Int
	maxTipCap *big.Int

	// sendMu serializes nonce acquisition and broadcast.
	sendMu sync.Mutex

	chainMu sync.Mutex
	chainID *big.Int

	closeFn func()
}

// NewClient wraps an already connected eth client.
func NewClient(cfg Config, eth EthClient, log zerolog.Logger) (*Client, error) {
	if eth == nil {
		return nil, fmt.Errorf("eth client is required")
	}
	binding, err := contracts.NewChallengeLedgerBinding(strings.TrimSpace(cfg.ContractAddress))
	if err != nil {
		return nil, err
	}
	maxFee, err := parseWei(cfg.MaxFeePerGasWei)
	if err != nil {
		return nil, fmt.Errorf("max_fee_per_gas_wei: %w", err)
	}
	maxTip, err := parseWei(cfg.MaxPriorityFeeWei)
	if err != nil {
		return nil, fmt.Errorf("max_priority_fee_wei: %w", err)
	}

	c := &Client{
		cfg:       cfg,
		eth:       eth,
		contract:  binding,
		log:       log.With().Str("component", "ledger-client").Logger(),
		metrics:   NewMetrics(),
		maxFeeCap: maxFee,
		maxTipCap: maxTip,
	}
	if cfg.ChainID != 0 {
		c.chainID = new(big.Int).SetUint64(cfg.ChainID)
	}
	return c, nil
}

// Dial connects to cfg.RPCEndpoint and returns a ready client.
func Dial(ctx context.Context, cfg Config, log zerolog.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ledger config: %w", err)
	}
	ec, err := ethclient.DialContext(ctx, cfg.RPCEndpoint)
	if err != nil {
		return nil, fmt.Errorf("dial ledger rpc %s: %w", cfg.RPCEndpoint, err)
	}
	c, err := NewClient(cfg, ec, log)
	if err != nil {
		ec.Close()
		return nil, err
	}
	c.closeFn = ec.Close
	return c, nil
}

// Close releases the underlying RPC connection when the client owns it.
func (c *Client) Close() {
	if c.closeFn != nil {
		c.closeFn()
	}
}

// ContractAddress returns the ledger contract address.
func (c *Client) ContractAddress() common.Address {
	return c.contract.Address()
}

// ChallengeCount returns the number of challenges ever created.
func (c *Client) ChallengeCount(ctx context.Context) (count *big.Int, err error) {
	const op = "ledger.challengeCount"
	defer func(start time.Time) { c.metrics.RecordCall(contracts.MethodChallengeCount, start, err) }(time.Now())

	data, err := c.contract.BuildChallengeCountCalldata()
	if err != nil {
		return nil, protocolErr(op, err)
	}
	out, err := c.call(ctx, data)
	if err != nil {
		return nil, classify(op, err)
	}
	count, err = c.contract.DecodeChallengeCount(out)
	if err != nil {
		return nil, protocolErr(op, err)
	}
	return count, nil
}

// Challenge reads the challenge stored under id. Ids outside the ledger's
// range come back as an all-zero record and are reported as ErrChallengeNotFound.
func (c *Client) Challenge(ctx context.Context, id *big.Int) (ch Challenge, err error) {
	const op = "ledger.challenges"
	defer func(start time.Time) { c.metrics.RecordCall(contracts.MethodChallenges, start, err) }(time.Now())

	if id == nil || id.Sign() < 0 {
		return Challenge{}, notFoundErr(op, id)
	}
	data, err := c.contract.BuildChallengeCalldata(id)
	if err != nil {
		return Challenge{}, protocolErr(op, err)
	}
	out, err := c.call(ctx, data)
	if err != nil {
		return Challenge{}, classify(op, err)
	}
	rec, err := c.contract.DecodeChallenge(out)
	if err != nil {
		return Challenge{}, protocolErr(op, err)
	}
	if rec.Creator == (common.Address{}) {
		return Challenge{}, notFoundErr(op, id)
	}

	return Challenge{
		ID:         new(big.Int).Set(id),
		Creator:    rec.Creator,
		Name:       rec.Name,
		Theorem:    rec.Theorem,
		Bounty:     rec.Bounty,
		Expiration: rec.Expiration,
	}, nil
}

// CreateChallenge publishes a new challenge with bounty attached as call value.
func (c *Client) CreateChallenge(
	ctx context.Context,
	signer Signer,
	name, theorem string,
	expiration, bounty *big.Int,
) (rcpt *Receipt, err error) {
	const op = "ledger.createChallenge"
	defer func(start time.Time) { c.metrics.RecordCall(contracts.MethodCreateChallenge, start, err) }(time.Now())

	if expiration == nil {
		return nil, faults.New(faults.KindPrecondition, op).
			WithSentinel(ErrLedgerCall).
			WithMessage("expiration is required")
	}
	data, err := c.contract.BuildCreateChallengeCalldata(name, theorem, expiration)
	if err != nil {
		return nil, protocolErr(op, err)
	}
	return c.transact(ctx, op, contracts.MethodCreateChallenge, signer, data, bounty)
}

// SubmitSolution records solutionHash for challenge id together with its seal.
func (c *Client) SubmitSolution(
	ctx context.Context,
	signer Signer,
	id *big.Int,
	solutionHash common.Hash,
	seal []byte,
) (rcpt *Receipt, err error) {
	const op = "ledger.submitSolution"
	defer func(start time.Time) { c.metrics.RecordCall(contracts.MethodSubmitSolution, start, err) }(time.Now())

	data, err := c.contract.BuildSubmitSolutionCalldata(id, solutionHash, seal)
	if err != nil {
		return nil, protocolErr(op, err)
	}
	return c.transact(ctx, op, contracts.MethodSubmitSolution, signer, data, nil)
}

// ClaimBounty reveals the solution plaintext and claims the bounty for id.
func (c *Client) ClaimBounty(
	ctx context.Context,
	signer Signer,
	id *big.Int,
	solution string,
) (rcpt *Receipt, err error) {
	const op = "ledger.claimBounty"
	defer func(start time.Time) { c.metrics.RecordCall(contracts.MethodClaimBounty, start, err) }(time.Now())

	data, err := c.contract.BuildClaimBountyCalldata(id, solution)
	if err != nil {
		return nil, protocolErr(op, err)
	}
	return c.transact(ctx, op, contracts.MethodClaimBounty, signer, data, nil)
}

func (c *Client) call(ctx context.Context, data []byte) ([]byte, error) {
	to := c.contract.Address()
	return c.eth.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
}

// transact builds, signs, sends and waits for one contract transaction.
func (c *Client) transact(
	ctx context.Context,
	op, method string,
	signer Signer,
	data []byte,
	value *big.Int,
) (*Receipt, error) {
	if signer == nil || signer.Address() == (common.Address{}) {
		return nil, faults.New(faults.KindPrecondition, op).WithSentinel(ErrNoSigner)
	}
	if value == nil {
		value = new(big.Int)
	}

	chainID, err := c.resolveChainID(ctx)
	if err != nil {
		return nil, classify(op, err)
	}

	tx, err := c.sendLocked(ctx, op, signer, chainID, data, value)
	if err != nil {
		return nil, err
	}
	c.metrics.TxSentTotal.WithLabelValues(method).Inc()

	c.log.Info().
		Str("method", method).
		Str("tx_hash", tx.Hash().Hex()).
		Str("from", signer.Address().Hex()).
		Uint64("nonce", tx.Nonce()).
		Uint64("gas", tx.Gas()).
		Msg("Ledger transaction sent")

	rcpt, err := c.waitMined(ctx, tx.Hash())
	if err != nil {
		return nil, classify(op, err)
	}
	if rcpt.Status != types.ReceiptStatusSuccessful {
		c.log.Warn().
			Str("method", method).
			Str("tx_hash", tx.Hash().Hex()).
			Uint64("block", blockNumber(rcpt)).
			Msg("Ledger transaction reverted")
		return nil, rejectionErr(op, "transaction %s reverted", tx.Hash().Hex()).
			WithContext("tx_hash", tx.Hash().Hex())
	}

	out := &Receipt{TxHash: tx.Hash(), BlockNumber: blockNumber(rcpt), GasUsed: rcpt.GasUsed}
	c.log.Info().
		Str("method", method).
		Str("tx_hash", out.TxHash.Hex()).
		Uint64("block", out.BlockNumber).
		Uint64("gas_used", out.GasUsed).
		Msg("Ledger transaction mined")
	return out, nil
}

func (c *Client) sendLocked(
	ctx context.Context,
	op string,
	signer Signer,
	chainID *big.Int,
	data []byte,
	value *big.Int,
) (*types.Transaction, error) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	from := signer.Address()
	to := c.contract.Address()

	nonce, err := c.eth.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, classify(op, fmt.Errorf("pending nonce: %w", err))
	}

	tipCap, feeCap, gasPrice, err := c.fees(ctx)
	if err != nil {
		return nil, classify(op, err)
	}

	msg := ethereum.CallMsg{From: from, To: &to, Value: value, Data: data}
	if gasPrice != nil {
		msg.GasPrice = gasPrice
	} else {
		msg.GasTipCap = tipCap
		msg.GasFeeCap = feeCap
	}
	gas, err := c.eth.EstimateGas(ctx, msg)
	if err != nil {
		return nil, classify(op, fmt.Errorf("estimate gas: %w", err))
	}
	if c.cfg.GasLimitBufferPct > 0 {
		gas += gas * c.cfg.GasLimitBufferPct / 100
	}

	var unsigned *types.Transaction
	if gasPrice != nil {
		unsigned = types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			GasPrice: gasPrice,
			Gas:      gas,
			To:       &to,
			Value:    value,
			Data:     data,
		})
	} else {
		unsigned = types.NewTx(&types.DynamicFeeTx{
			ChainID:   chainID,
			Nonce:     nonce,
			GasTipCap: tipCap,
			GasFeeCap: feeCap,
			Gas:       gas,
			To:        &to,
			Value:     value,
			Data:      data,
		})
	}

	signed, err := signer.SignTx(unsigned, chainID)
	if err != nil {
		return nil, faults.New(faults.KindPrecondition, op).
			WithSentinel(ErrLedgerCall).
			WithMessage("sign transaction").
			WithCause(err)
	}
	if err := c.eth.SendTransaction(ctx, signed); err != nil {
		return nil, classify(op, fmt.Errorf("send transaction: %w", err))
	}
	return signed, nil
}

// fees returns either EIP-1559 tip/fee caps or a legacy gas price.
func (c *Client) fees(ctx context.Context) (tipCap, feeCap, gasPrice *big.Int, err error) {
	if c.cfg.UseEIP1559 {
		head, err := c.eth.HeaderByNumber(ctx, nil)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("latest header: %w", err)
		}
		if head.BaseFee != nil {
			tip, err := c.eth.SuggestGasTipCap(ctx)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("suggest tip: %w", err)
			}
			if c.maxTipCap != nil && tip.Cmp(c.maxTipCap) > 0 {
				tip = new(big.Int).Set(c.maxTipCap)
			}
			fee := new(big.Int).Mul(head.BaseFee, big.NewInt(2))
			fee.Add(fee, tip)
			if c.maxFeeCap != nil && fee.Cmp(c.maxFeeCap) > 0 {
				fee = new(big.Int).Set(c.maxFeeCap)
			}
			if fee.Cmp(tip) < 0 {
				tip = new(big.Int).Set(fee)
			}
			return tip, fee, nil, nil
		}
	}

	price, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("suggest gas price: %w", err)
	}
	if c.maxFeeCap != nil && price.Cmp(c.maxFeeCap) > 0 {
		price = new(big.Int).Set(c.maxFeeCap)
	}
	return nil, nil, price, nil
}

func (c *Client) resolveChainID(ctx context.Context) (*big.Int, error) {
	c.chainMu.Lock()
	defer c.chainMu.Unlock()

	if c.chainID != nil {
		return c.chainID, nil
	}
	id, err := c.eth.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain id: %w", err)
	}
	c.chainID = id
	return id, nil
}

// waitMined polls for the receipt until it appears or ctx is done.
func (c *Client) waitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	interval := c.cfg.ReceiptPollInterval
	if interval <= 0 {
		interval = defaultReceiptPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		rcpt, err := c.eth.TransactionReceipt(ctx, hash)
		switch {
		case err == nil && rcpt != nil:
			return rcpt, nil
		case err != nil && !errors.Is(err, ethereum.NotFound):
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.log.Debug().Err(err).Str("tx_hash", hash.Hex()).Msg("Receipt poll failed")
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func notFoundErr(op string, id *big.Int) error {
	e := faults.New(faults.KindLedgerRejection, op).WithSentinel(ErrChallengeNotFound)
	if id != nil {
		e = e.WithContext("challenge_id", id.String())
	}
	return e
}

func blockNumber(r *types.Receipt) uint64 {
	if r.BlockNumber == nil {
		return 0
	}
	return r.BlockNumber.Uint64()
}

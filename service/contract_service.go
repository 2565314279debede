package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/layer-3/remitwise/core"
	"github.com/layer-3/remitwise/ports"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// stroopDecimals is the number of fractional digits of on-chain amounts
const stroopDecimals = 7

var maxStroops = decimal.NewFromInt(math.MaxInt64)

// NewBill is the input of CreateBill
type NewBill struct {
	Name          string          `json:"name"`
	Amount        decimal.Decimal `json:"amount"`
	DueDate       string          `json:"dueDate"`
	Recurring     bool            `json:"recurring"`
	FrequencyDays uint32          `json:"frequencyDays"`
}

// NewPolicy is the input of CreatePolicy
type NewPolicy struct {
	Name           string          `json:"name"`
	CoverageType   string          `json:"coverageType"`
	MonthlyPremium decimal.Decimal `json:"monthlyPremium"`
	CoverageAmount decimal.Decimal `json:"coverageAmount"`
}

// SplitAllocation is the percentage of each remittance routed to every bucket
type SplitAllocation struct {
	Spending  uint32 `json:"spending"`
	Savings   uint32 `json:"savings"`
	Bills     uint32 `json:"bills"`
	Insurance uint32 `json:"insurance"`
}

// ContractService validates contract calls and turns them into unsigned
// transactions for the caller's wallet to sign.
type ContractService struct {
	invoker ports.ContractInvoker
	logger  zerolog.Logger
}

// NewContractService creates a new contract service
func NewContractService(invoker ports.ContractInvoker, logger zerolog.Logger) *ContractService {
	return &ContractService{
		invoker: invoker,
		logger:  logger.With().Str("component", "contracts").Logger(),
	}
}

// CreateBill builds a create_bill transaction owned by owner
func (s *ContractService) CreateBill(ctx context.Context, owner string, bill NewBill) (string, error) {
	name := strings.TrimSpace(bill.Name)
	if name == "" {
		return "", core.InvalidInput("name is required")
	}
	amount, err := toStroops("amount", bill.Amount)
	if err != nil {
		return "", err
	}
	if bill.Recurring && bill.FrequencyDays == 0 {
		return "", core.InvalidInput("frequencyDays must be positive for recurring bills")
	}
	dueDate, err := parseDueDate(bill.DueDate)
	if err != nil {
		return "", err
	}

	return s.invoke(ctx, core.ContractBills, "create_bill", owner,
		core.AddressArg(owner),
		core.StringArg(name),
		core.I128Arg(amount),
		core.U64Arg(dueDate),
		core.BoolArg(bill.Recurring),
		core.U32Arg(bill.FrequencyDays),
	)
}

// PayBill builds a pay_bill transaction
func (s *ContractService) PayBill(ctx context.Context, caller, billID string) (string, error) {
	if strings.TrimSpace(billID) == "" {
		return "", core.InvalidInput("bill id is required")
	}
	return s.invoke(ctx, core.ContractBills, "pay_bill", caller,
		core.AddressArg(caller),
		core.StringArg(billID),
	)
}

// CreatePolicy builds a create_policy transaction owned by owner
func (s *ContractService) CreatePolicy(ctx context.Context, owner string, policy NewPolicy) (string, error) {
	name := strings.TrimSpace(policy.Name)
	if name == "" {
		return "", core.InvalidInput("name is required")
	}
	coverageType := strings.TrimSpace(policy.CoverageType)
	if coverageType == "" {
		return "", core.InvalidInput("coverageType is required")
	}
	premium, err := toStroops("monthlyPremium", policy.MonthlyPremium)
	if err != nil {
		return "", err
	}
	coverage, err := toStroops("coverageAmount", policy.CoverageAmount)
	if err != nil {
		return "", err
	}

	return s.invoke(ctx, core.ContractInsurance, "create_policy", owner,
		core.AddressArg(owner),
		core.StringArg(name),
		core.StringArg(coverageType),
		core.I128Arg(premium),
		core.I128Arg(coverage),
	)
}

// PayPremium builds a pay_premium transaction
func (s *ContractService) PayPremium(ctx context.Context, caller, policyID string) (string, error) {
	return s.policyCall(ctx, "pay_premium", caller, policyID)
}

// DeactivatePolicy builds a deactivate_policy transaction
func (s *ContractService) DeactivatePolicy(ctx context.Context, caller, policyID string) (string, error) {
	return s.policyCall(ctx, "deactivate_policy", caller, policyID)
}

func (s *ContractService) policyCall(ctx context.Context, function, caller, policyID string) (string, error) {
	if strings.TrimSpace(policyID) == "" {
		return "", core.InvalidInput("policy id is required")
	}
	return s.invoke(ctx, core.ContractInsurance, function, caller,
		core.AddressArg(caller),
		core.StringArg(policyID),
	)
}

// InitializeSplit builds the initialize transaction of the remittance split contract
func (s *ContractService) InitializeSplit(ctx context.Context, owner string, split SplitAllocation) (string, error) {
	return s.splitCall(ctx, "initialize", owner, split)
}

// UpdateSplit builds the update transaction of the remittance split contract
func (s *ContractService) UpdateSplit(ctx context.Context, caller string, split SplitAllocation) (string, error) {
	return s.splitCall(ctx, "update", caller, split)
}

func (s *ContractService) splitCall(ctx context.Context, function, caller string, split SplitAllocation) (string, error) {
	total := uint64(split.Spending) + uint64(split.Savings) + uint64(split.Bills) + uint64(split.Insurance)
	if total != 100 {
		return "", core.InvalidInput(fmt.Sprintf("percentages must sum to 100, got %d", total))
	}

	return s.invoke(ctx, core.ContractSplit, function, caller,
		core.AddressArg(caller),
		core.U32Arg(split.Spending),
		core.U32Arg(split.Savings),
		core.U32Arg(split.Bills),
		core.U32Arg(split.Insurance),
	)
}

func (s *ContractService) invoke(ctx context.Context, contract core.Contract, function, source string, args ...core.Arg) (string, error) {
	envelope, err := s.invoker.BuildInvocation(ctx, core.Invocation{
		Contract: contract,
		Function: function,
		Source:   source,
		Args:     args,
	})
	if err != nil {
		return "", fmt.Errorf("failed to build %s transaction: %w", function, err)
	}

	s.logger.Debug().Str("contract", string(contract)).Str("function", function).Str("source", source).Msg("built transaction")
	return envelope, nil
}

// toStroops converts a positive decimal amount to its integer on-chain
// representation.
func toStroops(field string, amount decimal.Decimal) (int64, error) {
	if !amount.IsPositive() {
		return 0, core.InvalidInput(field + " must be greater than zero")
	}

	scaled := amount.Shift(stroopDecimals)
	if !scaled.IsInteger() {
		return 0, core.InvalidInput(fmt.Sprintf("%s supports at most %d decimal places", field, stroopDecimals))
	}
	if scaled.GreaterThan(maxStroops) {
		return 0, core.InvalidInput(field + " is too large")
	}

	return scaled.IntPart(), nil
}

// parseDueDate accepts RFC 3339 timestamps or plain dates and returns unix seconds
func parseDueDate(value string) (uint64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, core.InvalidInput("dueDate is required")
	}

	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, value); err == nil {
			if t.Unix() < 0 {
				break
			}
			return uint64(t.Unix()), nil
		}
	}

	return 0, core.InvalidInput("dueDate must be an RFC 3339 timestamp or YYYY-MM-DD date")
}

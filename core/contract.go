package core

// Contract names one of the deployed Soroban contracts
type Contract string

const (
	ContractBills     Contract = "bills"
	ContractInsurance Contract = "insurance"
	ContractSplit     Contract = "split"
)

// ArgKind is the Soroban value type of a contract argument
type ArgKind int

const (
	ArgString ArgKind = iota
	ArgAddress
	ArgI128
	ArgU32
	ArgU64
	ArgBool
)

// Arg is a single contract call argument
type Arg struct {
	Kind ArgKind
	Str  string
	Int  int64
	Uint uint64
	Bool bool
}

func StringArg(s string) Arg  { return Arg{Kind: ArgString, Str: s} }
func AddressArg(a string) Arg { return Arg{Kind: ArgAddress, Str: a} }
func I128Arg(v int64) Arg     { return Arg{Kind: ArgI128, Int: v} }
func U32Arg(v uint32) Arg     { return Arg{Kind: ArgU32, Uint: uint64(v)} }
func U64Arg(v uint64) Arg     { return Arg{Kind: ArgU64, Uint: v} }
func BoolArg(b bool) Arg      { return Arg{Kind: ArgBool, Bool: b} }

// Invocation describes a contract function call to be wrapped in a transaction
type Invocation struct {
	Contract Contract
	Function string
	Source   string // account that will sign and pay for the transaction
	Args     []Arg
}

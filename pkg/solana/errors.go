package solana

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/ybbus/jsonrpc"
)

// TransactionErrorKey is the string key returned in a transaction error.
//
// Source: https://github.com/solana-labs/solana/blob/fc2bf2d3b669d1c6655ae48b0a05f470938f3676/sdk/src/transaction/mod.rs#L37
type TransactionErrorKey string

const (
	TransactionErrorInternal                 TransactionErrorKey = "Internal"
	TransactionErrorAccountInUse             TransactionErrorKey = "AccountInUse"
	TransactionErrorAccountLoadedTwice       TransactionErrorKey = "AccountLoadedTwice"
	TransactionErrorAccountNotFound          TransactionErrorKey = "AccountNotFound"
	TransactionErrorProgramAccountNotFound   TransactionErrorKey = "ProgramAccountNotFound"
	TransactionErrorInsufficientFundsForFee  TransactionErrorKey = "InsufficientFundsForFee"
	TransactionErrorInsufficientFundsForRent TransactionErrorKey = "InsufficientFundsForRent"
	TransactionErrorInvalidAccountForFee     TransactionErrorKey = "InvalidAccountForFee"
	TransactionErrorDuplicateSignature       TransactionErrorKey = "DuplicateSignature"
	TransactionErrorBlockhashNotFound        TransactionErrorKey = "BlockhashNotFound"
	TransactionErrorInstructionError         TransactionErrorKey = "InstructionError"
	TransactionErrorMissingSignatureForFee   TransactionErrorKey = "MissingSignatureForFee"
	TransactionErrorInvalidAccountIndex      TransactionErrorKey = "InvalidAccountIndex"
	TransactionErrorSignatureFailure         TransactionErrorKey = "SignatureFailure"
	TransactionErrorSanitizeFailure          TransactionErrorKey = "SanitizeFailure"
	TransactionErrorClusterMaintenance       TransactionErrorKey = "ClusterMaintenance"
	TransactionErrorUnsupportedVersion       TransactionErrorKey = "UnsupportedVersion"
	TransactionErrorInvalidWritableAccount   TransactionErrorKey = "InvalidWritableAccount"
)

// InstructionErrorKey is the string keys returned in an instruction error.
//
// Source: https://github.com/solana-labs/solana/blob/4e2754341514cd181ae3f373cc2548bd22e918b8/sdk/program/src/instruction.rs#L23
type InstructionErrorKey string

const (
	InstructionErrorGenericError              InstructionErrorKey = "GenericError"
	InstructionErrorInvalidArgument           InstructionErrorKey = "InvalidArgument"
	InstructionErrorInvalidInstructionData    InstructionErrorKey = "InvalidInstructionData"
	InstructionErrorInvalidAccountData        InstructionErrorKey = "InvalidAccountData"
	InstructionErrorAccountDataTooSmall       InstructionErrorKey = "AccountDataTooSmall"
	InstructionErrorInsufficientFunds         InstructionErrorKey = "InsufficientFunds"
	InstructionErrorIncorrectProgramID        InstructionErrorKey = "IncorrectProgramId"
	InstructionErrorMissingRequiredSignature  InstructionErrorKey = "MissingRequiredSignature"
	InstructionErrorAccountAlreadyInitialized InstructionErrorKey = "AccountAlreadyInitialized"
	InstructionErrorUninitializedAccount      InstructionErrorKey = "UninitializedAccount"
	InstructionErrorNotEnoughAccountKeys      InstructionErrorKey = "NotEnoughAccountKeys"
	InstructionErrorAccountDataSizeChanged    InstructionErrorKey = "AccountDataSizeChanged"
	InstructionErrorCustom                    InstructionErrorKey = "Custom"
	InstructionErrorInvalidError              InstructionErrorKey = "InvalidError"
	InstructionErrorMissingAccount            InstructionErrorKey = "MissingAccount"
	InstructionErrorInvalidSeeds              InstructionErrorKey = "InvalidSeeds"
	InstructionErrorInvalidRealloc            InstructionErrorKey = "InvalidRealloc"
	InstructionErrorIllegalOwner              InstructionErrorKey = "IllegalOwner"
)

// CustomError is the numerical error returned by a non-system program.
type CustomError int

func (c CustomError) Error() string {
	return fmt.Sprintf("custom program error: %x", int(c))
}

// InstructionError indicates an instruction returned an error in a transaction.
type InstructionError struct {
	Index int
	Err   error
}

// NewInstructionError returns an InstructionError for the instruction at
// index failing with a well known key.
func NewInstructionError(index int, key InstructionErrorKey) *InstructionError {
	return &InstructionError{Index: index, Err: errors.New(string(key))}
}

// NewCustomInstructionError returns an InstructionError for the instruction at
// index failing with a program specific error code.
func NewCustomInstructionError(index int, code int) *InstructionError {
	return &InstructionError{Index: index, Err: CustomError(code)}
}

func (i InstructionError) Error() string {
	return fmt.Sprintf("Error processing Instruction %d: %v", i.Index, i.Err)
}

func (i InstructionError) ErrorKey() InstructionErrorKey {
	switch i.Err.(type) {
	case nil:
		return ""
	case CustomError:
		return InstructionErrorCustom
	default:
		return InstructionErrorKey(i.Err.Error())
	}
}

func (i InstructionError) CustomError() *CustomError {
	if ce, ok := i.Err.(CustomError); ok {
		return &ce
	}
	return nil
}

// rawValue is the instruction error as the RPC encodes it after JSON
// decoding: an [index, key] tuple, with custom codes nested in an object.
func (i InstructionError) rawValue() []interface{} {
	if ce, ok := i.Err.(CustomError); ok {
		return []interface{}{
			float64(i.Index),
			map[string]interface{}{string(InstructionErrorCustom): float64(ce)},
		}
	}
	return []interface{}{float64(i.Index), i.Err.Error()}
}

// decodeInstructionError parses the [index, key] tuple of an InstructionError.
func decodeInstructionError(v interface{}) (*InstructionError, error) {
	tuple, ok := v.([]interface{})
	if !ok {
		return nil, errors.New("unexpected instruction error format")
	}
	if len(tuple) != 2 {
		return nil, errors.Errorf("unexpected InstructionError tuple size: %d", len(tuple))
	}

	index, err := parseJSONNumber(tuple[0])
	if err != nil {
		return nil, err
	}
	ie := &InstructionError{Index: index}

	switch detail := tuple[1].(type) {
	case string:
		ie.Err = errors.New(detail)
	case map[string]interface{}:
		key, value, err := singleEntry(detail)
		if err != nil {
			return nil, errors.Wrap(err, "invalid instruction result")
		}
		if key != string(InstructionErrorCustom) {
			ie.Err = errors.New(key)
			break
		}
		code, err := parseJSONNumber(value)
		if err != nil {
			ie.Err = errors.New("unhandled CustomError")
			break
		}
		ie.Err = CustomError(code)
	default:
		return nil, errors.Errorf("unexpected instruction error detail: %T", detail)
	}

	return ie, nil
}

// TransactionError contains the transaction error details.
type TransactionError struct {
	key              TransactionErrorKey
	instructionError *InstructionError
	raw              interface{}
}

// ParseRPCError extracts the transaction error carried in the data of a
// jsonrpc.RPCError, such as a failed preflight simulation.
func ParseRPCError(err *jsonrpc.RPCError) (*TransactionError, error) {
	if err == nil {
		return nil, nil
	}

	data, ok := err.Data.(map[string]interface{})
	if !ok {
		return nil, errors.New("expected map type")
	}

	return ParseTransactionError(data["err"])
}

// ParseTransactionError parses the JSON error returned from the "err" field in various
// RPC methods and fields.
func ParseTransactionError(raw interface{}) (*TransactionError, error) {
	switch t := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return &TransactionError{key: TransactionErrorKey(t), raw: raw}, nil
	case map[string]interface{}:
		key, value, err := singleEntry(t)
		if err != nil {
			return &TransactionError{key: "unhandled transaction error", raw: raw}, errors.Wrap(err, "invalid transaction result")
		}

		// Payloads other than InstructionError stay in raw, see AccountIndex.
		txErr := &TransactionError{key: TransactionErrorKey(key), raw: raw}
		if txErr.key != TransactionErrorInstructionError {
			return txErr, nil
		}

		if txErr.instructionError, err = decodeInstructionError(value); err != nil {
			return &TransactionError{key: "unhandled transaction error", raw: raw}, errors.Wrap(err, "failed to parse instruction error")
		}
		return txErr, nil
	default:
		return nil, errors.Errorf("unhandled error type: %T", raw)
	}
}

func NewTransactionError(key TransactionErrorKey) *TransactionError {
	return &TransactionError{key: key, raw: string(key)}
}

// NewInsufficientFundsForRentError reports that the account at accountIndex in
// the message was left below its rent exempt minimum.
func NewInsufficientFundsForRentError(accountIndex int) *TransactionError {
	return &TransactionError{
		key: TransactionErrorInsufficientFundsForRent,
		raw: map[string]interface{}{
			string(TransactionErrorInsufficientFundsForRent): map[string]interface{}{
				"account_index": float64(accountIndex),
			},
		},
	}
}

// TransactionErrorFromInstructionError wraps a failed instruction the way the
// RPC reports it for the whole transaction.
func TransactionErrorFromInstructionError(err *InstructionError) *TransactionError {
	return &TransactionError{
		key:              TransactionErrorInstructionError,
		instructionError: err,
		raw: map[string]interface{}{
			string(TransactionErrorInstructionError): err.rawValue(),
		},
	}
}

func (t TransactionError) Error() string {
	if t.instructionError != nil {
		return t.instructionError.Error()
	}
	return string(t.key)
}

func (t TransactionError) ErrorKey() TransactionErrorKey {
	return t.key
}

func (t TransactionError) InstructionError() *InstructionError {
	return t.instructionError
}

// AccountIndex returns the message account index the error is attributed to,
// for errors like InsufficientFundsForRent that carry one.
func (t TransactionError) AccountIndex() (int, bool) {
	m, ok := t.raw.(map[string]interface{})
	if !ok {
		return 0, false
	}
	_, value, err := singleEntry(m)
	if err != nil {
		return 0, false
	}
	payload, ok := value.(map[string]interface{})
	if !ok {
		return 0, false
	}
	index, err := parseJSONNumber(payload["account_index"])
	if err != nil || index < 0 {
		return 0, false
	}
	return index, true
}

// JSONString returns the error encoded as the RPC would return it.
func (t TransactionError) JSONString() (string, error) {
	b, err := json.Marshal(t.raw)
	return string(b), err
}

// AsTransactionError extracts a *TransactionError from anywhere in err's chain.
func AsTransactionError(err error) (*TransactionError, bool) {
	var txErr *TransactionError
	if errors.As(err, &txErr) && txErr != nil {
		return txErr, true
	}
	return nil, false
}

func singleEntry(m map[string]interface{}) (string, interface{}, error) {
	if len(m) != 1 {
		return "", nil, errors.Errorf("expected a single entry, got %d", len(m))
	}
	for k, v := range m {
		return k, v, nil
	}
	panic("unreachable")
}

func parseJSONNumber(v interface{}) (int, error) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, errors.Errorf("non int64 value in InstructionError tuple: %v", v)
		}
		return int(i), nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, errors.Errorf("non numeric value in InstructionError tuple: %v", v)
		}
		return int(i), nil
	case float64:
		return int(n), nil
	default:
		return 0, errors.Errorf("non numeric value in InstructionError tuple: %v", v)
	}
}

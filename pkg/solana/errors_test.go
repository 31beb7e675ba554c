package solana

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeJSON(t *testing.T, s string) interface{} {
	var v interface{}
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestParseTransactionError(t *testing.T) {
	for _, tc := range []struct {
		raw              string
		key              TransactionErrorKey
		instructionIndex int
		instructionKey   InstructionErrorKey
		custom           *CustomError
	}{
		{
			raw: `"DuplicateSignature"`,
			key: TransactionErrorDuplicateSignature,
		},
		{
			raw: `{"InsufficientFundsForRent":{"account_index":1}}`,
			key: TransactionErrorInsufficientFundsForRent,
		},
		{
			raw:              `{"InstructionError":[0,"InvalidArgument"]}`,
			key:              TransactionErrorInstructionError,
			instructionIndex: 0,
			instructionKey:   InstructionErrorInvalidArgument,
		},
		{
			raw:              `{"InstructionError":[2,{"Custom":3}]}`,
			key:              TransactionErrorInstructionError,
			instructionIndex: 2,
			instructionKey:   InstructionErrorCustom,
			custom:           func() *CustomError { c := CustomError(3); return &c }(),
		},
		{
			raw:              `{"InstructionError":[1,{"BorshIoError":"Unknown"}]}`,
			key:              TransactionErrorInstructionError,
			instructionIndex: 1,
			instructionKey:   "BorshIoError",
		},
	} {
		t.Run(tc.raw, func(t *testing.T) {
			e, err := ParseTransactionError(decodeJSON(t, tc.raw))
			require.NoError(t, err)
			require.NotNil(t, e)
			assert.Equal(t, tc.key, e.ErrorKey())

			if tc.key != TransactionErrorInstructionError {
				assert.Nil(t, e.InstructionError())
				return
			}

			ie := e.InstructionError()
			require.NotNil(t, ie)
			assert.Equal(t, tc.instructionIndex, ie.Index)
			assert.Equal(t, tc.instructionKey, ie.ErrorKey())
			assert.Equal(t, tc.custom, ie.CustomError())
		})
	}
}

func TestParseTransactionError_Invalid(t *testing.T) {
	e, err := ParseTransactionError(nil)
	assert.NoError(t, err)
	assert.Nil(t, e)

	for _, raw := range []string{
		`{"AccountInUse":null,"AccountNotFound":null}`,
		`{"InstructionError":[0]}`,
		`{"InstructionError":"InvalidArgument"}`,
		`{"InstructionError":[0,{"Custom":1,"Other":2}]}`,
		`42`,
	} {
		_, err := ParseTransactionError(decodeJSON(t, raw))
		assert.Error(t, err, raw)
	}
}

func TestTransactionError_RoundTripsRPCEncoding(t *testing.T) {
	for _, tc := range []struct {
		err      *TransactionError
		expected string
	}{
		{
			err:      NewTransactionError(TransactionErrorDuplicateSignature),
			expected: `"DuplicateSignature"`,
		},
		{
			err:      NewInsufficientFundsForRentError(1),
			expected: `{"InsufficientFundsForRent":{"account_index":1}}`,
		},
		{
			err:      TransactionErrorFromInstructionError(NewInstructionError(0, InstructionErrorInvalidArgument)),
			expected: `{"InstructionError":[0,"InvalidArgument"]}`,
		},
		{
			err:      TransactionErrorFromInstructionError(NewCustomInstructionError(2, 3)),
			expected: `{"InstructionError":[2,{"Custom":3}]}`,
		},
	} {
		assert.Equal(t, decodeJSON(t, tc.expected), tc.err.raw)

		encoded, err := tc.err.JSONString()
		require.NoError(t, err)
		assert.JSONEq(t, tc.expected, encoded)

		parsed, err := ParseTransactionError(decodeJSON(t, encoded))
		require.NoError(t, err)
		assert.Equal(t, tc.err.Error(), parsed.Error())
		assert.Equal(t, tc.err.ErrorKey(), parsed.ErrorKey())
	}
}

func TestParseJSONNumber(t *testing.T) {
	for _, v := range []interface{}{"1", 1.0, json.Number("1")} {
		n, err := parseJSONNumber(v)
		assert.NoError(t, err)
		assert.Equal(t, 1, n, "%T", v)
	}

	for _, v := range []interface{}{"one", json.Number("1.5"), true, nil} {
		_, err := parseJSONNumber(v)
		assert.Error(t, err, "%v", v)
	}
}

func TestAsTransactionError(t *testing.T) {
	txErr := TransactionErrorFromInstructionError(NewCustomInstructionError(3, 6))
	wrapped := errors.Wrap(txErr, "submit failed")

	actual, ok := AsTransactionError(wrapped)
	require.True(t, ok)
	require.NotNil(t, actual.InstructionError())
	assert.Equal(t, 3, actual.InstructionError().Index)
	assert.Equal(t, CustomError(6), *actual.InstructionError().CustomError())

	_, ok = AsTransactionError(errors.New("not a transaction error"))
	assert.False(t, ok)
}

func TestTransactionError_AccountIndex(t *testing.T) {
	for _, tc := range []struct {
		raw      string
		index    int
		hasIndex bool
	}{
		{raw: `{"InsufficientFundsForRent":{"account_index":2}}`, index: 2, hasIndex: true},
		{raw: `{"InsufficientFundsForRent":{}}`},
		{raw: `"InsufficientFundsForRent"`},
		{raw: `{"InstructionError":[0,"InvalidArgument"]}`},
	} {
		e, err := ParseTransactionError(decodeJSON(t, tc.raw))
		require.NoError(t, err)

		index, ok := e.AccountIndex()
		assert.Equal(t, tc.hasIndex, ok, tc.raw)
		assert.Equal(t, tc.index, index, tc.raw)
	}

	index, ok := NewInsufficientFundsForRentError(3).AccountIndex()
	assert.True(t, ok)
	assert.Equal(t, 3, index)
}

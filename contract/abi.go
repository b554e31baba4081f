// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package contract

import (
	"fmt"
	"strings"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/accounts/abi"
	"github.com/luxfi/geth/common"
	ethtypes "github.com/luxfi/geth/core/types"
)

// ExtendedABI wraps the standard ABI with helpers for precompile dispatch,
// output packing and log construction.
type ExtendedABI struct {
	abi.ABI
}

// ParseABI parses the raw ABI JSON and panics on malformed input. It is meant
// for package-level ABI definitions.
func ParseABI(rawABI string) ExtendedABI {
	parsed, err := abi.JSON(strings.NewReader(rawABI))
	if err != nil {
		panic(fmt.Sprintf("failed to parse ABI: %v", err))
	}
	return ExtendedABI{ABI: parsed}
}

// Method resolves the 4-byte selector at the head of input.
func (e ExtendedABI) Method(input []byte) (*abi.Method, []byte, error) {
	if len(input) < 4 {
		return nil, nil, fmt.Errorf("%w: input shorter than selector", ErrInvalidInput)
	}
	method, err := e.MethodById(input[:4])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %x", ErrUnknownSelector, input[:4])
	}
	return method, input[4:], nil
}

// PackOutput packs args as the return value of method name, without method ID.
func (e ExtendedABI) PackOutput(name string, args ...interface{}) ([]byte, error) {
	method, exist := e.Methods[name]
	if !exist {
		return nil, fmt.Errorf("method '%s' not found", name)
	}
	return method.Outputs.Pack(args...)
}

// UnpackInput unpacks call data (without selector) for method name.
func (e ExtendedABI) UnpackInput(name string, data []byte) ([]interface{}, error) {
	method, exist := e.Methods[name]
	if !exist {
		return nil, fmt.Errorf("method '%s' not found", name)
	}
	if len(data)%32 != 0 {
		return nil, fmt.Errorf("%w: improperly formatted input for %s", ErrInvalidInput, name)
	}
	args, err := method.Inputs.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return args, nil
}

// PackEvent returns the topics and non-indexed data of event name.
func (e ExtendedABI) PackEvent(name string, args ...interface{}) ([]common.Hash, []byte, error) {
	event, exist := e.Events[name]
	if !exist {
		return nil, nil, fmt.Errorf("event '%s' not found", name)
	}
	if len(args) != len(event.Inputs) {
		return nil, nil, fmt.Errorf("event '%s' unexpected number of inputs %d", name, len(args))
	}

	var (
		nonIndexedInputs = make([]interface{}, 0)
		indexedInputs    = make([]interface{}, 0)
		nonIndexedArgs   abi.Arguments
	)
	for i, arg := range event.Inputs {
		if arg.Indexed {
			indexedInputs = append(indexedInputs, args[i])
		} else {
			nonIndexedArgs = append(nonIndexedArgs, arg)
			nonIndexedInputs = append(nonIndexedInputs, args[i])
		}
	}

	packed, err := nonIndexedArgs.Pack(nonIndexedInputs...)
	if err != nil {
		return nil, nil, err
	}

	topics := make([]common.Hash, 0, len(indexedInputs)+1)
	if !event.Anonymous {
		topics = append(topics, event.ID)
	}
	for _, input := range indexedInputs {
		topic, err := packTopic(input)
		if err != nil {
			return nil, nil, err
		}
		topics = append(topics, topic)
	}
	return topics, packed, nil
}

// EmitEvent packs event name and appends it to state as a log of addr.
func (e ExtendedABI) EmitEvent(state StateDB, addr common.Address, blockNumber uint64, name string, args ...interface{}) error {
	topics, data, err := e.PackEvent(name, args...)
	if err != nil {
		return err
	}
	state.AddLog(&ethtypes.Log{
		Address:     addr,
		Topics:      topics,
		Data:        data,
		BlockNumber: blockNumber,
	})
	return nil
}

// UnpackEvent decodes the non-indexed data of a log emitted as event name.
func (e ExtendedABI) UnpackEvent(name string, log *ethtypes.Log) ([]interface{}, error) {
	event, exist := e.Events[name]
	if !exist {
		return nil, fmt.Errorf("event '%s' not found", name)
	}
	if len(log.Topics) == 0 || log.Topics[0] != event.ID {
		return nil, fmt.Errorf("log is not a '%s' event", name)
	}
	return event.Inputs.NonIndexed().Unpack(log.Data)
}

func packTopic(value interface{}) (common.Hash, error) {
	switch v := value.(type) {
	case common.Address:
		return common.BytesToHash(v.Bytes()), nil
	case common.Hash:
		return v, nil
	case []byte:
		return common.BytesToHash(crypto.Keccak256(v)), nil
	case string:
		return common.BytesToHash(crypto.Keccak256([]byte(v))), nil
	default:
		return common.Hash{}, fmt.Errorf("unsupported indexed type: %T", value)
	}
}

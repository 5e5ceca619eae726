package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecodeExecuteMsg decodes the externally tagged form {"<kind>": {...}}.
func DecodeExecuteMsg(raw []byte) (ExecuteMsg, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if len(envelope) != 1 {
		return nil, fmt.Errorf("%w: expected exactly one variant, got %d", ErrMalformedMessage, len(envelope))
	}
	for tag, body := range envelope {
		msg, err := newExecuteMsg(MessageKind(tag))
		if err != nil {
			return nil, err
		}
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.DisallowUnknownFields()
		if err := dec.Decode(msg); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedMessage, tag, err)
		}
		return derefExecuteMsg(msg), nil
	}
	return nil, ErrMalformedMessage
}

// EncodeExecuteMsg renders msg in its tagged form.
func EncodeExecuteMsg(msg ExecuteMsg) (json.RawMessage, error) {
	if msg == nil {
		return nil, fmt.Errorf("%w: nil message", ErrMalformedMessage)
	}
	return json.Marshal(map[MessageKind]ExecuteMsg{msg.Kind(): msg})
}

func newExecuteMsg(kind MessageKind) (any, error) {
	switch kind {
	case MsgProposePledge:
		return &ProposePledge{}, nil
	case MsgAcceptPledge:
		return &AcceptPledge{}, nil
	case MsgCancelPledge:
		return &CancelPledge{}, nil
	case MsgExecutePledge:
		return &ExecutePledge{}, nil
	case MsgProposePaydown:
		return &ProposePaydown{}, nil
	case MsgAcceptPaydown:
		return &AcceptPaydown{}, nil
	case MsgCancelPaydown:
		return &CancelPaydown{}, nil
	case MsgExecutePaydown:
		return &ExecutePaydown{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown variant %q", ErrMalformedMessage, kind)
	}
}

func derefExecuteMsg(v any) ExecuteMsg {
	switch m := v.(type) {
	case *ProposePledge:
		return *m
	case *AcceptPledge:
		return *m
	case *CancelPledge:
		return *m
	case *ExecutePledge:
		return *m
	case *ProposePaydown:
		return *m
	case *AcceptPaydown:
		return *m
	case *CancelPaydown:
		return *m
	case *ExecutePaydown:
		return *m
	}
	return nil
}

package rpc

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/asybalance/internal/shared/types"
)

// Submit asks the peer to execute req and answers its capability calls
// with fn until the session ends.
func (c *Conn) Submit(ctx context.Context, req types.ExecuteRequest, fn Responder) (*types.ExecuteResponse, error) {
	if err := c.SendBody(FrameExecute, req); err != nil {
		return nil, fmt.Errorf("send execute: %w", err)
	}

	f, err := c.Answer(ctx, fn)
	if err != nil {
		return nil, err
	}
	if f.Type == FrameError {
		return nil, fmt.Errorf("%w: %s", ErrPeerFailed, f.Data)
	}

	var resp types.ExecuteResponse
	if err := sonic.Unmarshal(f.Body, &resp); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return &resp, nil
}

// ReadExecute waits for the execute frame that opens a session
func (c *Conn) ReadExecute(ctx context.Context) (types.ExecuteRequest, error) {
	for {
		f, err := c.Receive(ctx)
		if err != nil {
			return types.ExecuteRequest{}, err
		}
		switch f.Type {
		case FramePing:
			if err := c.Send(Frame{Type: FramePong}); err != nil {
				return types.ExecuteRequest{}, err
			}
		case FrameExecute:
			var req types.ExecuteRequest
			if err := sonic.Unmarshal(f.Body, &req); err != nil {
				return types.ExecuteRequest{}, fmt.Errorf("decode execute: %w", err)
			}
			return req, nil
		default:
			return types.ExecuteRequest{}, fmt.Errorf("%w: %s before execute", ErrUnexpectedFrame, f.Type)
		}
	}
}

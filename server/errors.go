package server

import (
	"errors"
	"fmt"

	"hoverarena/protocol"
)

var (
	ErrServerClosed = errors.New("server is closed")
	ErrQueueFull    = errors.New("command queue is full")

	ErrUnregisteredConnection = errors.New("unregistered connection")
	ErrUnknownMessageType     = errors.New("unknown message type")
)

// RoutingError 路由失败（非致命，消息被忽略）
type RoutingError struct {
	Kind    error
	Type    protocol.MessageType
	Session string
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("route %s from session %s: %v", e.Type, e.Session, e.Kind)
}

func (e *RoutingError) Unwrap() error { return e.Kind }

package mq

import (
	"context"
	"fmt"
	"log/slog"
)

// NewLoggingHandler возвращает Handler, который логирует события каталога.
//
// Неизвестные типы сообщений подтверждаются с предупреждением, чтобы
// не зацикливать их в очереди.
func NewLoggingHandler(logger *slog.Logger) Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(_ context.Context, msg *Message) error {
		switch msg.Type {
		case MessageTypeJobOutputUpdated:
			p, err := ParsePayload[JobOutputPayload](msg)
			if err != nil {
				return fmt.Errorf("%w: job output payload: %v", ErrMalformedMessage, err)
			}
			datasets := make([]string, 0, len(p.Outputs))
			for _, o := range p.Outputs {
				datasets = append(datasets, o.Namespace+"."+o.Dataset)
			}
			logger.Info("job outputs updated",
				"run_id", p.RunID,
				"namespace", p.Namespace,
				"job", p.Job,
				"outputs", datasets,
			)

		case MessageTypeRunTransition:
			p, err := ParsePayload[RunTransitionPayload](msg)
			if err != nil {
				return fmt.Errorf("%w: run transition payload: %v", ErrMalformedMessage, err)
			}
			logger.Info("run transitioned",
				"run_id", p.RunID,
				"namespace", p.Namespace,
				"job", p.Job,
				"from", p.From,
				"to", p.To,
			)

		default:
			logger.Warn("unknown message type", "type", msg.Type, "message_id", msg.ID)
		}
		return nil
	}
}

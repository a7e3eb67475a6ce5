package notify

import (
	"context"
	"errors"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Consume 逐条处理队列中的消息直到 ctx 取消
// 格式错误的消息直接丢弃，其余失败重新入队
func Consume(ctx context.Context, ch *amqp.Channel, queue string, w *Worker) error {
	msgs, err := ch.Consume(
		queue,
		"",    // 由 RabbitMQ 分配消费者标识
		false, // 手动确认
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("消息通道已关闭")
			}
			slog.Info("收到通知", "type", msg.Type)

			if err := w.Handle(ctx, msg.Body); err != nil {
				requeue := !errors.Is(err, ErrMalformed)
				slog.Error("处理通知失败", "type", msg.Type, "requeue", requeue, "error", err)
				_ = msg.Nack(false, requeue)
				continue
			}
			_ = msg.Ack(false)
		}
	}
}

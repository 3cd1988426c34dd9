package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/Gopikaa27/Rag-Agent/internal/model"
)

const (
	persistAttempts = 3
	persistBackoff  = 100 * time.Millisecond
)

// TurnWriter persists a group of turns in a single write.
type TurnWriter interface {
	CreateBatch(turns []model.Turn) error
}

// SessionToucher bumps a session's updated_at after its turns land.
type SessionToucher interface {
	Touch(sessionID uint) error
}

// TurnPersistWorker drains the turn queue into MySQL. A single consumer
// keeps the write order equal to the publish order within a session.
// Each message carries all turns of one exchange, written as one batch.
type TurnPersistWorker struct {
	conn      *amqp.Connection
	turns     TurnWriter
	sessions  SessionToucher
	queueName string
	log       *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewTurnPersistWorker(conn *amqp.Connection, turns TurnWriter, sessions SessionToucher, queueName string, log *zap.Logger) *TurnPersistWorker {
	return &TurnPersistWorker{
		conn:      conn,
		turns:     turns,
		sessions:  sessions,
		queueName: queueName,
		log:       log,
	}
}

func (w *TurnPersistWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				w.handle(d)
			}
		}
	}()

	return nil
}

func (w *TurnPersistWorker) handle(d amqp.Delivery) {
	var turns []model.Turn
	if err := json.Unmarshal(d.Body, &turns); err != nil {
		w.log.Error("worker decode turns failed", zap.Error(err))
		_ = d.Nack(false, false)
		return
	}
	if len(turns) == 0 {
		_ = d.Ack(false)
		return
	}

	if err := w.persist(turns); err != nil {
		w.log.Error("worker persist turns failed",
			zap.Uint("session_id", turns[0].SessionID),
			zap.Int("count", len(turns)), zap.Error(err))
		// Requeueing would reorder against later turns of the same session.
		_ = d.Nack(false, false)
		return
	}

	for _, turn := range turns {
		if turn.Role == model.RoleAssistant {
			if err := w.sessions.Touch(turn.SessionID); err != nil {
				w.log.Warn("worker touch session failed",
					zap.Uint("session_id", turn.SessionID), zap.Error(err))
			}
			break
		}
	}

	_ = d.Ack(false)
}

// persist retries a failed batch write in place before giving the
// message up, since requeueing through the broker would break ordering.
func (w *TurnPersistWorker) persist(turns []model.Turn) error {
	backoff := persistBackoff
	var err error
	for attempt := 1; attempt <= persistAttempts; attempt++ {
		if err = w.turns.CreateBatch(turns); err == nil {
			return nil
		}
		if attempt < persistAttempts {
			w.log.Warn("worker persist retry",
				zap.Uint("session_id", turns[0].SessionID),
				zap.Int("attempt", attempt), zap.Error(err))
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	return err
}

func (w *TurnPersistWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

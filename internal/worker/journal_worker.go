package worker

import (
	"context"
	"fmt"

	"familyfinance/internal/amqp"
	"familyfinance/internal/log"
	"familyfinance/internal/sheets"
)

// ChangeConsumer delivers record change messages until ctx is done
type ChangeConsumer interface {
	ConsumeRecordChanges(ctx context.Context, handler func(context.Context, *amqp.RecordChangeMessage) error) error
}

// JournalWorker copies record change events into the journal sheet
type JournalWorker struct {
	journal sheets.JournalWriter
	logger  *log.Logger
}

func NewJournalWorker(journal sheets.JournalWriter, logger *log.Logger) *JournalWorker {
	return &JournalWorker{
		journal: journal,
		logger:  logger.WithComponent(log.ComponentWorker),
	}
}

// HandleRecordChange appends one journal row for msg. Records that cannot be
// flattened are dropped, append failures are returned for redelivery.
func (w *JournalWorker) HandleRecordChange(ctx context.Context, msg *amqp.RecordChangeMessage) error {
	w.logger.InfoContext(ctx, "Processing record change",
		log.FieldBucket, msg.Bucket,
		log.FieldRecordID, msg.ID,
		log.FieldOperation, msg.Op)

	row, err := sheets.RowFromMessage(msg)
	if err != nil {
		return fmt.Errorf("%w: %v", amqp.ErrDropMessage, err)
	}

	ref, err := w.journal.AppendChange(ctx, row)
	if err != nil {
		return fmt.Errorf("append to journal: %w", err)
	}

	w.logger.InfoContext(ctx, "Record change journaled",
		log.FieldBucket, msg.Bucket,
		log.FieldRecordID, msg.ID,
		"sheets_ref", ref)
	return nil
}

// Run consumes from the broker until ctx is done
func (w *JournalWorker) Run(ctx context.Context, consumer ChangeConsumer) error {
	w.logger.Info("Journal worker started")
	err := consumer.ConsumeRecordChanges(ctx, w.HandleRecordChange)
	if ctx.Err() != nil {
		w.logger.Info("Journal worker stopped")
		return nil
	}
	return err
}

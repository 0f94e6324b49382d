package services

import (
	"context"

	"familyfinance/internal/amqp"
	"familyfinance/internal/core"
	"familyfinance/internal/log"
	"familyfinance/internal/repository"
)

// ChangePublisher sends record change events to the broker
type ChangePublisher interface {
	PublishRecordChange(ctx context.Context, msg *amqp.RecordChangeMessage) error
}

// Notifier publishes a change event after every successful write of the
// wrapped records. Publish failures are logged and never fail the write.
type Notifier[T any, PT interface {
	*T
	core.Entity
}] struct {
	next      repository.Records[T]
	publisher ChangePublisher
	logger    *log.StructuredLogger
	base      *log.Logger
}

var _ repository.Records[core.Expense] = (*Notifier[core.Expense, *core.Expense])(nil)

func NewNotifier[T any, PT interface {
	*T
	core.Entity
}](next repository.Records[T], publisher ChangePublisher, logger *log.Logger) *Notifier[T, PT] {
	logger = logger.WithComponent(log.ComponentRecords)
	return &Notifier[T, PT]{
		next:      next,
		publisher: publisher,
		logger:    log.NewStructuredLogger(logger),
		base:      logger,
	}
}

// NotifySet wraps every collection of set. With a nil publisher set is returned unchanged.
func NotifySet(set *repository.Set, publisher ChangePublisher, logger *log.Logger) *repository.Set {
	if publisher == nil {
		logger.Warn("AMQP client not available, record change events disabled")
		return set
	}
	return &repository.Set{
		Expenses:    NewNotifier[core.Expense](set.Expenses, publisher, logger),
		Budgets:     NewNotifier[core.Budget](set.Budgets, publisher, logger),
		Goals:       NewNotifier[core.Goal](set.Goals, publisher, logger),
		Investments: NewNotifier[core.Investment](set.Investments, publisher, logger),
		Bills:       NewNotifier[core.BillReminder](set.Bills, publisher, logger),
		Income:      NewNotifier[core.Income](set.Income, publisher, logger),
	}
}

func (n *Notifier[T, PT]) Bucket() string {
	return n.next.Bucket()
}

func (n *Notifier[T, PT]) List(ctx context.Context) ([]T, error) {
	return n.next.List(ctx)
}

func (n *Notifier[T, PT]) Get(ctx context.Context, id string) (T, error) {
	return n.next.Get(ctx, id)
}

func (n *Notifier[T, PT]) Create(ctx context.Context, v T) (T, error) {
	created, err := n.next.Create(ctx, v)
	if err != nil {
		return created, err
	}
	n.publish(ctx, amqp.OpCreate, PT(&created).GetID(), created)
	return created, nil
}

func (n *Notifier[T, PT]) Update(ctx context.Context, id string, v T) (T, error) {
	updated, err := n.next.Update(ctx, id, v)
	if err != nil {
		return updated, err
	}
	n.publish(ctx, amqp.OpUpdate, id, updated)
	return updated, nil
}

func (n *Notifier[T, PT]) Modify(ctx context.Context, id string, fn func(*T) (bool, error)) (T, bool, error) {
	modified, changed, err := n.next.Modify(ctx, id, fn)
	if err != nil || !changed {
		return modified, changed, err
	}
	n.publish(ctx, amqp.OpUpdate, id, modified)
	return modified, true, nil
}

// LogsChanges reports that every committed write is already logged here
func (n *Notifier[T, PT]) LogsChanges() bool {
	return true
}

func (n *Notifier[T, PT]) Delete(ctx context.Context, id string) error {
	if err := n.next.Delete(ctx, id); err != nil {
		return err
	}
	n.publish(ctx, amqp.OpDelete, id, nil)
	return nil
}

func (n *Notifier[T, PT]) publish(ctx context.Context, op, id string, record any) {
	bucket := n.next.Bucket()
	n.logger.LogRecordChange(ctx, op, bucket, id)

	msg, err := amqp.NewRecordChangeMessage(bucket, id, op, record)
	if err == nil {
		err = n.publisher.PublishRecordChange(ctx, msg)
	}
	if err != nil {
		n.base.ErrorContext(ctx, "Failed to publish record change",
			log.NewFields().WithRecord(bucket, id).WithOperation(log.OpPublish).WithError(err).ToSlice()...)
	}
}
